package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Address string `yaml:"address"` // e.g. ":8080"
	Mode    string `yaml:"mode"`    // gin mode: "debug" or "release"
}

// LLMConfig selects the generative-model backend.
type LLMConfig struct {
	Provider string `yaml:"provider"` // "gemini" or "ollama"
	Model    string `yaml:"model"`
	APIKey   string `yaml:"apiKey"`
	BaseURL  string `yaml:"baseURL,omitempty"` // ollama only
}

// EmbeddingConfig selects the embedding backend. Version participates in the
// index's mixed-version check, so bump it whenever the model changes.
type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // "gemini" or "local"
	Model    string `yaml:"model"`
	APIKey   string `yaml:"apiKey"`
	Version  string `yaml:"version"`
	Dim      int    `yaml:"dim"` // local provider only
}

// TTSConfig holds the speech-synthesis backend settings.
type TTSConfig struct {
	Provider  string `yaml:"provider"` // "azure"
	Key       string `yaml:"key"`
	Region    string `yaml:"region"`
	MaxChars  int    `yaml:"maxChars"`  // per synthesis call; long turns are split
	Language  string `yaml:"language"`  // default voice locale
	HostVoice string `yaml:"hostVoice"` // default narrator voice
	GuestVoice string `yaml:"guestVoice"`
}

// RetrievalConfig tunes the retrieval engine.
type RetrievalConfig struct {
	TopK          int `yaml:"topK"`
	MinQueryChars int `yaml:"minQueryChars"`
	ContextTokens int `yaml:"contextTokens"` // RAG context window budget
}

// MindmapConfig holds the mindmap builder defaults.
type MindmapConfig struct {
	MaxSections       int `yaml:"maxSections"`
	PhrasesPerSection int `yaml:"phrasesPerSection"`
}

// IngestConfig bounds batch ingestion concurrency.
type IngestConfig struct {
	MaxConcurrent int `yaml:"maxConcurrent"`
	SectionCap    int `yaml:"sectionCap"` // hard cap on sections per document
}

// MongoConfig holds the MongoDB connection settings for the section store.
type MongoConfig struct {
	Address  string `yaml:"address"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// RedisConfig holds the Redis connection settings for the artifact
// metadata cache.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MinIOConfig holds the object-storage settings for audio blobs.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Secure    bool   `yaml:"secure"`
}

// MilvusConfig holds the vector-database settings for the external index.
type MilvusConfig struct {
	Address    string `yaml:"address"`
	Collection string `yaml:"collection"`
}

// StorageConfig selects where persistent state lives. Provider "memory"
// keeps everything in process (tests, single-node); "external" wires
// Mongo + Milvus + MinIO + Redis.
type StorageConfig struct {
	Provider    string `yaml:"provider"`
	ArtifactDir string `yaml:"artifactDir"` // filesystem blob store root
}

// AppConfig is the root configuration for the core service.
type AppConfig struct {
	Server    ServerConfig    `yaml:"server"`
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	TTS       TTSConfig       `yaml:"tts"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Mindmap   MindmapConfig   `yaml:"mindmap"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Storage   StorageConfig   `yaml:"storage"`
	Mongo     MongoConfig     `yaml:"mongo"`
	Redis     RedisConfig     `yaml:"redis"`
	MinIO     MinIOConfig     `yaml:"minio"`
	Milvus    MilvusConfig    `yaml:"milvus"`
}

// Load reads, env-expands and parses the YAML config at path, then applies
// defaults for anything left unset.
func Load(path string) (*AppConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Secrets come in as ${ENV_VAR} references.
	expanded := os.ExpandEnv(string(raw))

	cfg := &AppConfig{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults fills zero values with the pipeline defaults.
func (c *AppConfig) ApplyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Retrieval.TopK <= 0 {
		c.Retrieval.TopK = 5
	}
	if c.Retrieval.MinQueryChars <= 0 {
		c.Retrieval.MinQueryChars = 3
	}
	if c.Retrieval.ContextTokens <= 0 {
		c.Retrieval.ContextTokens = 3000
	}
	if c.Mindmap.MaxSections <= 0 {
		c.Mindmap.MaxSections = 12
	}
	if c.Mindmap.PhrasesPerSection <= 0 {
		c.Mindmap.PhrasesPerSection = 6
	}
	if c.Ingest.MaxConcurrent <= 0 {
		c.Ingest.MaxConcurrent = 4
	}
	if c.Ingest.SectionCap <= 0 {
		c.Ingest.SectionCap = 500
	}
	if c.TTS.MaxChars <= 0 {
		c.TTS.MaxChars = 3000
	}
	if c.TTS.Language == "" {
		c.TTS.Language = "en-US"
	}
	if c.TTS.HostVoice == "" {
		c.TTS.HostVoice = "en-US-JennyNeural"
	}
	if c.TTS.GuestVoice == "" {
		c.TTS.GuestVoice = "en-US-DavisNeural"
	}
	if c.Embedding.Version == "" {
		c.Embedding.Version = c.Embedding.Provider + "/" + c.Embedding.Model
	}
	if c.Storage.Provider == "" {
		c.Storage.Provider = "memory"
	}
	if c.Storage.ArtifactDir == "" {
		c.Storage.ArtifactDir = "artifacts"
	}
}
