package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_GEMINI_KEY", "secret-key")
	path := writeConfig(t, `
server:
  address: ":9090"
llm:
  provider: "gemini"
  model: "gemini-1.5-flash"
  apiKey: "${TEST_GEMINI_KEY}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "secret-key", cfg.LLM.APIKey)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
llm:
  provider: "ollama"
  model: "llama3"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Equal(t, 3, cfg.Retrieval.MinQueryChars)
	assert.Equal(t, 3000, cfg.Retrieval.ContextTokens)
	assert.Equal(t, 12, cfg.Mindmap.MaxSections)
	assert.Equal(t, 6, cfg.Mindmap.PhrasesPerSection)
	assert.Equal(t, 4, cfg.Ingest.MaxConcurrent)
	assert.Equal(t, 500, cfg.Ingest.SectionCap)
	assert.Equal(t, 3000, cfg.TTS.MaxChars)
	assert.Equal(t, "en-US-JennyNeural", cfg.TTS.HostVoice)
	assert.Equal(t, "en-US-DavisNeural", cfg.TTS.GuestVoice)
	assert.Equal(t, "memory", cfg.Storage.Provider)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "server: [not: valid")
	_, err := Load(path)
	assert.Error(t, err)
}
