package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"doclens/internal/api"
	"doclens/internal/artifact"
	"doclens/internal/audio"
	"doclens/internal/config"
	"doclens/internal/embedding"
	"doclens/internal/extractor"
	"doclens/internal/index"
	"doclens/internal/ingest"
	"doclens/internal/llm"
	"doclens/internal/mindmap"
	"doclens/internal/rag"
	"doclens/internal/retrieval"
	"doclens/internal/store"
	"doclens/internal/tts"
	"doclens/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	flag.Parse()

	logger.Init(logrus.InfoLevel)
	appLogger := logger.New("CoreService")
	appLogger.Info("Starting core service...")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	appLogger.Info("Configuration loaded successfully.")

	ctx := context.Background()

	// Storage backends: everything in process, or the external stack.
	var (
		sections store.SectionStore
		ix       index.Index
		blobs    artifact.BlobStore
		cache    artifact.MetaCache
	)
	switch cfg.Storage.Provider {
	case "", "memory":
		sections = store.NewMemoryStore()
		ix = index.NewMemoryIndex()
		blobs, err = artifact.NewFSStore(cfg.Storage.ArtifactDir)
		if err != nil {
			log.Fatalf("Failed to open artifact directory: %v", err)
		}
		cache = artifact.NewMemoryCache()
	case "external":
		mongoClient, err := store.ConnectMongo(ctx, cfg.Mongo)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		sections = store.NewMongoStore(mongoClient, cfg.Mongo.Database)
		appLogger.Info("Connected to MongoDB.")

		milvusClient, err := index.Connect(ctx, cfg.Milvus.Address)
		if err != nil {
			log.Fatalf("Failed to connect to Milvus: %v", err)
		}
		ix, err = index.NewMilvusIndex(milvusClient, cfg.Milvus.Collection, cfg.Embedding.Version, logger.New("MilvusIndex"))
		if err != nil {
			log.Fatalf("Failed to initialize Milvus index: %v", err)
		}
		appLogger.Info("Connected to Milvus.")

		blobs, err = artifact.NewMinIOStore(ctx, cfg.MinIO)
		if err != nil {
			log.Fatalf("Failed to connect to MinIO: %v", err)
		}
		appLogger.Info("Connected to MinIO.")

		redisCache, err := artifact.NewRedisCache(ctx, cfg.Redis, logger.New("RedisCache"))
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		cache = redisCache
		appLogger.Info("Connected to Redis.")
	default:
		log.Fatalf("Unknown storage provider: %s", cfg.Storage.Provider)
	}

	embedder, err := embedding.NewEmbedder(cfg.Embedding)
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}
	model, err := llm.NewClient(cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to create LLM client: %v", err)
	}

	var synth tts.Synthesizer
	switch cfg.TTS.Provider {
	case "", "azure":
		synth = tts.NewAzure(cfg.TTS.Region, cfg.TTS.Key, cfg.TTS.Language)
	default:
		log.Fatalf("Unknown TTS provider: %s", cfg.TTS.Provider)
	}

	ex := extractor.New(cfg.Ingest.SectionCap, logger.New("Extractor"))
	engine := retrieval.NewEngine(embedder, ix, sections, cfg.Retrieval.TopK, cfg.Retrieval.MinQueryChars, logger.New("Retrieval"))
	orchestrator := rag.NewOrchestrator(model, engine, cfg.Retrieval.ContextTokens, cfg.Retrieval.TopK, logger.New("RAG"))
	ingester := ingest.New(ex, embedder, ix, sections, cfg.Ingest.MaxConcurrent, logger.New("Ingest"))
	mindmaps := mindmap.NewService(mindmap.NewBuilder(cfg.Mindmap.MaxSections, cfg.Mindmap.PhrasesPerSection, logger.New("Mindmap")))
	artifacts := artifact.NewStore(blobs, cache, logger.New("Artifacts"))
	pipeline := audio.NewPipeline(synth, artifacts, cfg.TTS.MaxChars, logger.New("Audio"))

	handlers := api.NewAPI(ingester, ex, engine, orchestrator, rag.NewSummarizer(), mindmaps, pipeline, artifacts, sections, logger.New("API"))

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	router := gin.Default()
	api.RegisterRoutes(router, handlers)

	srv := &http.Server{Addr: cfg.Server.Address, Handler: router}
	go func() {
		appLogger.Info("HTTP server listening on " + cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Forced shutdown")
	}
	appLogger.Info("Server stopped.")
}
