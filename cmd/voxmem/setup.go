package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/sandevgo/voxmem/internal/config"
	"github.com/sandevgo/voxmem/internal/core"
	"github.com/sandevgo/voxmem/internal/providers/embedding"
	"github.com/sandevgo/voxmem/internal/service/embedcache"
	"github.com/sandevgo/voxmem/internal/service/ingest"
	"github.com/sandevgo/voxmem/internal/service/rag"
	"github.com/sandevgo/voxmem/internal/service/retrieval"
	"github.com/sandevgo/voxmem/internal/service/topic"
	chromemstore "github.com/sandevgo/voxmem/internal/storage/chromem"
	memstore "github.com/sandevgo/voxmem/internal/storage/memory"
	"github.com/sandevgo/voxmem/internal/storage/sqlite"
	"github.com/sandevgo/voxmem/pkg/log"
	"github.com/sandevgo/voxmem/pkg/srv"
)

type pipeline struct {
	orchestrator *rag.Orchestrator
	ingestor     *ingest.Ingestor
	services     []srv.Service
}

func buildPipeline(ctx context.Context) *pipeline {
	logger := log.FromCtx(ctx)

	if err := initEnv(config.GetRuntimePath()); err != nil {
		logger.Warn().Err(err).Msg("failed to load .env")
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	ragCfg := config.NewRAGConfig(ctx)
	cacheCfg := config.NewCacheConfig(ctx)
	openaiCfg := config.NewOpenAIConfig(ctx)

	// 2. Embedding provider
	provider := embedding.NewOpenAIProvider(openaiCfg)

	// 3. Storage
	services := make([]srv.Service, 0)
	var (
		index      core.VectorIndex
		kv         core.KV
		topicStore core.TopicStore
	)

	switch appCfg.VectorBackend {
	case "chromem":
		index = chromemstore.New()
		kv = memstore.NewKV()
		topicStore = memstore.NewTopicStore(ragCfg.SessionTTL)
	default:
		db, err := sqlite.NewDB(ctx, appCfg.GetDatabasePath(), openaiCfg.Dimensions)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize storage")
		}
		services = append(services, srv.NewCleanup(db.Close))

		kvRepo := sqlite.NewKVRepo(db)
		index = sqlite.NewHighlightIndex(db)
		kv = kvRepo
		topicStore = topic.NewKVStore(kvRepo, ragCfg.SessionTTL)
		services = append(services, sqlite.NewSweeper(kvRepo, appCfg.SweepInterval))
	}

	// 4. Pipeline
	cache, err := embedcache.New(provider, kv, cacheCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize embedding cache")
	}

	tracker := topic.NewTracker(topicStore, ragCfg)
	retriever := retrieval.NewRetriever(index, ragCfg)

	return &pipeline{
		orchestrator: rag.NewOrchestrator(cache, tracker, retriever, ragCfg),
		ingestor:     ingest.NewIngestor(cache, index),
		services:     services,
	}
}

func initEnv(runtimePath string) error {
	envPath := filepath.Join(runtimePath, ".env")
	err := godotenv.Load(envPath)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
