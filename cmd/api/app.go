package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/akolanti/KnowledgeBase/internal/config"
	"github.com/akolanti/KnowledgeBase/internal/customHttpClient"
	"github.com/akolanti/KnowledgeBase/internal/data/redisStore"
	"github.com/akolanti/KnowledgeBase/internal/data/sqliteStore"
	"github.com/akolanti/KnowledgeBase/internal/data/store"
	"github.com/akolanti/KnowledgeBase/internal/domain/jobModel"
	"github.com/akolanti/KnowledgeBase/internal/domain/kbModel"
	"github.com/akolanti/KnowledgeBase/internal/job"
	"github.com/akolanti/KnowledgeBase/internal/rag"
	"github.com/akolanti/KnowledgeBase/internal/rag/chunker"
	"github.com/akolanti/KnowledgeBase/internal/rag/embedding"
	"github.com/akolanti/KnowledgeBase/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/KnowledgeBase/internal/rag/embedding/openaiEmbedding"
	"github.com/akolanti/KnowledgeBase/internal/rag/llm"
	"github.com/akolanti/KnowledgeBase/internal/rag/llm/gemini"
	"github.com/akolanti/KnowledgeBase/internal/rag/llm/openaiLLM"
	"github.com/akolanti/KnowledgeBase/internal/rag/tokenizer"
	"github.com/akolanti/KnowledgeBase/internal/rag/vectorDB"
	"github.com/akolanti/KnowledgeBase/internal/rag/vectorDB/memoryDB"
	"github.com/akolanti/KnowledgeBase/internal/rag/vectorDB/qdrantDB"
	"github.com/akolanti/KnowledgeBase/pkg/logger_i"
)

// app holds the wired collaborators of one process and everything that must be closed on exit.
type app struct {
	cfg     *config.Config
	rag     rag.Service
	closers []func() error
	logger  *logger_i.Logger
}

func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, logger: logger_i.NewLogger("main")}

	httpClient := customHttpClient.NewClient(cfg.HTTPClient)
	embedder, err := newEmbedder(ctx, cfg.Embedding, httpClient)
	if err != nil {
		return nil, err
	}
	synthesizer, err := newSynthesizer(ctx, cfg.LLM, httpClient)
	if err != nil {
		return nil, err
	}

	tok := tokenizer.New(cfg.Chunking.TokenizerModel)
	chunks, err := chunker.New(tok,
		chunker.WithChunkSize(cfg.Chunking.ChunkSize),
		chunker.WithOverlap(cfg.Chunking.Overlap),
	)
	if err != nil {
		return nil, err
	}

	chunkStore, docStore, cache, err := a.newStorage(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	a.rag = rag.NewService(rag.Dependencies{
		Embedder:         embedder,
		Synthesizer:      synthesizer,
		Tokenizer:        tok,
		Chunker:          chunks,
		Chunks:           chunkStore,
		Documents:        docStore,
		Cache:            cache,
		Retrieval:        cfg.Retrieval,
		EmbedConcurrency: cfg.Embedding.Concurrency,
	})
	a.logger.Info("Knowledge base ready",
		"storage", cfg.Storage.Driver,
		"embedding", cfg.Embedding.Provider,
		"llm", cfg.LLM.Provider,
		"exactTokens", tokenizer.IsExact(tok),
		"cache", cache != nil)
	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("Error closing service", "err", err)
		}
	}
	a.closers = nil
}

func newEmbedder(ctx context.Context, cfg config.EmbeddingConfig, httpClient *http.Client) (embedding.Embedder, error) {
	switch cfg.Provider {
	case "google", "gemini":
		return googleEmbedding.NewGoogleEmbedder(ctx, cfg, httpClient)
	default:
		return openaiEmbedding.NewOpenAIEmbedder(cfg, httpClient)
	}
}

func newSynthesizer(ctx context.Context, cfg config.LLMConfig, httpClient *http.Client) (llm.Synthesizer, error) {
	switch cfg.Provider {
	case "google", "gemini":
		return gemini.NewGeminiClient(ctx, cfg, httpClient)
	default:
		return openaiLLM.NewOpenAIClient(cfg, httpClient)
	}
}

func (a *app) newStorage(ctx context.Context) (kbModel.ChunkStore, kbModel.DocumentStore, vectorDB.AnswerCache, error) {
	cfg := a.cfg
	var cache vectorDB.AnswerCache
	if cfg.Cache.Enabled {
		cache = memoryDB.NewCache(float64(cfg.Cache.SimilarityCutoff))
	}

	switch strings.ToLower(cfg.Storage.Driver) {
	case config.StorageDriverSQLite:
		db, err := sqliteStore.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		a.closers = append(a.closers, db.Close)
		return db, db, cache, nil

	case config.StorageDriverMemory:
		a.logger.Warn("Using in-memory storage, nothing survives a restart")
		return memoryDB.New(), store.NewInMemoryDocumentStore(), cache, nil

	default:
		holder, err := qdrantDB.Connect(ctx, cfg.Qdrant, cfg.Embedding.Dimensions)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("vector store offline: %w", err)
		}
		a.closers = append(a.closers, holder.Close)
		if cfg.Cache.Enabled {
			cache = holder.Cache(cfg.Cache.SimilarityCutoff)
		}

		var docs kbModel.DocumentStore
		redisDocs, err := a.redis(ctx, cfg.Redis.DocumentDB)
		switch {
		case err == nil:
			docs = store.NewRedisDocumentStore(redisDocs)
		case cfg.Redis.FallbackToMemory:
			docs = store.NewInMemoryDocumentStore()
		default:
			return nil, nil, nil, err
		}
		return holder.Chunks(), docs, cache, nil
	}
}

// redis connects to one logical database. Callers fall back to an in-memory
// store on error when redis.fallback_to_memory is set.
func (a *app) redis(ctx context.Context, db int) (*redisStore.Store, error) {
	s, err := redisStore.New(ctx, a.cfg.Redis, db)
	if err != nil {
		if a.cfg.Redis.FallbackToMemory {
			a.logger.Warn("Redis is offline, falling back to in-memory store", "db", db)
		}
		return nil, err
	}
	a.closers = append(a.closers, s.Close)
	return s, nil
}

// newJobService wires the job and chat stores behind the asynchronous endpoints.
func (a *app) newJobService(ctx context.Context) (*job.Service, error) {
	cfg := a.cfg

	var jobStore jobModel.JobStore
	var messageStore jobModel.MessageStore
	if s, err := a.redis(ctx, cfg.Redis.JobDB); err == nil {
		jobStore = store.NewRedisJobStore(s, cfg.Redis.JobTTL)
	} else if cfg.Redis.FallbackToMemory {
		jobStore = store.InitInMemoryJobStore()
	} else {
		return nil, err
	}
	if s, err := a.redis(ctx, cfg.Redis.MessageDB); err == nil {
		messageStore = store.NewRedisMessageStore(s, cfg.Redis.MessageTTL)
	} else if cfg.Redis.FallbackToMemory {
		messageStore = store.InitMessageStore()
	} else {
		return nil, err
	}

	return job.InitJobService(job.ServiceConfig{
		JobChannel:           make(chan jobModel.Job, cfg.Workers.BufferLimit),
		DispatcherChannel:    make(chan bool, 1),
		JobStore:             jobStore,
		MessageStore:         messageStore,
		RequestsPerNewWorker: cfg.Workers.RequestsPerNewWorker,
	}), nil
}
