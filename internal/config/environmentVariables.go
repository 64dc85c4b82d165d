package config

import (
	"context"
	"log/slog"
	"time"
)

type contextKey string

const (
	IS_PROD        = false
	LOG_LEVEL_PROD = slog.LevelInfo
	TRACE_ID_KEY   = contextKey("traceId")

	RATE_LIMIT_PER_SECOND       = 2
	BURST_RATE_LIMIT_PER_SECOND = 5
	CacheSimilarityCutoff       = 0.97

	//chunking - token budgets
	DefaultChunkSize      = 500
	DefaultChunkOverlap   = 50
	DefaultTokenizerModel = "gpt-4"

	//retrieval
	DefaultTopK = 5
	MaxTopK     = 50

	//openai is the default provider, gemini can be configured
	DefaultEmbeddingProvider            = "openai"
	DefaultEmbeddingModel               = "text-embedding-3-small"
	GoogleEmbeddingModel                = "gemini-embedding-001"
	EmbeddingOutputDimensionality int32 = 1536

	DefaultLLMProvider       = "openai"
	DefaultLLMModel          = "gpt-4o-mini"
	GeminiModelName          = "gemini-2.5-flash-lite-preview-09-2025"
	ModelTemperature float32 = 0.7
	ModelMaxTokens           = 1000

	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute
	JobTimeout                      = 60 * time.Second

	//serverTimeouts
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 60 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second
	MaxUploadSize          = 32 << 20 //32mb

	//server listening port
	ServerListenAddr = ":3000"

	//job requests buffer limit
	BufferLimit = 100

	//storage
	StorageDriverQdrant = "qdrant"
	StorageDriverSQLite = "sqlite"
	StorageDriverMemory = "memory"
	DefaultSQLitePath   = "data/knowledge_base.db"

	//vectorDB
	QdrantHost             = "localhost"
	QdrantGrpcPort         = 6334
	QdrantUseTLS           = false //set for https
	QdrantPoolSize         = 1     //2-5 is preferred for prod according to documentation
	ChunkCollectionName    = "chunks"
	AnswerCacheCollection  = "answer-cache"
	QdrantKeepAliveTimeout = 30 * time.Second

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second
	ProviderTimeout     = 60 * time.Second

	//redis
	redisHost = "127.0.0.1"
	redisPort = "6379"
	RedisAddr = redisHost + ":" + redisPort

	//redis has 16 DB we can use
	RedisJobStore      = 0
	RedisMessageStore  = 1
	RedisDocumentStore = 2

	//redis timeouts
	RedisJobStoreTTL     = 24 * time.Hour
	RedisMessageStoreTTL = 24 * time.Hour
)

// TraceID returns the trace id stored on ctx by the trace middleware, or "" when absent.
func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	trace, _ := ctx.Value(TRACE_ID_KEY).(string)
	return trace
}

// WithTraceID returns a copy of ctx carrying the trace id.
func WithTraceID(ctx context.Context, trace string) context.Context {
	return context.WithValue(ctx, TRACE_ID_KEY, trace)
}
