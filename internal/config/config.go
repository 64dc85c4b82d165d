package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds the HTTP listener and request guard settings.
type ServerConfig struct {
	ListenAddr      string        `yaml:"listen_addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
	AuthToken       string        `yaml:"auth_token"`
	NoAuthBypass    bool          `yaml:"no_auth_bypass"`
	RateLimit       bool          `yaml:"rate_limit"`
	RatePerSecond   float64       `yaml:"rate_per_second"`
	RateBurst       int           `yaml:"rate_burst"`
	TempDir         string        `yaml:"temp_dir"`
	// AllowedOrigins feeds the CORS preflight; "*" allows any origin.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// ChunkingConfig budgets are in tokens.
type ChunkingConfig struct {
	ChunkSize      int    `yaml:"chunk_size"`
	Overlap        int    `yaml:"overlap"`
	TokenizerModel string `yaml:"tokenizer_model"`
}

type EmbeddingConfig struct {
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	Dimensions  int    `yaml:"dimensions"`
	APIKey      string `yaml:"api_key"`
	BaseURL     string `yaml:"base_url"`
	Concurrency int    `yaml:"concurrency"`
}

type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

type RetrievalConfig struct {
	DefaultTopK int `yaml:"default_top_k"`
	MaxTopK     int `yaml:"max_top_k"`
}

type StorageConfig struct {
	Driver     string `yaml:"driver"`
	SQLitePath string `yaml:"sqlite_path"`
}

type QdrantConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	APIKey          string `yaml:"api_key"`
	UseTLS          bool   `yaml:"use_tls"`
	PoolSize        int    `yaml:"pool_size"`
	ChunkCollection string `yaml:"chunk_collection"`
	CacheCollection string `yaml:"cache_collection"`
}

type RedisConfig struct {
	Addr             string        `yaml:"addr"`
	Password         string        `yaml:"password"`
	JobDB            int           `yaml:"job_db"`
	MessageDB        int           `yaml:"message_db"`
	DocumentDB       int           `yaml:"document_db"`
	JobTTL           time.Duration `yaml:"job_ttl"`
	MessageTTL       time.Duration `yaml:"message_ttl"`
	FallbackToMemory bool          `yaml:"fallback_to_memory"`
}

type CacheConfig struct {
	Enabled          bool    `yaml:"enabled"`
	SimilarityCutoff float32 `yaml:"similarity_cutoff"`
}

type WorkerConfig struct {
	BufferLimit          int           `yaml:"buffer_limit"`
	RequestsPerNewWorker int64         `yaml:"requests_per_new_worker"`
	MaxWorkers           int64         `yaml:"max_workers"`
	MinWorkers           int64         `yaml:"min_workers"`
	IdleTimeout          time.Duration `yaml:"idle_timeout"`
	JobTimeout           time.Duration `yaml:"job_timeout"`
}

type HTTPClientConfig struct {
	MaxIdleConns        int           `yaml:"max_idle_conns"`
	MaxIdleConnsPerHost int           `yaml:"max_idle_conns_per_host"`
	IdleConnTimeout     time.Duration `yaml:"idle_conn_timeout"`
	Timeout             time.Duration `yaml:"timeout"`
}

// Config is the root configuration of the service.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	LLM        LLMConfig        `yaml:"llm"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Storage    StorageConfig    `yaml:"storage"`
	Qdrant     QdrantConfig     `yaml:"qdrant"`
	Redis      RedisConfig      `yaml:"redis"`
	Cache      CacheConfig      `yaml:"cache"`
	Workers    WorkerConfig     `yaml:"workers"`
	HTTPClient HTTPClientConfig `yaml:"http_client"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:      ServerListenAddr,
			ReadTimeout:     ReadTimeout,
			WriteTimeout:    WriteTimeout,
			IdleTimeout:     IdleTimeout,
			ShutdownTimeout: ShutdownContextTimeout,
			MaxUploadBytes:  MaxUploadSize,
			RatePerSecond:   RATE_LIMIT_PER_SECOND,
			RateBurst:       BURST_RATE_LIMIT_PER_SECOND,
			TempDir:         "temporary_data",
			AllowedOrigins:  []string{"*"},
		},
		Log: LogConfig{Level: "debug"},
		Chunking: ChunkingConfig{
			ChunkSize:      DefaultChunkSize,
			Overlap:        DefaultChunkOverlap,
			TokenizerModel: DefaultTokenizerModel,
		},
		Embedding: EmbeddingConfig{
			Provider:    DefaultEmbeddingProvider,
			Model:       DefaultEmbeddingModel,
			Dimensions:  int(EmbeddingOutputDimensionality),
			Concurrency: 1,
		},
		LLM: LLMConfig{
			Provider:    DefaultLLMProvider,
			Model:       DefaultLLMModel,
			Temperature: ModelTemperature,
			MaxTokens:   ModelMaxTokens,
		},
		Retrieval: RetrievalConfig{DefaultTopK: DefaultTopK, MaxTopK: MaxTopK},
		Storage:   StorageConfig{Driver: StorageDriverQdrant, SQLitePath: DefaultSQLitePath},
		Qdrant: QdrantConfig{
			Host:            QdrantHost,
			Port:            QdrantGrpcPort,
			UseTLS:          QdrantUseTLS,
			PoolSize:        QdrantPoolSize,
			ChunkCollection: ChunkCollectionName,
			CacheCollection: AnswerCacheCollection,
		},
		Redis: RedisConfig{
			Addr:             RedisAddr,
			JobDB:            RedisJobStore,
			MessageDB:        RedisMessageStore,
			DocumentDB:       RedisDocumentStore,
			JobTTL:           RedisJobStoreTTL,
			MessageTTL:       RedisMessageStoreTTL,
			FallbackToMemory: true,
		},
		Cache: CacheConfig{SimilarityCutoff: CacheSimilarityCutoff},
		Workers: WorkerConfig{
			BufferLimit:          BufferLimit,
			RequestsPerNewWorker: RequestsPerNewWorkerCount,
			MaxWorkers:           MaxWorkerCount,
			MinWorkers:           MinWorkerCount,
			IdleTimeout:          IdleWorkerTimeout,
			JobTimeout:           JobTimeout,
		},
		HTTPClient: HTTPClientConfig{
			MaxIdleConns:        MaxIdleConns,
			MaxIdleConnsPerHost: MaxIdleConnsPerHost,
			IdleConnTimeout:     IdleConnTimeout,
			Timeout:             ProviderTimeout,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if any),
// then a .env file in the working directory, then process environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	// a missing .env is the normal case in containers
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Server.ListenAddr, "LISTEN_ADDR")
	setString(&cfg.Server.AuthToken, "AUTH_TOKEN")
	setString(&cfg.Log.Level, "LOG_LEVEL")

	setString(&cfg.Embedding.Provider, "EMBEDDING_PROVIDER")
	setString(&cfg.Embedding.Model, "EMBEDDING_MODEL")
	setString(&cfg.LLM.Provider, "LLM_PROVIDER")
	setString(&cfg.LLM.Model, "LLM_MODEL")

	setString(&cfg.Storage.Driver, "STORAGE_DRIVER")
	setString(&cfg.Storage.SQLitePath, "SQLITE_PATH")
	setString(&cfg.Qdrant.Host, "QDRANT_HOST")
	setString(&cfg.Qdrant.APIKey, "QDRANT_API_KEY")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setList(&cfg.Server.AllowedOrigins, "CORS_ALLOWED_ORIGINS")

	// provider keys: the provider-specific variable wins over nothing, config file wins over both
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = providerKey(cfg.Embedding.Provider)
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = providerKey(cfg.LLM.Provider)
	}

	if err := setInt(&cfg.Embedding.Dimensions, "EMBEDDING_DIMENSIONS"); err != nil {
		return err
	}
	if err := setInt(&cfg.Qdrant.Port, "QDRANT_PORT"); err != nil {
		return err
	}
	if err := setBool(&cfg.Server.NoAuthBypass, "NO_AUTH_BYPASS"); err != nil {
		return err
	}
	if err := setBool(&cfg.Log.JSON, "LOG_JSON"); err != nil {
		return err
	}
	return setBool(&cfg.Cache.Enabled, "ANSWER_CACHE_ENABLED")
}

func providerKey(provider string) string {
	switch provider {
	case "google", "gemini":
		return os.Getenv("GOOGLE_API_KEY")
	default:
		return os.Getenv("OPENAI_API_KEY")
	}
}

// Validate rejects configurations the core cannot run with.
func (c *Config) Validate() error {
	if c.Chunking.ChunkSize <= 0 {
		return fmt.Errorf("chunking.chunk_size must be positive, got %d", c.Chunking.ChunkSize)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.ChunkSize {
		return fmt.Errorf("chunking.overlap must be in [0, %d), got %d", c.Chunking.ChunkSize, c.Chunking.Overlap)
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	if c.Embedding.Concurrency < 1 {
		c.Embedding.Concurrency = 1
	}
	if c.Retrieval.DefaultTopK < 1 || c.Retrieval.MaxTopK < c.Retrieval.DefaultTopK {
		return fmt.Errorf("retrieval top_k bounds invalid: default %d, max %d", c.Retrieval.DefaultTopK, c.Retrieval.MaxTopK)
	}
	switch strings.ToLower(c.Storage.Driver) {
	case StorageDriverQdrant, StorageDriverSQLite, StorageDriverMemory:
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	switch c.Embedding.Provider {
	case "openai", "google", "gemini":
	default:
		return fmt.Errorf("unknown embedding.provider %q", c.Embedding.Provider)
	}
	switch c.LLM.Provider {
	case "openai", "google", "gemini":
	default:
		return fmt.Errorf("unknown llm.provider %q", c.LLM.Provider)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// setList reads a comma separated variable, dropping blank entries.
func setList(dst *[]string, key string) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*dst = out
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}
