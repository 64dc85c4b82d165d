package redisStore

import (
	"context"
	"fmt"
	"time"

	"github.com/akolanti/KnowledgeBase/internal/config"
	"github.com/akolanti/KnowledgeBase/pkg/logger_i"
	"github.com/redis/go-redis/v9"
)

const pingTimeout = 3 * time.Second

// Store is a thin wrapper over one logical Redis database.
type Store struct {
	client *redis.Client
	Type   int
	logger *logger_i.Logger
}

// New connects to database db and pings it. The caller owns the returned store and closes it.
func New(ctx context.Context, cfg config.RedisConfig, db int) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:                  cfg.Addr,
		Password:              cfg.Password,
		DB:                    db,
		ContextTimeoutEnabled: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	logger := logger_i.NewLogger(fmt.Sprintf("Redis Store %d", db))

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		logger.Error("Redis is offline", "addr", cfg.Addr, "err", err)
		return nil, fmt.Errorf("redis %s db %d: %w", cfg.Addr, db, err)
	}

	logger.Info("Redis store initialized", "addr", cfg.Addr)
	return &Store{client: client, Type: db, logger: logger}, nil
}

// NewFromClient wraps an existing client, e.g. one pointed at miniredis.
func NewFromClient(client *redis.Client) *Store {
	return &Store{
		client: client,
		logger: logger_i.NewLogger("Redis Store"),
	}
}

func (s *Store) Close() error {
	s.logger.Info("Closing Redis store")
	return s.client.Close()
}
