package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/akolanti/KnowledgeBase/internal/config"
	"github.com/akolanti/KnowledgeBase/internal/data/redisStore"
	"github.com/akolanti/KnowledgeBase/internal/domain/jobModel"
	"github.com/akolanti/KnowledgeBase/pkg/logger_i"
)

// RedisMessageStore keeps one Redis list per chat. The first element is an empty
// marker payload written by InitNewChat so the key exists before the first answer.
type RedisMessageStore struct {
	store  *redisStore.Store
	ttl    time.Duration
	logger *logger_i.Logger
}

func NewRedisMessageStore(store *redisStore.Store, ttl time.Duration) *RedisMessageStore {
	return &RedisMessageStore{
		store:  store,
		ttl:    ttl,
		logger: logger_i.NewLogger("MessageStore"),
	}
}

func chatKey(chatId string) string {
	return "chat:" + chatId
}

func (s *RedisMessageStore) ValidateChatId(ctx context.Context, chatId string) bool {
	log := s.logger.With("traceId", config.TraceID(ctx), "chatId", chatId)
	isFound, err := s.store.Exists(ctx, chatKey(chatId))
	if err != nil {
		log.Error("Failed to check if chatId exists", "err", err)
		return false
	}
	return isFound
}

func (s *RedisMessageStore) TrySaveChat(ctx context.Context, id string, conversation jobModel.JobPayload) error {
	if !s.ValidateChatId(ctx, id) {
		s.logger.Warn("Failed validation before saving", "chatId", id)
		return ErrUnknownChat
	}
	return s.saveChat(ctx, id, conversation)
}

func (s *RedisMessageStore) saveChat(ctx context.Context, id string, conversation jobModel.JobPayload) error {
	log := s.logger.With("traceId", config.TraceID(ctx), "chatId", id)
	data, err := json.Marshal(conversation)
	if err != nil {
		return err
	}
	if err = s.store.ListPush(ctx, chatKey(id), data); err != nil {
		log.Error("error saving chat", "err", err)
		return err
	}
	if err = s.store.Expire(ctx, chatKey(id), s.ttl); err != nil {
		log.Warn("could not refresh chat ttl", "err", err)
	}
	log.Debug("Saved chat successfully")
	return nil
}

func (s *RedisMessageStore) InitNewChat(ctx context.Context, id string) error {
	s.logger.Debug("Initializing new chat", "traceId", config.TraceID(ctx), "chatId", id)
	if err := s.store.Del(ctx, chatKey(id)); err != nil {
		return err
	}
	return s.saveChat(ctx, id, jobModel.JobPayload{})
}

// GetMessageHistory returns the answered questions oldest first.
func (s *RedisMessageStore) GetMessageHistory(ctx context.Context, chatId string) ([]jobModel.JobPayload, error) {
	log := s.logger.With("traceId", config.TraceID(ctx), "chatId", chatId)

	if !s.ValidateChatId(ctx, chatId) {
		return nil, ErrUnknownChat
	}
	raw, err := s.store.ListGetAll(ctx, chatKey(chatId))
	if err != nil {
		log.Error("Error getting history", "err", err)
		return nil, err
	}

	history := make([]jobModel.JobPayload, 0, len(raw))
	for _, entry := range raw {
		var payload jobModel.JobPayload
		if err := json.Unmarshal([]byte(entry), &payload); err != nil {
			log.Warn("Skipping unreadable chat entry", "err", err)
			continue
		}
		if payload.Question == "" {
			continue
		}
		history = append(history, payload)
	}
	return history, nil
}
