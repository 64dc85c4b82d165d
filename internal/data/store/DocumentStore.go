package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/akolanti/KnowledgeBase/internal/config"
	"github.com/akolanti/KnowledgeBase/internal/data/redisStore"
	"github.com/akolanti/KnowledgeBase/internal/domain/kbModel"
	"github.com/akolanti/KnowledgeBase/pkg/logger_i"
)

const documentIndexKey = "documents"

var (
	_ kbModel.DocumentStore = (*RedisDocumentStore)(nil)
	_ kbModel.DocumentStore = (*InMemoryDocumentStore)(nil)
)

// RedisDocumentStore keeps each document as JSON under document:<id> and the ids in a set.
type RedisDocumentStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func NewRedisDocumentStore(store *redisStore.Store) *RedisDocumentStore {
	return &RedisDocumentStore{
		store:  store,
		logger: logger_i.NewLogger("DocumentStore"),
	}
}

func documentKey(id string) string {
	return "document:" + id
}

func (s *RedisDocumentStore) SaveDocument(ctx context.Context, doc kbModel.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if err := s.store.SetWithIndex(ctx, documentKey(doc.ID), data, documentIndexKey, doc.ID); err != nil {
		return fmt.Errorf("saving document %s: %w", doc.ID, err)
	}
	s.logger.Debug("Saved document", "traceId", config.TraceID(ctx), "documentId", doc.ID)
	return nil
}

func (s *RedisDocumentStore) GetDocument(ctx context.Context, id string) (kbModel.Document, bool, error) {
	var doc kbModel.Document
	val, err := s.store.Get(ctx, documentKey(id))
	if s.store.IsNil(err) {
		return doc, false, nil
	} else if err != nil {
		return doc, false, err
	}
	if err := json.Unmarshal([]byte(val), &doc); err != nil {
		return doc, false, fmt.Errorf("decoding document %s: %w", id, err)
	}
	return doc, true, nil
}

func (s *RedisDocumentStore) ListDocuments(ctx context.Context) ([]kbModel.Document, error) {
	log := s.logger.With("traceId", config.TraceID(ctx))

	ids, err := s.store.SetMembers(ctx, documentIndexKey)
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = documentKey(id)
	}
	values, err := s.store.MultiGet(ctx, keys...)
	if err != nil {
		return nil, err
	}

	docs := make([]kbModel.Document, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// indexed id without a record
			log.Warn("Document index entry has no record", "documentId", ids[i])
			continue
		}
		var doc kbModel.Document
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			log.Warn("Skipping unreadable document", "documentId", ids[i], "err", err)
			continue
		}
		docs = append(docs, doc)
	}
	sortDocuments(docs)
	return docs, nil
}

func (s *RedisDocumentStore) DeleteDocument(ctx context.Context, id string) error {
	return s.store.DelWithIndex(ctx, documentKey(id), documentIndexKey, id)
}

// InMemoryDocumentStore is used when Redis is unavailable and by the memory driver.
type InMemoryDocumentStore struct {
	mu   sync.RWMutex
	docs map[string]kbModel.Document
}

func NewInMemoryDocumentStore() *InMemoryDocumentStore {
	return &InMemoryDocumentStore{docs: make(map[string]kbModel.Document)}
}

func (s *InMemoryDocumentStore) SaveDocument(_ context.Context, doc kbModel.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = doc
	return nil
}

func (s *InMemoryDocumentStore) GetDocument(_ context.Context, id string) (kbModel.Document, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	return doc, ok, nil
}

func (s *InMemoryDocumentStore) ListDocuments(_ context.Context) ([]kbModel.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]kbModel.Document, 0, len(s.docs))
	for _, d := range s.docs {
		docs = append(docs, d)
	}
	sortDocuments(docs)
	return docs, nil
}

func (s *InMemoryDocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
	return nil
}

// sortDocuments orders by creation time, then id for equal timestamps.
func sortDocuments(docs []kbModel.Document) {
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].ID < docs[j].ID
		}
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})
}
