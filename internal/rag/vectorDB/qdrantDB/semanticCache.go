package qdrantDB

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/akolanti/KnowledgeBase/internal/config"
	"github.com/akolanti/KnowledgeBase/internal/domain/kbModel"
	"github.com/akolanti/KnowledgeBase/internal/rag/vectorDB"
	"github.com/qdrant/go-client/qdrant"
)

// SemanticCache stores answers keyed by question vector in their own collection.
// mu serializes writes with invalidation so a stale answer cannot land after a drop.
type SemanticCache struct {
	db         *ClientHolder
	collection string
	cutoff     float32

	mu         sync.Mutex
	generation uint64
}

func (c *SemanticCache) GetCachedAnswer(ctx context.Context, queryVector []float32) (kbModel.Answer, bool, error) {
	loggr := c.db.logger.With("traceId", config.TraceID(ctx))

	searchResult, err := c.db.QObj.Query(ctx, &qdrant.QueryPoints{
		CollectionName: c.collection,
		Query:          qdrant.NewQuery(queryVector...),
		Limit:          qdrant.PtrOf(uint64(1)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		loggr.Error("Cache query failed", "err", err)
		return kbModel.Answer{}, false, err
	}
	if len(searchResult) == 0 || searchResult[0].GetScore() < c.cutoff {
		return kbModel.Answer{}, false, nil
	}

	answer, err := answerFromPayload(searchResult[0].GetPayload())
	if err != nil {
		loggr.Warn("Cached answer unreadable", "err", err)
		return kbModel.Answer{}, false, nil
	}
	loggr.Debug("cache hit", "score", searchResult[0].GetScore())
	return answer, true, nil
}

func (c *SemanticCache) SaveToCache(ctx context.Context, id string, vector []float32, answer kbModel.Answer, generation uint64) error {
	payload, err := answerPayload(answer)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return vectorDB.ErrStaleAnswer
	}
	_, err = c.db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: c.collection,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewID(id),
				Vectors: qdrant.NewVectors(vector...),
				Payload: qdrant.NewValueMap(payload),
			},
		},
	})
	if err != nil {
		c.db.logger.Error("Saving answer to cache failed", "traceId", config.TraceID(ctx), "err", err)
	}
	return err
}

// Invalidate drops and recreates the cache collection. The generation moves on
// even when the drop fails, so in-flight answers are still refused.
func (c *SemanticCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++

	if err := c.db.QObj.DeleteCollection(ctx, c.collection); err != nil {
		return fmt.Errorf("dropping %s: %w", c.collection, err)
	}
	return createCollection(ctx, c.db.QObj, c.collection, c.db.dimension)
}

func (c *SemanticCache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

func answerPayload(answer kbModel.Answer) (map[string]any, error) {
	answer.Cached = false
	data, err := json.Marshal(answer)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"answer":    string(data),
		"timestamp": time.Now().Unix(),
	}, nil
}

func answerFromPayload(payload map[string]*qdrant.Value) (kbModel.Answer, error) {
	var answer kbModel.Answer
	raw := payload["answer"].GetStringValue()
	if raw == "" {
		return answer, fmt.Errorf("no answer in payload")
	}
	if err := json.Unmarshal([]byte(raw), &answer); err != nil {
		return answer, err
	}
	return answer, nil
}
