// Package memoryDB is an in-process chunk index and answer cache using brute-force cosine similarity.
package memoryDB

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/akolanti/KnowledgeBase/internal/domain/kbModel"
	"github.com/akolanti/KnowledgeBase/internal/rag/vectorDB"
)

var (
	_ vectorDB.ChunkIndex  = (*Store)(nil)
	_ vectorDB.AnswerCache = (*Cache)(nil)
)

type Store struct {
	mu     sync.RWMutex
	chunks []kbModel.Chunk // insertion order gives Sample its stable order
}

func New() *Store {
	return &Store{}
}

func (s *Store) UpsertChunks(_ context.Context, chunks []kbModel.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range chunks {
		replaced := false
		for i := range s.chunks {
			if s.chunks[i].ID == c.ID {
				s.chunks[i] = c
				replaced = true
				break
			}
		}
		if !replaced {
			s.chunks = append(s.chunks, c)
		}
	}
	return nil
}

func (s *Store) Sample(_ context.Context, limit int) ([]kbModel.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := min(limit, len(s.chunks))
	out := make([]kbModel.Chunk, n)
	copy(out, s.chunks[:n])
	return out, nil
}

func (s *Store) ChunksByDocument(_ context.Context, documentID string) ([]kbModel.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []kbModel.Chunk
	for _, c := range s.chunks {
		if c.DocumentID == documentID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChunkIndex < out[j].ChunkIndex })
	return out, nil
}

func (s *Store) DeleteByDocument(_ context.Context, documentID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.chunks[:0]
	removed := 0
	for _, c := range s.chunks {
		if c.DocumentID == documentID {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	s.chunks = kept
	return removed, nil
}

func (s *Store) CountChunks(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

func (s *Store) SimilaritySearch(_ context.Context, vector []float32, topK int) ([]kbModel.ScoredChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make([]kbModel.ScoredChunk, 0, len(s.chunks))
	for _, c := range s.chunks {
		score, err := vectorDB.CosineSimilarity(vector, c.Vector)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", c.ID, err)
		}
		hits = append(hits, kbModel.ScoredChunk{Chunk: c, Score: &score})
	}
	sort.SliceStable(hits, func(i, j int) bool { return *hits[i].Score > *hits[j].Score })

	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

type cachedAnswer struct {
	vector []float32
	answer kbModel.Answer
}

// Cache is an answer cache matching questions above a similarity cutoff.
type Cache struct {
	mu         sync.RWMutex
	cutoff     float64
	entries    map[string]cachedAnswer
	generation uint64
}

func NewCache(cutoff float64) *Cache {
	return &Cache{cutoff: cutoff, entries: make(map[string]cachedAnswer)}
}

func (c *Cache) GetCachedAnswer(_ context.Context, queryVector []float32) (kbModel.Answer, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	best := -1.0
	var found kbModel.Answer
	for _, e := range c.entries {
		score, err := vectorDB.CosineSimilarity(queryVector, e.vector)
		if err != nil {
			return kbModel.Answer{}, false, err
		}
		if score > best {
			best = score
			found = e.answer
		}
	}
	if best < c.cutoff {
		return kbModel.Answer{}, false, nil
	}
	return found, true, nil
}

func (c *Cache) SaveToCache(_ context.Context, id string, vector []float32, answer kbModel.Answer, generation uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return vectorDB.ErrStaleAnswer
	}
	c.entries[id] = cachedAnswer{vector: vector, answer: answer}
	return nil
}

func (c *Cache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	clear(c.entries)
	return nil
}

func (c *Cache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}
