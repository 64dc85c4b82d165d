package vectorDB

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/akolanti/KnowledgeBase/internal/domain/kbModel"
)

// ErrStaleAnswer is returned by SaveToCache when the cache was invalidated after
// the answer's retrieval started. The write is dropped.
var ErrStaleAnswer = errors.New("answer predates cache invalidation")

// ChunkIndex is a chunk store that can also rank by similarity.
type ChunkIndex interface {
	kbModel.ChunkStore
	kbModel.Searcher
}

// AnswerCache keeps ranked answers keyed by the question vector.
// Every ingest or delete invalidates it, since cached sources may no longer exist.
//
// Generation changes on every Invalidate. Callers read it before retrieving and
// pass it to SaveToCache, which refuses answers from an older generation.
type AnswerCache interface {
	GetCachedAnswer(ctx context.Context, queryVector []float32) (kbModel.Answer, bool, error)
	SaveToCache(ctx context.Context, id string, vector []float32, answer kbModel.Answer, generation uint64) error
	Invalidate(ctx context.Context) error
	Generation() uint64
}

// CosineSimilarity fails with kbModel.ErrDimensionMismatch for vectors of different
// length. A zero-magnitude vector scores 0.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", kbModel.ErrDimensionMismatch, len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
