// Package retriever finds the chunks most relevant to a query vector.
//
// When the chunk store cannot rank by similarity, either because it has no search
// capability or because the search call failed, the retriever still answers with an
// unranked sample whose scores are nil. Callers see which path was taken in Result.Mode.
package retriever

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/KnowledgeBase/internal/config"
	"github.com/akolanti/KnowledgeBase/internal/domain/kbModel"
	"github.com/akolanti/KnowledgeBase/internal/metrics"
	"github.com/akolanti/KnowledgeBase/pkg/logger_i"
	"google.golang.org/grpc/status"
)

type Mode int

const (
	Ranked Mode = iota
	Unranked
)

func (m Mode) String() string {
	if m == Unranked {
		return "unranked"
	}
	return "ranked"
}

type Result struct {
	Mode Mode
	Hits []kbModel.ScoredChunk
}

func (r Result) Degraded() bool {
	return r.Mode == Unranked
}

type Retriever struct {
	store    kbModel.ChunkStore
	searcher kbModel.Searcher
	logger   *logger_i.Logger
}

// New checks once whether store can rank by similarity.
func New(store kbModel.ChunkStore) *Retriever {
	r := &Retriever{
		store:  store,
		logger: logger_i.NewLogger("Retriever"),
	}
	if s, ok := store.(kbModel.Searcher); ok {
		r.searcher = s
	} else {
		r.logger.Warn("chunk store has no similarity search, retrieval will be unranked")
	}
	return r
}

// Retrieve returns up to topK hits. topK must be at least 1.
// A failing search degrades to an unranked sample without retrying. A failing sample
// and a dimension mismatch are returned as errors.
func (r *Retriever) Retrieve(ctx context.Context, vector []float32, topK int) (Result, error) {
	log := r.logger.With("traceId", config.TraceID(ctx))

	if r.searcher == nil {
		return r.sample(ctx, log, topK, "unsupported")
	}

	hits, err := r.searcher.SimilaritySearch(ctx, vector, topK)
	if errors.Is(err, kbModel.ErrDimensionMismatch) {
		log.Error("stored vectors do not match the query size", "err", err)
		return Result{}, err
	}
	if err != nil {
		reason := status.Code(err).String()
		log.Warn("similarity search unavailable, degrading to unranked sample", "reason", reason, "err", err)
		return r.sample(ctx, log, topK, reason)
	}
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return Result{Mode: Ranked, Hits: hits}, nil
}

func (r *Retriever) sample(ctx context.Context, log *logger_i.Logger, topK int, reason string) (Result, error) {
	metrics.IncrementDegradedRetrievals(reason)

	chunks, err := r.store.Sample(ctx, topK)
	if err != nil {
		log.Error("unranked sample failed", "err", err)
		return Result{}, fmt.Errorf("sampling chunks: %w", err)
	}
	if len(chunks) > topK {
		chunks = chunks[:topK]
	}

	hits := make([]kbModel.ScoredChunk, len(chunks))
	for i, c := range chunks {
		hits[i] = kbModel.ScoredChunk{Chunk: c}
	}
	return Result{Mode: Unranked, Hits: hits}, nil
}
