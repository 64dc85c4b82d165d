package retriever

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/akolanti/KnowledgeBase/internal/domain/kbModel"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// sampleOnlyStore has no similarity search.
type sampleOnlyStore struct {
	chunks   []kbModel.Chunk
	OnSample func(ctx context.Context, limit int) ([]kbModel.Chunk, error)
}

func (m *sampleOnlyStore) UpsertChunks(ctx context.Context, chunks []kbModel.Chunk) error {
	return nil
}

func (m *sampleOnlyStore) Sample(ctx context.Context, limit int) ([]kbModel.Chunk, error) {
	if m.OnSample != nil {
		return m.OnSample(ctx, limit)
	}
	if limit > len(m.chunks) {
		limit = len(m.chunks)
	}
	return m.chunks[:limit], nil
}

func (m *sampleOnlyStore) ChunksByDocument(ctx context.Context, documentID string) ([]kbModel.Chunk, error) {
	return nil, nil
}

func (m *sampleOnlyStore) DeleteByDocument(ctx context.Context, documentID string) (int, error) {
	return 0, nil
}

func (m *sampleOnlyStore) CountChunks(ctx context.Context) (int, error) {
	return len(m.chunks), nil
}

type searchStore struct {
	sampleOnlyStore
	OnSearch func(ctx context.Context, vector []float32, topK int) ([]kbModel.ScoredChunk, error)
}

func (m *searchStore) SimilaritySearch(ctx context.Context, vector []float32, topK int) ([]kbModel.ScoredChunk, error) {
	return m.OnSearch(ctx, vector, topK)
}

func corpus(n int) []kbModel.Chunk {
	out := make([]kbModel.Chunk, n)
	for i := range out {
		out[i] = kbModel.Chunk{ID: fmt.Sprintf("c%d", i), DocumentName: "doc.txt", ChunkIndex: i, Text: fmt.Sprintf("text %d", i)}
	}
	return out
}

func score(v float64) *float64 { return &v }

func TestRetrieve_Ranked(t *testing.T) {
	store := &searchStore{
		sampleOnlyStore: sampleOnlyStore{chunks: corpus(3)},
		OnSearch: func(ctx context.Context, vector []float32, topK int) ([]kbModel.ScoredChunk, error) {
			return []kbModel.ScoredChunk{
				{Chunk: kbModel.Chunk{ID: "c2"}, Score: score(0.9)},
				{Chunk: kbModel.Chunk{ID: "c0"}, Score: score(0.4)},
			}, nil
		},
	}

	res, err := New(store).Retrieve(context.Background(), []float32{1}, 5)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if res.Mode != Ranked || res.Degraded() {
		t.Errorf("mode = %v, want ranked", res.Mode)
	}
	if len(res.Hits) != 2 || res.Hits[0].Chunk.ID != "c2" || res.Hits[1].Chunk.ID != "c0" {
		t.Errorf("rank order not preserved: %+v", res.Hits)
	}
}

func TestRetrieve_RankedEmptyIsNotDegraded(t *testing.T) {
	store := &searchStore{
		OnSearch: func(ctx context.Context, vector []float32, topK int) ([]kbModel.ScoredChunk, error) {
			return nil, nil
		},
	}
	res, err := New(store).Retrieve(context.Background(), []float32{1}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if res.Mode != Ranked || len(res.Hits) != 0 {
		t.Errorf("expected empty ranked result, got %v with %d hits", res.Mode, len(res.Hits))
	}
}

func TestRetrieve_Degraded(t *testing.T) {
	tests := []struct {
		name  string
		store kbModel.ChunkStore
	}{
		{
			name:  "store without search",
			store: &sampleOnlyStore{chunks: corpus(10)},
		},
		{
			name: "search unavailable",
			store: &searchStore{
				sampleOnlyStore: sampleOnlyStore{chunks: corpus(10)},
				OnSearch: func(ctx context.Context, vector []float32, topK int) ([]kbModel.ScoredChunk, error) {
					return nil, status.Error(codes.Unavailable, "connection refused")
				},
			},
		},
		{
			name: "search plain error",
			store: &searchStore{
				sampleOnlyStore: sampleOnlyStore{chunks: corpus(10)},
				OnSearch: func(ctx context.Context, vector []float32, topK int) ([]kbModel.ScoredChunk, error) {
					return nil, errors.New("index corrupted")
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := New(tt.store).Retrieve(context.Background(), []float32{1}, 4)
			if err != nil {
				t.Fatalf("degraded retrieval must not fail: %v", err)
			}
			if res.Mode != Unranked || !res.Degraded() {
				t.Errorf("mode = %v, want unranked", res.Mode)
			}
			if len(res.Hits) != 4 {
				t.Fatalf("got %d hits, want 4", len(res.Hits))
			}
			for i, h := range res.Hits {
				if h.Score != nil {
					t.Errorf("hit %d score = %v, want absent (nil)", i, *h.Score)
				}
				if h.Chunk.ID != fmt.Sprintf("c%d", i) {
					t.Errorf("hit %d = %s, sample order not stable", i, h.Chunk.ID)
				}
			}
		})
	}
}

func TestRetrieve_SampleFailureIsReturned(t *testing.T) {
	store := &sampleOnlyStore{
		OnSample: func(ctx context.Context, limit int) ([]kbModel.Chunk, error) {
			return nil, errors.New("storage offline")
		},
	}
	if _, err := New(store).Retrieve(context.Background(), []float32{1}, 3); err == nil {
		t.Fatal("expected error when the sample itself fails")
	}
}

func TestRetrieve_DimensionMismatchIsNotDegraded(t *testing.T) {
	store := &searchStore{
		sampleOnlyStore: sampleOnlyStore{chunks: corpus(3)},
		OnSearch: func(context.Context, []float32, int) ([]kbModel.ScoredChunk, error) {
			return nil, fmt.Errorf("chunk c0: %w", kbModel.ErrDimensionMismatch)
		},
	}

	result, err := New(store).Retrieve(context.Background(), []float32{1, 0}, 2)
	if !errors.Is(err, kbModel.ErrDimensionMismatch) {
		t.Fatalf("err = %v, want ErrDimensionMismatch", err)
	}
	if len(result.Hits) != 0 {
		t.Errorf("got %d hits from a failed search", len(result.Hits))
	}
}
