package rag_test

import (
	"context"
	"sync/atomic"

	"github.com/akolanti/KnowledgeBase/internal/domain/kbModel"
	"github.com/akolanti/KnowledgeBase/internal/rag/llm"
	"github.com/akolanti/KnowledgeBase/internal/rag/vectorDB"
)

// MockEmbedder implements embedding.Embedder. Call numbers start at 1.
type MockEmbedder struct {
	Dims    int
	calls   atomic.Int32
	OnEmbed func(ctx context.Context, call int32, text string) ([]float32, error)
}

func (m *MockEmbedder) Dimensions() int { return m.Dims }

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	call := m.calls.Add(1)
	if m.OnEmbed != nil {
		return m.OnEmbed(ctx, call, text)
	}
	vec := make([]float32, m.Dims)
	vec[0] = 1
	return vec, nil
}

// MockSynthesizer implements llm.Synthesizer and counts its calls.
type MockSynthesizer struct {
	calls        atomic.Int32
	OnSynthesize func(ctx context.Context, system, contextBlock, question string) (llm.Completion, error)
}

func (m *MockSynthesizer) Synthesize(ctx context.Context, system, contextBlock, question string) (llm.Completion, error) {
	m.calls.Add(1)
	if m.OnSynthesize != nil {
		return m.OnSynthesize(ctx, system, contextBlock, question)
	}
	return llm.Completion{Text: "mocked llm response", TokensUsed: 17}, nil
}

func (m *MockSynthesizer) Calls() int { return int(m.calls.Load()) }

// MockCache implements vectorDB.AnswerCache.
type MockCache struct {
	OnGetCachedAnswer func(ctx context.Context, vector []float32) (kbModel.Answer, bool, error)
	OnSaveToCache     func(ctx context.Context, id string, vector []float32, answer kbModel.Answer) error
	invalidations     atomic.Int32
}

func (m *MockCache) GetCachedAnswer(ctx context.Context, v []float32) (kbModel.Answer, bool, error) {
	if m.OnGetCachedAnswer != nil {
		return m.OnGetCachedAnswer(ctx, v)
	}
	return kbModel.Answer{}, false, nil
}

func (m *MockCache) SaveToCache(ctx context.Context, id string, v []float32, a kbModel.Answer, generation uint64) error {
	if generation != m.Generation() {
		return vectorDB.ErrStaleAnswer
	}
	if m.OnSaveToCache != nil {
		return m.OnSaveToCache(ctx, id, v, a)
	}
	return nil
}

func (m *MockCache) Invalidate(ctx context.Context) error {
	m.invalidations.Add(1)
	return nil
}

func (m *MockCache) Invalidations() int { return int(m.invalidations.Load()) }

func (m *MockCache) Generation() uint64 { return uint64(m.invalidations.Load()) }

// unsearchableStore hides the Searcher method of the wrapped store.
type unsearchableStore struct {
	kbModel.ChunkStore
}

// byteEncoding is a test vocabulary where each byte is a token.
type byteEncoding struct{}

func (byteEncoding) Encode(text string, _ []string, _ []string) []int {
	out := make([]int, len(text))
	for i := 0; i < len(text); i++ {
		out[i] = int(text[i])
	}
	return out
}

func (byteEncoding) Decode(tokens []int) string {
	b := make([]byte, len(tokens))
	for i, t := range tokens {
		b[i] = byte(t)
	}
	return string(b)
}
