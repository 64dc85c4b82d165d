package qdrantDB

import (
	"context"
	"errors"
	"testing"

	"github.com/akolanti/KnowledgeBase/internal/domain/kbModel"
	"github.com/akolanti/KnowledgeBase/internal/rag/vectorDB"
	"github.com/qdrant/go-client/qdrant"
)

func TestChunkPayloadRoundTrip(t *testing.T) {
	in := kbModel.Chunk{
		ID:           "7f1c2a9e-0000-4000-8000-000000000001",
		DocumentID:   "doc-1",
		DocumentName: "handbook.pdf",
		ChunkIndex:   4,
		Text:         "Employees accrue leave monthly.",
		TokenCount:   7,
	}

	out := chunkFromPayload(in.ID, qdrant.NewValueMap(chunkPayload(in)))
	if out.ID != in.ID || out.DocumentID != in.DocumentID || out.DocumentName != in.DocumentName ||
		out.ChunkIndex != in.ChunkIndex || out.Text != in.Text || out.TokenCount != in.TokenCount {
		t.Errorf("chunkFromPayload = %+v, want %+v", out, in)
	}
}

func TestChunkFromPayload_MissingFields(t *testing.T) {
	out := chunkFromPayload("id", map[string]*qdrant.Value{})
	if out.ID != "id" || out.Text != "" || out.ChunkIndex != 0 {
		t.Errorf("chunkFromPayload on empty payload = %+v", out)
	}
}

func TestAnswerPayload(t *testing.T) {
	score := 0.8123
	in := kbModel.Answer{
		Answer:     "Thirty days.",
		Sources:    []kbModel.Source{{Document: "policy.txt", ChunkIndex: 2, Score: &score, Preview: "Refunds..."}},
		TokensUsed: 42,
		Cached:     true,
	}

	payload, err := answerPayload(in)
	if err != nil {
		t.Fatal(err)
	}
	out, err := answerFromPayload(qdrant.NewValueMap(payload))
	if err != nil {
		t.Fatal(err)
	}
	if out.Cached {
		t.Error("cached flag should not be persisted")
	}
	if out.Answer != in.Answer || out.TokensUsed != 42 || len(out.Sources) != 1 || *out.Sources[0].Score != score {
		t.Errorf("answerFromPayload = %+v", out)
	}

	if _, err := answerFromPayload(map[string]*qdrant.Value{}); err == nil {
		t.Error("expected error for empty payload")
	}
}

func TestDocumentFilter(t *testing.T) {
	f := documentFilter("doc-9")
	if len(f.GetMust()) != 1 {
		t.Fatalf("filter has %d conditions", len(f.GetMust()))
	}
	field := f.GetMust()[0].GetField()
	if field.GetKey() != documentIdField || field.GetMatch().GetKeyword() != "doc-9" {
		t.Errorf("condition = %v", field)
	}
}

func TestSemanticCache_RefusesStaleGeneration(t *testing.T) {
	// the generation check runs before any call to qdrant, so no client is needed
	c := &SemanticCache{collection: "answer-cache", generation: 3}

	err := c.SaveToCache(context.Background(), "7f1c2a9e-0000-4000-8000-000000000002",
		[]float32{1, 0}, kbModel.Answer{Answer: "old"}, 2)
	if !errors.Is(err, vectorDB.ErrStaleAnswer) {
		t.Errorf("err = %v, want ErrStaleAnswer", err)
	}
	if c.Generation() != 3 {
		t.Errorf("generation = %d, want 3", c.Generation())
	}
}
