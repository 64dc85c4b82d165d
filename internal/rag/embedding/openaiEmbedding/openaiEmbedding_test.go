package openaiEmbedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/akolanti/KnowledgeBase/internal/config"
)

func newTestEmbedder(t *testing.T, handler http.HandlerFunc) *client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.EmbeddingConfig{
		Model:      "text-embedding-3-small",
		Dimensions: 3,
		APIKey:     "test-key",
		BaseURL:    srv.URL + "/v1/",
	}
	e, err := NewOpenAIEmbedder(cfg, srv.Client())
	if err != nil {
		t.Fatalf("NewOpenAIEmbedder: %v", err)
	}
	return e.(*client)
}

func TestEmbed(t *testing.T) {
	var gotBody map[string]any
	e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/embeddings") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer key, got %q", r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","model":"text-embedding-3-small",
			"data":[{"object":"embedding","index":0,"embedding":[0.25,-0.5,1]}],
			"usage":{"prompt_tokens":2,"total_tokens":2}}`))
	})

	vec, err := e.Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	want := []float32{0.25, -0.5, 1}
	if len(vec) != len(want) {
		t.Fatalf("got %d dims, want %d", len(vec), len(want))
	}
	for i := range want {
		if vec[i] != want[i] {
			t.Errorf("vec[%d] = %v, want %v", i, vec[i], want[i])
		}
	}
	if gotBody["input"] != "hello world" || gotBody["dimensions"] != float64(3) {
		t.Errorf("unexpected request body %v", gotBody)
	}
	if e.Dimensions() != 3 {
		t.Errorf("Dimensions() = %d, want 3", e.Dimensions())
	}
}

func TestEmbed_ProviderError(t *testing.T) {
	e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad input","type":"invalid_request_error"}}`))
	})

	if _, err := e.Embed(context.Background(), "x"); err == nil {
		t.Fatal("expected provider error to be returned")
	}
}

func TestNewOpenAIEmbedder_MissingKey(t *testing.T) {
	if _, err := NewOpenAIEmbedder(config.EmbeddingConfig{Model: "m", Dimensions: 3}, http.DefaultClient); err == nil {
		t.Fatal("expected error without API key")
	}
}
