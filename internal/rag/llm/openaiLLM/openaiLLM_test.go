package openaiLLM

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/akolanti/KnowledgeBase/internal/config"
)

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func TestSynthesize(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Paris, per geo.txt"}}],
			"usage":{"prompt_tokens":40,"completion_tokens":5,"total_tokens":45}}`))
	}))
	defer srv.Close()

	cfg := config.LLMConfig{Model: "gpt-4o-mini", APIKey: "k", BaseURL: srv.URL + "/v1/", Temperature: 0.7, MaxTokens: 1000}
	s, err := NewOpenAIClient(cfg, srv.Client())
	if err != nil {
		t.Fatal(err)
	}

	completion, err := s.Synthesize(context.Background(), "be grounded", "[Source 1: geo.txt]\nParis is the capital.", "What is the capital?")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if completion.Text != "Paris, per geo.txt" || completion.TokensUsed != 45 {
		t.Errorf("unexpected completion %+v", completion)
	}

	if got.Model != "gpt-4o-mini" || got.MaxTokens != 1000 {
		t.Errorf("unexpected request %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[0].Content != "be grounded" {
		t.Fatalf("system message missing: %+v", got.Messages)
	}
	if !strings.Contains(got.Messages[1].Content, "Question: What is the capital?") ||
		!strings.HasPrefix(got.Messages[1].Content, "Context:\n[Source 1: geo.txt]") {
		t.Errorf("user prompt not framed: %q", got.Messages[1].Content)
	}
}

func TestSynthesize_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid key"}}`))
	}))
	defer srv.Close()

	s, err := NewOpenAIClient(config.LLMConfig{Model: "m", APIKey: "k", BaseURL: srv.URL + "/v1/"}, srv.Client())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Synthesize(context.Background(), "sys", "ctx", "q"); err == nil {
		t.Fatal("expected synthesis failure")
	}
}
