package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/akolanti/KnowledgeBase/internal/api"
	"github.com/akolanti/KnowledgeBase/internal/config"
	"github.com/akolanti/KnowledgeBase/internal/data/store"
	"github.com/akolanti/KnowledgeBase/internal/domain/jobModel"
	"github.com/akolanti/KnowledgeBase/internal/domain/kbModel"
	"github.com/akolanti/KnowledgeBase/internal/handlers"
	"github.com/akolanti/KnowledgeBase/internal/job"
	"github.com/akolanti/KnowledgeBase/internal/middleware"
	"github.com/akolanti/KnowledgeBase/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockRAG stands in for the rag service. Unset hooks return zero values.
type MockRAG struct {
	OnAsk        func(ctx context.Context, question string, topK int) (kbModel.Answer, error)
	OnIngestFile func(ctx context.Context, filename string, path string) (kbModel.Document, error)
	OnDelete     func(ctx context.Context, id string) (int, error)
	Docs         []kbModel.Document
	StatsResult  kbModel.Stats
	ingestCalls  int
}

func (m *MockRAG) Ask(ctx context.Context, question string, topK int) (kbModel.Answer, error) {
	return m.OnAsk(ctx, question, topK)
}

func (m *MockRAG) IngestText(ctx context.Context, filename string, text string) (kbModel.Document, error) {
	return kbModel.Document{}, nil
}

func (m *MockRAG) IngestFile(ctx context.Context, filename string, path string) (kbModel.Document, error) {
	m.ingestCalls++
	defer os.Remove(path)
	return m.OnIngestFile(ctx, filename, path)
}

func (m *MockRAG) ListDocuments(ctx context.Context) ([]kbModel.Document, error) {
	return m.Docs, nil
}

func (m *MockRAG) DeleteDocument(ctx context.Context, id string) (int, error) {
	return m.OnDelete(ctx, id)
}

func (m *MockRAG) Stats(ctx context.Context) (kbModel.Stats, error) {
	return m.StatsResult, nil
}

func (m *MockRAG) ProcessRequest(ctx context.Context, j jobModel.Job) jobModel.Job { return j }

func (m *MockRAG) IngestDocument(ctx context.Context, j jobModel.Job) jobModel.Job { return j }

type fixture struct {
	router  http.Handler
	rag     *MockRAG
	jobs    *job.Service
	tempDir string
}

func newFixture(t *testing.T, ragService *MockRAG) fixture {
	t.Helper()
	tempDir := t.TempDir()
	cfg := config.ServerConfig{AuthToken: "secret", TempDir: tempDir, MaxUploadBytes: 1 << 20}

	jobs := job.InitJobService(job.ServiceConfig{
		JobChannel:        make(chan jobModel.Job, 10),
		DispatcherChannel: make(chan bool, 1),
		JobStore:          store.InitInMemoryJobStore(),
		MessageStore:      store.InitMessageStore(),
	})
	h := handlers.New(ragService, jobs, cfg)
	return fixture{
		router:  server.NewRouter(h, middleware.New(cfg), nil),
		rag:     ragService,
		jobs:    jobs,
		tempDir: tempDir,
	}
}

func (f fixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, target string, body any) *http.Request {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartRequest(t *testing.T, target, field, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth_IsPublic(t *testing.T) {
	f := newFixture(t, &MockRAG{})
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, api.HealthResponse{Status: "healthy", Service: "RAG Knowledge Base"}, decode[api.HealthResponse](t, rec))
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	f := newFixture(t, &MockRAG{})
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAsk(t *testing.T) {
	score := 0.91
	tests := []struct {
		name       string
		body       any
		answer     kbModel.Answer
		err        error
		wantCode   int
		wantDetail string
	}{
		{
			name: "ranked answer",
			body: api.AskRequest{Question: "What is the refund window?", TopK: 3},
			answer: kbModel.Answer{
				Answer:     "30 days [Source 1].",
				Sources:    []kbModel.Source{{Document: "policy.md", ChunkIndex: 0, Score: &score, Preview: "Refunds..."}},
				TokensUsed: 42,
			},
			wantCode: http.StatusOK,
		},
		{
			name:       "validation error",
			body:       api.AskRequest{Question: "  "},
			err:        fmt.Errorf("%w: question must not be empty", kbModel.ErrInvalidInput),
			wantCode:   http.StatusBadRequest,
			wantDetail: "invalid input: question must not be empty",
		},
		{
			name:       "synthesis failure hides details",
			body:       api.AskRequest{Question: "q"},
			err:        fmt.Errorf("%w: upstream 503 from provider", kbModel.ErrSynthesisFailed),
			wantCode:   http.StatusInternalServerError,
			wantDetail: "answer synthesis failed",
		},
		{
			name:     "malformed body",
			body:     "not an object",
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotTopK int
			f := newFixture(t, &MockRAG{OnAsk: func(_ context.Context, _ string, topK int) (kbModel.Answer, error) {
				gotTopK = topK
				return tt.answer, tt.err
			}})

			rec := f.do(t, jsonRequest(http.MethodPost, "/ask", tt.body))
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			if tt.wantCode == http.StatusOK {
				got := decode[api.AskResponse](t, rec)
				assert.Equal(t, tt.answer.Answer, got.Answer)
				assert.Equal(t, tt.answer.Sources, got.Sources)
				assert.Equal(t, 42, got.TokensUsed)
				assert.False(t, got.Degraded)
				assert.Equal(t, 3, gotTopK)
				return
			}
			if tt.wantDetail != "" {
				assert.Equal(t, tt.wantDetail, decode[api.ErrorResponse](t, rec).Detail)
			}
		})
	}
}

func TestAsk_EmptyStoreHasEmptySources(t *testing.T) {
	f := newFixture(t, &MockRAG{OnAsk: func(context.Context, string, int) (kbModel.Answer, error) {
		return kbModel.Answer{Answer: "no documents"}, nil
	}})
	rec := f.do(t, jsonRequest(http.MethodPost, "/ask", api.AskRequest{Question: "q"}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sources":[]`)
}

func TestUpload(t *testing.T) {
	t.Run("supported file is ingested", func(t *testing.T) {
		var gotName, gotContent string
		f := newFixture(t, &MockRAG{OnIngestFile: func(_ context.Context, filename string, path string) (kbModel.Document, error) {
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			gotName, gotContent = filename, string(data)
			return kbModel.Document{ID: "doc-1", Filename: filename, ChunkCount: 2}, nil
		}})

		rec := f.do(t, multipartRequest(t, "/upload", "file", "notes.md", "# Notes\nbody"))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		got := decode[api.UploadResponse](t, rec)
		assert.True(t, got.Success)
		assert.Equal(t, api.IngestResponse{DocumentId: "doc-1", Filename: "notes.md", ChunkCount: 2}, got.Document)
		assert.Equal(t, "notes.md", gotName)
		assert.Equal(t, "# Notes\nbody", gotContent)

		entries, err := os.ReadDir(f.tempDir)
		require.NoError(t, err)
		assert.Empty(t, entries, "upload must not outlive the request")
	})

	t.Run("unsupported type is rejected before ingestion", func(t *testing.T) {
		f := newFixture(t, &MockRAG{})
		rec := f.do(t, multipartRequest(t, "/upload", "file", "tool.exe", "MZ"))

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decode[api.ErrorResponse](t, rec).Detail, "unsupported file type")
		assert.Zero(t, f.rag.ingestCalls)
		entries, err := os.ReadDir(f.tempDir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("empty file", func(t *testing.T) {
		f := newFixture(t, &MockRAG{})
		rec := f.do(t, multipartRequest(t, "/upload", "file", "empty.txt", ""))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("embedding failure is a server error", func(t *testing.T) {
		f := newFixture(t, &MockRAG{OnIngestFile: func(context.Context, string, string) (kbModel.Document, error) {
			return kbModel.Document{}, fmt.Errorf("%w: timeout", kbModel.ErrEmbeddingFailed)
		}})
		rec := f.do(t, multipartRequest(t, "/upload", "file", "a.txt", "hello"))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "embedding failed", decode[api.ErrorResponse](t, rec).Detail)
	})
}

func TestDocuments(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	f := newFixture(t, &MockRAG{
		Docs: []kbModel.Document{{ID: "a", Filename: "a.md", ChunkCount: 3, CreatedAt: created}},
		OnDelete: func(_ context.Context, id string) (int, error) {
			if id != "a" {
				return 0, kbModel.ErrDocumentNotFound
			}
			return 3, nil
		},
		StatsResult: kbModel.Stats{TotalDocuments: 1, TotalChunks: 3, TotalTokens: 120, AvgChunksPerDoc: 3},
	})

	t.Run("list", func(t *testing.T) {
		rec := f.do(t, httptest.NewRequest(http.MethodGet, "/documents", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[api.DocumentsResponse](t, rec)
		assert.Equal(t, 1, got.Count)
		assert.Equal(t, "a.md", got.Documents[0].Filename)
		assert.True(t, got.Documents[0].CreatedAt.Equal(created))
	})

	t.Run("delete", func(t *testing.T) {
		rec := f.do(t, httptest.NewRequest(http.MethodDelete, "/documents/a", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, api.DeletedInfo{DocumentId: "a", ChunksRemoved: 3}, decode[api.DeleteResponse](t, rec).Deleted)
	})

	t.Run("delete unknown", func(t *testing.T) {
		rec := f.do(t, httptest.NewRequest(http.MethodDelete, "/documents/missing", nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "document not found", decode[api.ErrorResponse](t, rec).Detail)
	})

	t.Run("stats", func(t *testing.T) {
		rec := f.do(t, httptest.NewRequest(http.MethodGet, "/stats", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, f.rag.StatsResult, decode[api.StatsResponse](t, rec).Stats)
	})
}

func TestChatJobs(t *testing.T) {
	f := newFixture(t, &MockRAG{})

	rec := f.do(t, jsonRequest(http.MethodPost, "/chat", api.ChatRequest{Message: "hello", TopK: 2}))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	queued := decode[api.InitJobResponse](t, rec)
	require.NotEmpty(t, queued.Id)
	require.NotEmpty(t, queued.ChatId)
	assert.Equal(t, "status/"+queued.Id, queued.StatusURL)

	select {
	case j := <-f.jobs.JobChannel:
		assert.Equal(t, jobModel.JobTypeAsk, j.JobType)
		assert.Equal(t, "hello", j.JobPayload.Question)
		assert.Equal(t, 2, j.JobPayload.TopK)
		assert.NotEmpty(t, j.TraceId)
	default:
		t.Fatal("no job was queued")
	}

	t.Run("status of queued job", func(t *testing.T) {
		rec := f.do(t, httptest.NewRequest(http.MethodGet, "/status/"+queued.Id, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[api.JobResponse](t, rec)
		assert.Equal(t, string(jobModel.JobStatusQueued), got.Result.Status)
		assert.Nil(t, got.Error)
	})

	t.Run("history of new chat is empty", func(t *testing.T) {
		rec := f.do(t, httptest.NewRequest(http.MethodGet, "/chat/"+queued.ChatId+"/history", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[api.ChatHistoryResponse](t, rec)
		assert.Equal(t, queued.ChatId, got.ChatId)
		assert.Empty(t, got.Messages)
	})

	t.Run("unknown chat", func(t *testing.T) {
		rec := f.do(t, jsonRequest(http.MethodPost, "/chat", api.ChatRequest{Message: "hi", ChatID: "nope"}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = f.do(t, httptest.NewRequest(http.MethodGet, "/chat/nope/history", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("empty message", func(t *testing.T) {
		rec := f.do(t, jsonRequest(http.MethodPost, "/chat", api.ChatRequest{}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown job", func(t *testing.T) {
		rec := f.do(t, httptest.NewRequest(http.MethodGet, "/status/missing", nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Job not found", decode[api.JobResponse](t, rec).Error.Message)
	})
}

func TestIngestJob(t *testing.T) {
	f := newFixture(t, &MockRAG{})

	rec := f.do(t, multipartRequest(t, "/ingest", "document", "guide.txt", "plain text"))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	select {
	case j := <-f.jobs.JobChannel:
		assert.Equal(t, jobModel.JobTypeIngest, j.JobType)
		assert.Equal(t, "guide.txt", j.JobPayload.IngestFileName)
		assert.True(t, strings.HasPrefix(j.JobPayload.IngestPath, f.tempDir))
		data, err := os.ReadFile(j.JobPayload.IngestPath)
		require.NoError(t, err)
		assert.Equal(t, "plain text", string(data))
	default:
		t.Fatal("no job was queued")
	}

	t.Run("unsupported type", func(t *testing.T) {
		rec := f.do(t, multipartRequest(t, "/ingest", "document", "image.png", "png"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
