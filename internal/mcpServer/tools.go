package mcpServer

import (
	"context"

	"github.com/akolanti/KnowledgeBase/internal/config"
	"github.com/akolanti/KnowledgeBase/internal/domain/kbModel"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the ingested documents"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"number of chunks to retrieve (default 5)"`
}

type AskOutput struct {
	Answer     string           `json:"answer"`
	Sources    []kbModel.Source `json:"sources"`
	TokensUsed int              `json:"tokens_used"`
	Degraded   bool             `json:"degraded"`
	Cached     bool             `json:"cached"`
}

type ListDocumentsInput struct{}

type DocumentOutput struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	ChunkCount int    `json:"chunks_count"`
	CreatedAt  string `json:"created_at"`
}

type ListDocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

type StatsInput struct{}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_knowledge_base",
		Description: "Answer a question using only the documents in the knowledge base, with numbered sources",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List the documents ingested into the knowledge base",
	}, s.handleListDocuments)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "knowledge_base_stats",
		Description: "Document, chunk and token totals of the knowledge base",
	}, s.handleStats)
}

// tool calls have no HTTP middleware in front of them on stdio, so they get their own trace id
func traced(ctx context.Context) context.Context {
	if config.TraceID(ctx) != "" {
		return ctx
	}
	return config.WithTraceID(ctx, uuid.NewString())
}

func (s *Server) handleAsk(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	ctx = traced(ctx)
	answer, err := s.kb.Ask(ctx, input.Question, input.TopK)
	if err != nil {
		s.logger.Warn("ask tool failed", "traceId", config.TraceID(ctx), "err", err)
		return nil, AskOutput{}, err
	}

	sources := answer.Sources
	if sources == nil {
		sources = []kbModel.Source{}
	}
	return nil, AskOutput{
		Answer:     answer.Answer,
		Sources:    sources,
		TokensUsed: answer.TokensUsed,
		Degraded:   answer.Degraded,
		Cached:     answer.Cached,
	}, nil
}

func (s *Server) handleListDocuments(ctx context.Context, _ *mcp.CallToolRequest, _ ListDocumentsInput) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	docs, err := s.kb.ListDocuments(traced(ctx))
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}

	output := ListDocumentsOutput{
		Documents: make([]DocumentOutput, len(docs)),
		Count:     len(docs),
	}
	for i := range docs {
		output.Documents[i] = DocumentOutput{
			ID:         docs[i].ID,
			Filename:   docs[i].Filename,
			ChunkCount: docs[i].ChunkCount,
			CreatedAt:  docs[i].CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		}
	}
	return nil, output, nil
}

func (s *Server) handleStats(ctx context.Context, _ *mcp.CallToolRequest, _ StatsInput) (*mcp.CallToolResult, kbModel.Stats, error) {
	stats, err := s.kb.Stats(traced(ctx))
	if err != nil {
		return nil, kbModel.Stats{}, err
	}
	return nil, stats, nil
}
