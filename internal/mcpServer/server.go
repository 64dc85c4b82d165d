// Package mcpServer exposes the knowledge base as Model Context Protocol tools.
package mcpServer

import (
	"context"
	"errors"
	"net/http"

	"github.com/akolanti/KnowledgeBase/internal/domain/kbModel"
	"github.com/akolanti/KnowledgeBase/pkg/logger_i"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const Version = "1.0.0"

var ErrMissingKnowledgeBase = errors.New("mcp: knowledge base service is required")

// KnowledgeBase is the part of the rag service the tools need.
type KnowledgeBase interface {
	Ask(ctx context.Context, question string, topK int) (kbModel.Answer, error)
	ListDocuments(ctx context.Context) ([]kbModel.Document, error)
	Stats(ctx context.Context) (kbModel.Stats, error)
}

type Server struct {
	kb     KnowledgeBase
	server *mcp.Server
	logger *logger_i.Logger
}

func NewServer(kb KnowledgeBase) (*Server, error) {
	if kb == nil {
		return nil, ErrMissingKnowledgeBase
	}

	s := &Server{
		kb: kb,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "knowledge-base",
			Version: Version,
		}, nil),
		logger: logger_i.NewLogger("MCP"),
	}
	s.registerTools()
	return s, nil
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("Serving MCP over stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Handler returns the streamable HTTP endpoint mounted at /mcp.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)
}
