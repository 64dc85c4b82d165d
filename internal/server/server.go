package server

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/akolanti/KnowledgeBase/internal/adapter/utils"
	"github.com/akolanti/KnowledgeBase/internal/config"
	"github.com/akolanti/KnowledgeBase/internal/handlers"
	"github.com/akolanti/KnowledgeBase/internal/middleware"
	"github.com/akolanti/KnowledgeBase/internal/worker"
	"github.com/akolanti/KnowledgeBase/pkg/logger_i"
	"github.com/go-chi/chi/v5"
)

type Server struct {
	server *http.Server
	cfg    config.ServerConfig
	logger *logger_i.Logger
}

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
	Pool             *worker.Pool
	CloseServices    func()
}

// NewRouter mounts every route behind the middleware chain. mcpHandler may be nil.
func NewRouter(h *handlers.Handlers, m *middleware.Middleware, mcpHandler http.Handler) *chi.Mux {
	r := utils.NewRouter(m.CORS()).Router

	r.Get("/health", m.WrapPublic(h.Health))

	r.Post("/upload", m.Wrap(h.Upload))
	r.Get("/documents", m.Wrap(h.ListDocuments))
	r.Delete("/documents/{id}", m.Wrap(h.DeleteDocument))
	r.Post("/ask", m.Wrap(h.Ask))
	r.Get("/stats", m.Wrap(h.Stats))

	r.Post("/chat", m.Wrap(h.Chat))
	r.Get("/chat/{id}/history", m.Wrap(h.ChatHistory))
	r.Get("/status/{id}", m.Wrap(h.Status))
	r.Post("/ingest", m.Wrap(h.Ingest))

	if mcpHandler != nil {
		r.Handle("/mcp", m.WrapHandler(mcpHandler))
	}
	return r
}

func New(cfg config.ServerConfig, handler http.Handler) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = config.ShutdownContextTimeout
	}
	return &Server{
		server: &http.Server{
			Addr:         cfg.ListenAddr,
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		cfg:    cfg,
		logger: logger_i.NewLogger("Server"),
	}
}

// Start blocks until the server stops. A graceful shutdown is not an error.
func (s *Server) Start() error {
	s.logger.Info("Server is listening at", "address", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("Server crashed", "err", err, "addr", s.server.Addr)
		return err
	}
	return nil
}

// ShutDownHandler waits for a signal, drains HTTP traffic, stops the workers
// and closes external services, in that order.
func (s *Server) ShutDownHandler(shutdownParams ShutdownParams) {
	state := <-shutdownParams.GracefulShutdown
	s.logger.Info("Server is shutting down", "signal", state.String())

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		s.server.SetKeepAlivesEnabled(false)

		if err := s.server.Shutdown(ctx); err != nil {
			s.logger.Error("Could not shutdown gracefully", "err", err)
		}

		if shutdownParams.Pool != nil {
			shutdownParams.Pool.Stop()
		}
		if shutdownParams.CloseServices != nil {
			shutdownParams.CloseServices()
		}
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Shut down gracefully")
		close(shutdownParams.StopExecution)
	case <-ctx.Done():
		s.logger.Error("Force shut down")
		os.Exit(1)
	}
}
