package middleware

import (
	"net/http"
	"strconv"

	"github.com/akolanti/KnowledgeBase/internal/config"
	"github.com/akolanti/KnowledgeBase/internal/metrics"
	"github.com/akolanti/KnowledgeBase/pkg/logger_i"
	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
}

// Middleware runs every request through trace injection, bearer authentication,
// the optional per-IP rate limit and request metrics.
type Middleware struct {
	cfg     config.ServerConfig
	limiter *IPRateLimiter
	logger  *logger_i.Logger
}

func New(cfg config.ServerConfig) *Middleware {
	m := &Middleware{cfg: cfg, logger: logger_i.NewLogger("middleware")}
	if cfg.RateLimit {
		m.limiter = NewIPRateLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst)
	}
	if cfg.NoAuthBypass {
		m.logger.Warn("Authentication is disabled")
	}
	return m
}

// Wrap protects next with the full chain.
func (m *Middleware) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return m.wrap(next, true)
}

// WrapPublic skips authentication; used for the health probe.
func (m *Middleware) WrapPublic(next http.HandlerFunc) http.HandlerFunc {
	return m.wrap(next, false)
}

// WrapHandler adapts a plain http.Handler such as the MCP endpoint.
func (m *Middleware) WrapHandler(next http.Handler) http.HandlerFunc {
	return m.wrap(next.ServeHTTP, true)
}

func (m *Middleware) wrap(next http.HandlerFunc, auth bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		re := m.processRequest(requestResponseStruct{req: r, writer: rec}, auth)

		if !handleBadRequest(re) {
			metrics.HttpRequestsTotal.WithLabelValues(routeLabel(r), strconv.Itoa(rec.Status)).Inc()
			return
		}
		next(rec, re.req)

		metrics.HttpRequestsTotal.WithLabelValues(routeLabel(r), strconv.Itoa(rec.Status)).Inc()
	}
}

func (m *Middleware) processRequest(re requestResponseStruct, auth bool) requestResponseStruct {
	re.logger = m.logger
	re = injectTrace(re)
	if re.badRequest.isBadRequest {
		return re
	}
	re.logger.Debug("New request received", "method", re.req.Method, "path", re.req.URL.Path)

	if auth {
		re = m.authenticate(re)
		if re.badRequest.isBadRequest {
			return re
		}
	}
	if m.limiter != nil {
		re = m.rateLimiter(re)
	}
	return re
}

// routeLabel prefers the chi route pattern so path parameters do not explode the label set.
func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}
