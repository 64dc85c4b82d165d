package customHttpClient

import (
	"net/http"

	"github.com/akolanti/KnowledgeBase/internal/config"
)

// NewClient returns the pooled client shared by the embedding and LLM providers,
// so repeated calls to the same host reuse connections.
func NewClient(cfg config.HTTPClientConfig) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = cfg.MaxIdleConns
	transport.MaxIdleConnsPerHost = cfg.MaxIdleConnsPerHost
	transport.IdleConnTimeout = cfg.IdleConnTimeout

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
	}
}
