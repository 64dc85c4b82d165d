package openaiEmbedding

import (
	"context"
	"errors"
	"net/http"

	"github.com/akolanti/KnowledgeBase/internal/config"
	"github.com/akolanti/KnowledgeBase/internal/rag/embedding"
	"github.com/akolanti/KnowledgeBase/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type client struct {
	api        openai.Client
	model      string
	dimensions int
	logger     *logger_i.Logger
}

func NewOpenAIEmbedder(cfg config.EmbeddingConfig, httpClient *http.Client) (embedding.Embedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai embedding: missing API key")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	logger := logger_i.NewLogger("openai_embedding")
	logger.Info("OpenAI embedding client created", "model", cfg.Model, "dimensions", cfg.Dimensions)
	return &client{
		api:        openai.NewClient(opts...),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		logger:     logger,
	}, nil
}

func (c *client) Dimensions() int {
	return c.dimensions
}

func (c *client) Embed(ctx context.Context, text string) ([]float32, error) {
	log := c.logger.With("traceId", config.TraceID(ctx))

	resp, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:      openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model:      openai.EmbeddingModel(c.model),
		Dimensions: openai.Int(int64(c.dimensions)),
	})
	if err != nil {
		log.Error("Error getting Embeddings from OpenAI", "err", err)
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("openai embedding response was empty")
	}
	return embedding.ToFloat32(resp.Data[0].Embedding), nil
}
