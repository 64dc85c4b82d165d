package googleEmbedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/akolanti/KnowledgeBase/internal/config"
	"github.com/akolanti/KnowledgeBase/internal/rag/embedding"
	"github.com/akolanti/KnowledgeBase/pkg/logger_i"
	"google.golang.org/genai"
)

type client struct {
	genAi     *genai.Client
	model     string
	dimension int32
	logger    *logger_i.Logger
}

func NewGoogleEmbedder(ctx context.Context, cfg config.EmbeddingConfig, httpClient *http.Client) (embedding.Embedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("google embedding: missing API key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("creating google embedding client: %w", err)
	}

	model := cfg.Model
	if model == "" || model == config.DefaultEmbeddingModel {
		model = config.GoogleEmbeddingModel
	}

	logger := logger_i.NewLogger("google_embedding")
	logger.Info("Google Embedding client created", "model", model, "dimensions", cfg.Dimensions)
	return &client{
		genAi:     c,
		model:     model,
		dimension: int32(cfg.Dimensions),
		logger:    logger,
	}, nil
}

func (c *client) Dimensions() int {
	return int(c.dimension)
}

func (c *client) Embed(ctx context.Context, text string) ([]float32, error) {
	log := c.logger.With("traceId", config.TraceID(ctx))

	dimension := c.dimension
	result, err := c.genAi.Models.EmbedContent(ctx, c.model, genai.Text(text), &genai.EmbedContentConfig{
		OutputDimensionality: &dimension,
		TaskType:             "RETRIEVAL_DOCUMENT",
	})
	if err != nil {
		log.Error("Error getting Embeddings from Google", "err", err)
		return nil, err
	}
	if result == nil || len(result.Embeddings) == 0 || result.Embeddings[0] == nil {
		return nil, errors.New("google embedding response was empty")
	}
	return result.Embeddings[0].Values, nil
}
