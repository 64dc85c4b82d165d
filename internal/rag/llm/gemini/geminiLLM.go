package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/akolanti/KnowledgeBase/internal/config"
	"github.com/akolanti/KnowledgeBase/internal/rag/llm"
	"github.com/akolanti/KnowledgeBase/pkg/logger_i"
	"google.golang.org/genai"
)

type llmClient struct {
	client      *genai.Client
	modelName   string
	temperature float32
	maxTokens   int32
	logger      *logger_i.Logger
}

// NewGeminiClient builds a synthesizer owned by the caller.
func NewGeminiClient(ctx context.Context, cfg config.LLMConfig, httpClient *http.Client) (llm.Synthesizer, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: missing API key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	modelName := cfg.Model
	if modelName == "" || modelName == config.DefaultLLMModel {
		modelName = config.GeminiModelName
	}

	logger := logger_i.NewLogger("llm_gemini")
	logger.Info("Gemini client created", "model", modelName)
	return &llmClient{
		client:      c,
		modelName:   modelName,
		temperature: cfg.Temperature,
		maxTokens:   int32(cfg.MaxTokens),
		logger:      logger,
	}, nil
}

func (c *llmClient) Synthesize(ctx context.Context, systemInstruction string, contextBlock string, question string) (llm.Completion, error) {
	log := c.logger.With("traceId", config.TraceID(ctx))

	temperature := c.temperature
	contentConfig := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemInstruction}},
		},
		Temperature:     &temperature,
		MaxOutputTokens: c.maxTokens,
	}

	result, err := c.client.Models.GenerateContent(ctx, c.modelName, genai.Text(llm.UserPrompt(contextBlock, question)), contentConfig)
	if err != nil {
		log.Error("Gemini generation failed", "err", err)
		return llm.Completion{}, err
	}

	text := result.Text()
	if text == "" {
		return llm.Completion{}, errors.New("gemini returned an empty answer")
	}

	completion := llm.Completion{Text: text}
	if result.UsageMetadata != nil {
		completion.TokensUsed = int(result.UsageMetadata.TotalTokenCount)
	}
	log.Debug("Gemini answer generated", "tokens", completion.TokensUsed)
	return completion, nil
}
