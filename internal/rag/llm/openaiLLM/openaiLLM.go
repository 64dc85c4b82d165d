package openaiLLM

import (
	"context"
	"errors"
	"net/http"

	"github.com/akolanti/KnowledgeBase/internal/config"
	"github.com/akolanti/KnowledgeBase/internal/rag/llm"
	"github.com/akolanti/KnowledgeBase/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type llmClient struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int64
	logger      *logger_i.Logger
}

func NewOpenAIClient(cfg config.LLMConfig, httpClient *http.Client) (llm.Synthesizer, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: missing API key")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	logger := logger_i.NewLogger("llm_openai")
	logger.Info("OpenAI chat client created", "model", cfg.Model)
	return &llmClient{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: float64(cfg.Temperature),
		maxTokens:   int64(cfg.MaxTokens),
		logger:      logger,
	}, nil
}

func (c *llmClient) Synthesize(ctx context.Context, systemInstruction string, contextBlock string, question string) (llm.Completion, error) {
	log := c.logger.With("traceId", config.TraceID(ctx))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemInstruction),
			openai.UserMessage(llm.UserPrompt(contextBlock, question)),
		},
		Model:       openai.ChatModel(c.model),
		Temperature: openai.Float(c.temperature),
		MaxTokens:   openai.Int(c.maxTokens),
	})
	if err != nil {
		log.Error("OpenAI chat completion failed", "err", err)
		return llm.Completion{}, err
	}
	if len(resp.Choices) == 0 {
		return llm.Completion{}, errors.New("openai returned no choices")
	}

	completion := llm.Completion{
		Text:       resp.Choices[0].Message.Content,
		TokensUsed: int(resp.Usage.TotalTokens),
	}
	log.Debug("OpenAI answer generated", "tokens", completion.TokensUsed)
	return completion, nil
}
