package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/namedex/internal/domain"
	"github.com/kailas-cloud/namedex/internal/metrics"
)

// Provider operation labels for metrics.
const (
	opEmbed    = "embed"
	opExtract  = "extract"
	opGenerate = "generate"
)

// keywordSystemPrompt steers the extraction call. Temperature 0 keeps the
// keyword set reproducible for identical queries.
const keywordSystemPrompt = "You are a keyword extraction assistant for a naming-convention " +
	"knowledge base. Extract up to 5 key terms from the user request, useful for searching " +
	"naming rules, glossary terms, and abbreviations. Reply with the terms only, " +
	"comma-separated, no explanations."

// Client is an LLM provider using the OpenAI-compatible API. It covers all
// three collaborator capabilities: embed, extractKeywords, and generate.
type Client struct {
	client         *openai.Client
	chatModel      string
	embeddingModel openai.EmbeddingModel
	dimensions     int
	provider       string
	logger         *zap.Logger
}

// Config holds the LLM provider settings.
type Config struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	EmbeddingModel string
	Dimensions     int
	Provider       string
	Logger         *zap.Logger
}

// NewClient creates an OpenAI-compatible LLM provider.
func NewClient(cfg *Config) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	provider := cfg.Provider
	if provider == "" {
		provider = "openai"
	}

	return &Client{
		client:         openai.NewClientWithConfig(clientCfg),
		chatModel:      cfg.ChatModel,
		embeddingModel: openai.EmbeddingModel(cfg.EmbeddingModel),
		dimensions:     cfg.Dimensions,
		provider:       provider,
		logger:         cfg.Logger,
	}
}

// Embed implements domain.Embedder.
func (c *Client) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	req := openai.EmbeddingRequest{
		Input:          []string{text},
		Model:          c.embeddingModel,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}
	if c.dimensions > 0 {
		req.Dimensions = c.dimensions
	}

	start := time.Now()
	resp, err := c.client.CreateEmbeddings(ctx, req)
	duration := time.Since(start)

	model := string(c.embeddingModel)
	if err != nil {
		c.countError(model, opEmbed, "api_error")
		return domain.EmbeddingResult{}, parseAPIError(err)
	}
	if len(resp.Data) == 0 {
		c.countError(model, opEmbed, "empty_response")
		return domain.EmbeddingResult{}, fmt.Errorf("empty embedding response: %w", domain.ErrLLMProviderError)
	}

	c.countSuccess(model, opEmbed, duration)
	c.countTokens(model, opEmbed, resp.Usage.PromptTokens, resp.Usage.TotalTokens)

	return domain.EmbeddingResult{
		Embedding:    resp.Data[0].Embedding,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

// ExtractKeywords implements domain.KeywordExtractor via a chat completion.
func (c *Client) ExtractKeywords(ctx context.Context, text string) ([]string, error) {
	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: keywordSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0,
	})
	duration := time.Since(start)

	if err != nil {
		c.countError(c.chatModel, opExtract, "api_error")
		return nil, parseAPIError(err)
	}
	if len(resp.Choices) == 0 {
		c.countError(c.chatModel, opExtract, "empty_response")
		return nil, fmt.Errorf("empty extraction response: %w", domain.ErrLLMProviderError)
	}

	c.countSuccess(c.chatModel, opExtract, duration)
	c.countTokens(c.chatModel, opExtract, resp.Usage.PromptTokens, resp.Usage.TotalTokens)

	return SplitKeywords(resp.Choices[0].Message.Content), nil
}

// Generate implements domain.Generator.
func (c *Client) Generate(ctx context.Context, system, user string) (domain.GenerationResult, error) {
	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.3,
	})
	duration := time.Since(start)

	if err != nil {
		c.countError(c.chatModel, opGenerate, "api_error")
		return domain.GenerationResult{}, parseAPIError(err)
	}
	if len(resp.Choices) == 0 {
		c.countError(c.chatModel, opGenerate, "empty_response")
		return domain.GenerationResult{}, fmt.Errorf("empty generation response: %w", domain.ErrLLMProviderError)
	}

	c.countSuccess(c.chatModel, opGenerate, duration)
	c.countTokens(c.chatModel, opGenerate, resp.Usage.PromptTokens, resp.Usage.TotalTokens)

	return domain.GenerationResult{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func (c *Client) countSuccess(model, op string, duration time.Duration) {
	metrics.LLMRequestsTotal.WithLabelValues(c.provider, model, op, "success").Inc()
	metrics.LLMRequestDuration.WithLabelValues(c.provider, model, op).Observe(duration.Seconds())
}

func (c *Client) countError(model, op, errType string) {
	metrics.LLMRequestsTotal.WithLabelValues(c.provider, model, op, "error").Inc()
	metrics.LLMErrorsTotal.WithLabelValues(c.provider, model, op, errType).Inc()
}

func (c *Client) countTokens(model, op string, prompt, total int) {
	if total > 0 {
		metrics.LLMTokensTotal.WithLabelValues(c.provider, model, op, "prompt").Add(float64(prompt))
		metrics.LLMTokensTotal.WithLabelValues(c.provider, model, op, "total").Add(float64(total))
	}
}

// SplitKeywords parses a comma-separated model reply into a keyword list.
func SplitKeywords(reply string) []string {
	parts := strings.Split(reply, ",")
	keywords := make([]string, 0, len(parts))
	for _, p := range parts {
		if k := strings.TrimSpace(p); k != "" {
			keywords = append(keywords, k)
		}
	}
	return keywords
}

// parseAPIError extracts a human-readable error from the API response.
// 429 maps to domain.ErrRateLimited so the orchestrator retries with backoff;
// everything else wraps domain.ErrLLMProviderError.
func parseAPIError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		wrap := wrapFor(reqErr.HTTPStatusCode)
		if detail := extractDetail(reqErr.Body); detail != "" {
			return fmt.Errorf("llm API error %d: %s: %w", reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("llm API error %d: %s: %w", reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("llm API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrapFor(apiErr.HTTPStatusCode))
	}

	return fmt.Errorf("llm request failed: %w", domain.ErrLLMProviderError)
}

func wrapFor(status int) error {
	if status == http.StatusTooManyRequests {
		return domain.ErrRateLimited
	}
	return domain.ErrLLMProviderError
}

// extractDetail extracts the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
