package langchain

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"

	"github.com/kailas-cloud/namedex/internal/domain"
	oait "github.com/kailas-cloud/namedex/internal/transport/openai"
)

// keywordSystemPrompt mirrors the openai provider prompt so switching drivers
// does not change extraction behavior.
const keywordSystemPrompt = "You are a keyword extraction assistant for a naming-convention " +
	"knowledge base. Extract up to 5 key terms from the user request, useful for searching " +
	"naming rules, glossary terms, and abbreviations. Reply with the terms only, " +
	"comma-separated, no explanations."

// Client is an alternative LLM provider built on langchaingo, for
// OpenAI-compatible local services. Selected with llm.driver: langchain.
type Client struct {
	model    llms.Model
	embedder embeddings.Embedder
	logger   *zap.Logger
}

// Config holds the langchain provider settings.
type Config struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	EmbeddingModel string
	Logger         *zap.Logger
}

// NewClient creates a langchaingo-backed LLM provider.
func NewClient(cfg *Config) (*Client, error) {
	token := cfg.APIKey
	if token == "" {
		// Local OpenAI-compatible services often require no authentication.
		token = "none"
	}

	opts := []lcopenai.Option{
		lcopenai.WithToken(token),
		lcopenai.WithModel(cfg.ChatModel),
		lcopenai.WithEmbeddingModel(cfg.EmbeddingModel),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, lcopenai.WithBaseURL(cfg.BaseURL))
	}

	model, err := lcopenai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create langchain client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(model, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("create langchain embedder: %w", err)
	}

	return &Client{model: model, embedder: embedder, logger: cfg.Logger}, nil
}

// Embed implements domain.Embedder. langchaingo does not expose token usage
// for embeddings, so usage fields stay zero.
func (c *Client) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	vecs, err := c.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w: %w", domain.ErrLLMProviderError, err)
	}
	if len(vecs) == 0 {
		return domain.EmbeddingResult{}, fmt.Errorf("empty embedding response: %w", domain.ErrLLMProviderError)
	}
	return domain.EmbeddingResult{Embedding: vecs[0]}, nil
}

// ExtractKeywords implements domain.KeywordExtractor.
func (c *Client) ExtractKeywords(ctx context.Context, text string) ([]string, error) {
	reply, err := c.generate(ctx, keywordSystemPrompt, text, 0)
	if err != nil {
		return nil, fmt.Errorf("extract keywords: %w", err)
	}
	return oait.SplitKeywords(reply), nil
}

// Generate implements domain.Generator.
func (c *Client) Generate(ctx context.Context, system, user string) (domain.GenerationResult, error) {
	reply, err := c.generate(ctx, system, user, 0.3)
	if err != nil {
		return domain.GenerationResult{}, fmt.Errorf("generate: %w", err)
	}
	return domain.GenerationResult{Text: reply}, nil
}

// HealthCheck implements domain.HealthChecker with a minimal embedding call.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.embedder.EmbedQuery(ctx, "health"); err != nil {
		return fmt.Errorf("llm health check: %w", err)
	}
	return nil
}

func (c *Client) generate(ctx context.Context, system, user string, temperature float64) (string, error) {
	content := []llms.MessageContent{
		{
			Role:  schema.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(system)},
		},
		{
			Role:  schema.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(user)},
		},
	}

	resp, err := c.model.GenerateContent(ctx, content, llms.WithTemperature(temperature))
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrLLMProviderError, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response: %w", domain.ErrLLMProviderError)
	}
	return resp.Choices[0].Content, nil
}
