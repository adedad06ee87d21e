package groq

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/zigzig/talent-matcher/internal/ai"
)

const (
	Provider = "groq"

	DefaultBaseURL = "https://api.groq.com/openai/v1"
)

type chatModel interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Client is an OpenAI-compatible chat completions client pointed at Groq.
// One client serves every configured Groq model.
type Client struct {
	llm chatModel
}

func NewClient(apiKey, baseURL string) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("groq api key is required")
	}

	if baseURL = strings.TrimSpace(baseURL); baseURL == "" {
		baseURL = DefaultBaseURL
	}

	llm, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithBaseURL(baseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("create groq client: %w", err)
	}

	return &Client{llm: llm}, nil
}

// Model binds the client to a model name.
func (c *Client) Model(name string) *Generator {
	return &Generator{llm: c.llm, model: strings.TrimSpace(name)}
}

type Generator struct {
	llm   chatModel
	model string
}

func (g *Generator) Model() string { return g.model }

func (g *Generator) Provider() string { return Provider }

func (g *Generator) GenerateContent(ctx context.Context, req ai.Request) (string, error) {
	if g == nil || g.llm == nil {
		return "", errors.New("groq generator is not initialized")
	}
	if g.model == "" {
		return "", errors.New("groq model is not configured")
	}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	messages := make([]llms.MessageContent, 0, 2)
	if system := strings.TrimSpace(req.System); system != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, system))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, prompt))

	options := []llms.CallOption{
		llms.WithModel(g.model),
		llms.WithTemperature(req.Temperature),
	}
	if req.MaxTokens > 0 {
		options = append(options, llms.WithMaxTokens(req.MaxTokens))
	}
	if req.JSON {
		options = append(options, llms.WithJSONMode())
	}

	resp, err := g.llm.GenerateContent(ctx, messages, options...)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return "", errors.New("groq api returned no choices")
	}

	content := strings.TrimSpace(resp.Choices[0].Content)
	if content == "" {
		return "", errors.New("groq api returned empty response")
	}

	return content, nil
}
