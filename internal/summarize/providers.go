package summarize

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cenkalti/backoff/v5"
	"github.com/openai/openai-go/v3"
	openaiopt "github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"google.golang.org/genai"
)

// Provider names an LLM backend.
type Provider string

const (
	Anthropic Provider = "anthropic"
	OpenAI    Provider = "openai"
	Gemini    Provider = "gemini"
	None      Provider = "none"
)

// EnvKey returns the environment variable holding the provider's API key.
func (p Provider) EnvKey() string {
	switch p {
	case Anthropic:
		return "ANTHROPIC_API_KEY"
	case OpenAI:
		return "OPENAI_API_KEY"
	case Gemini:
		return "GEMINI_API_KEY"
	}
	return ""
}

// DefaultModel returns the model used when none is configured.
func (p Provider) DefaultModel() string {
	switch p {
	case Anthropic:
		return "claude-sonnet-4-20250514"
	case OpenAI:
		return "gpt-4o"
	case Gemini:
		return "gemini-2.5-flash"
	}
	return ""
}

// Client is a single-turn completion backend.
type Client interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// NewClient builds the provider's client. An empty apiKey yields
// ErrAPIKeyNotSet.
func NewClient(ctx context.Context, p Provider, apiKey, model string, maxTokens int) (Client, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}
	if model == "" {
		model = p.DefaultModel()
	}
	switch p {
	case Anthropic:
		return &anthropicClient{
			client:    anthropic.NewClient(anthropicopt.WithAPIKey(apiKey), anthropicopt.WithMaxRetries(0)),
			model:     model,
			maxTokens: int64(maxTokens),
		}, nil
	case OpenAI:
		return &openaiClient{
			client:    openai.NewClient(openaiopt.WithAPIKey(apiKey), openaiopt.WithMaxRetries(0)),
			model:     model,
			maxTokens: int64(maxTokens),
		}, nil
	case Gemini:
		cli, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
		if err != nil {
			return nil, fmt.Errorf("creating gemini client: %w", err)
		}
		return &geminiClient{client: cli, model: model, maxTokens: int32(maxTokens)}, nil
	}
	return nil, fmt.Errorf("unknown provider %q", p)
}

type anthropicClient struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

func (c *anthropicClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", classify(apiErr.StatusCode, err)
		}
		return "", err
	}
	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}

type openaiClient struct {
	client    openai.Client
	model     string
	maxTokens int64
}

func (c *openaiClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
		MaxTokens: openai.Int(c.maxTokens),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", classify(apiErr.StatusCode, err)
		}
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

type geminiClient struct {
	client    *genai.Client
	model     string
	maxTokens int32
}

func (c *geminiClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
			MaxOutputTokens:   c.maxTokens,
		})
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", classify(apiErr.Code, err)
		}
		return "", err
	}
	return resp.Text(), nil
}

// classify marks client errors other than rate limiting as permanent.
func classify(status int, err error) error {
	if status == http.StatusTooManyRequests || status >= http.StatusInternalServerError {
		return err
	}
	return backoff.Permanent(err)
}
