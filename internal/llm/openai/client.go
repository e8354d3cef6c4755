package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"lexiq-backend/internal/llm"
	"lexiq-backend/internal/shared/telemetry"
)

// Options configures an OpenAI-compatible Chat Completions client.
type Options struct {
	APIKey string
	Model  string
	// BaseURL overrides https://api.openai.com/v1 for compatible gateways.
	BaseURL string
	Timeout time.Duration
}

// Client implements llm.Client using OpenAI Chat Completions with a strict
// json_schema response format.
type Client struct {
	api   *goopenai.Client
	model string
}

// NewClient constructs a new OpenAI client.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	cfg := goopenai.DefaultConfig(opts.APIKey)
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		cfg.BaseURL = strings.TrimRight(base, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return &Client{
		api:   goopenai.NewClientWithConfig(cfg),
		model: opts.Model,
	}, nil
}

// Generate sends one chat completion and returns the message content as JSON.
// Safety settings have no Chat Completions equivalent and are ignored.
func (c *Client) Generate(ctx context.Context, req llm.Request) (json.RawMessage, error) {
	messages := BuildMessages(req)
	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:          c.model,
		Messages:       messages,
		ResponseFormat: responseFormat(req),
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("openai request: %w", ctxErr)
		}
		var apiErr *goopenai.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("openai error: status %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("openai request: %w", err)
	}

	telemetry.Info("llm.response", map[string]any{
		"provider":          "openai",
		"model":             c.model,
		"prompt":            req.Name,
		"prompt_hash":       PromptHash(messages),
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
		"total_tokens":      resp.Usage.TotalTokens,
		"duration_ms":       time.Since(start).Milliseconds(),
	})

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai response missing choices: %w", llm.ErrEmptyResponse)
	}
	choice := resp.Choices[0]
	if choice.FinishReason == goopenai.FinishReasonContentFilter || strings.TrimSpace(choice.Message.Refusal) != "" {
		return nil, fmt.Errorf("openai finish_reason=%s: %w", choice.FinishReason, llm.ErrBlocked)
	}
	content := strings.TrimSpace(choice.Message.Content)
	if content == "" {
		return nil, fmt.Errorf("openai response empty content: %w", llm.ErrEmptyResponse)
	}
	return json.RawMessage(content), nil
}

func responseFormat(req llm.Request) *goopenai.ChatCompletionResponseFormat {
	schema := req.Schema
	return &goopenai.ChatCompletionResponseFormat{
		Type: goopenai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &goopenai.ChatCompletionResponseFormatJSONSchema{
			Name:   req.Name,
			Schema: &schema,
			Strict: true,
		},
	}
}

var _ llm.Client = (*Client)(nil)
