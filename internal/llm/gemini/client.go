package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai/jsonschema"
	"golang.org/x/oauth2"
	"google.golang.org/api/generativelanguage/v1beta"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"lexiq-backend/internal/llm"
	"lexiq-backend/internal/shared/telemetry"
)

// Options configures the Generative Language API client. Exactly one of APIKey
// or AccessToken is used; APIKey wins when both are set.
type Options struct {
	APIKey      string
	AccessToken string
	Model       string
	// Endpoint overrides https://generativelanguage.googleapis.com/.
	Endpoint string
	Timeout  time.Duration
}

// Client implements llm.Client on the Gemini generateContent method.
type Client struct {
	models  *generativelanguage.ModelsService
	model   string
	timeout time.Duration
}

// NewClient constructs a Gemini client.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	model := strings.TrimPrefix(strings.TrimSpace(opts.Model), "models/")
	if model == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for Gemini")
	}

	var clientOpts []option.ClientOption
	switch {
	case strings.TrimSpace(opts.APIKey) != "":
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	case strings.TrimSpace(opts.AccessToken) != "":
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.AccessToken, TokenType: "Bearer"})
		clientOpts = append(clientOpts, option.WithTokenSource(ts))
	default:
		return nil, fmt.Errorf("GEMINI_API_KEY or GEMINI_ACCESS_TOKEN is required")
	}
	if endpoint := strings.TrimSpace(opts.Endpoint); endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(strings.TrimRight(endpoint, "/")+"/"))
	}

	svc, err := generativelanguage.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("gemini service: %w", err)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{models: svc.Models, model: model, timeout: timeout}, nil
}

// Generate calls generateContent with a JSON response schema and returns the
// first candidate's text.
func (c *Client) Generate(ctx context.Context, req llm.Request) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.models.GenerateContent("models/"+c.model, BuildRequest(req)).Context(ctx).Do()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("gemini request: %w", ctxErr)
		}
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			return nil, fmt.Errorf("gemini error: status %d: %s", gerr.Code, gerr.Message)
		}
		return nil, fmt.Errorf("gemini request: %w", err)
	}

	fields := map[string]any{
		"provider":    "gemini",
		"model":       c.model,
		"prompt":      req.Name,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if u := resp.UsageMetadata; u != nil {
		fields["prompt_tokens"] = u.PromptTokenCount
		fields["completion_tokens"] = u.CandidatesTokenCount
		fields["total_tokens"] = u.TotalTokenCount
	}
	telemetry.Info("llm.response", fields)

	return responseText(resp)
}

// BuildRequest translates a request into a generateContent body.
func BuildRequest(req llm.Request) *generativelanguage.GenerateContentRequest {
	parts := []*generativelanguage.Part{{Text: req.Instruction}}
	if req.Document != nil {
		parts = append(parts, &generativelanguage.Part{
			InlineData: &generativelanguage.Blob{MimeType: req.Document.MimeType, Data: req.Document.Data},
		})
	}
	out := &generativelanguage.GenerateContentRequest{
		Contents: []*generativelanguage.Content{{Role: "user", Parts: parts}},
		GenerationConfig: &generativelanguage.GenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   ConvertSchema(req.Schema),
		},
	}
	for _, s := range req.Safety {
		out.SafetySettings = append(out.SafetySettings, &generativelanguage.SafetySetting{
			Category:  s.Category,
			Threshold: s.Threshold,
		})
	}
	return out
}

// ConvertSchema maps a JSON schema definition onto the OpenAPI subset the API
// accepts. additionalProperties has no counterpart and is dropped.
func ConvertSchema(def jsonschema.Definition) *generativelanguage.Schema {
	out := &generativelanguage.Schema{
		Type:        strings.ToUpper(string(def.Type)),
		Description: def.Description,
		Nullable:    def.Nullable,
		Required:    def.Required,
	}
	if len(def.Enum) > 0 {
		out.Enum = def.Enum
		out.Format = "enum"
	}
	if def.Items != nil {
		out.Items = ConvertSchema(*def.Items)
	}
	if len(def.Properties) > 0 {
		out.Properties = make(map[string]generativelanguage.Schema, len(def.Properties))
		for name, prop := range def.Properties {
			out.Properties[name] = *ConvertSchema(prop)
		}
	}
	return out
}

var blockedFinishReasons = map[string]bool{
	"SAFETY":             true,
	"BLOCKLIST":          true,
	"PROHIBITED_CONTENT": true,
	"SPII":               true,
	"RECITATION":         true,
}

func responseText(resp *generativelanguage.GenerateContentResponse) (json.RawMessage, error) {
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return nil, fmt.Errorf("gemini prompt block_reason=%s: %w", fb.BlockReason, llm.ErrBlocked)
	}
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("gemini response missing candidates: %w", llm.ErrEmptyResponse)
	}
	candidate := resp.Candidates[0]
	if blockedFinishReasons[candidate.FinishReason] {
		return nil, fmt.Errorf("gemini finish_reason=%s: %w", candidate.FinishReason, llm.ErrBlocked)
	}
	if candidate.Content == nil {
		return nil, fmt.Errorf("gemini candidate without content: %w", llm.ErrEmptyResponse)
	}
	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return nil, fmt.Errorf("gemini response empty content: %w", llm.ErrEmptyResponse)
	}
	return json.RawMessage(text), nil
}

var _ llm.Client = (*Client)(nil)
