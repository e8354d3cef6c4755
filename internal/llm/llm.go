package llm

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// Client abstracts the hosted model: submit a structured prompt, get back JSON
// shaped by Request.Schema, or an error.
type Client interface {
	Generate(ctx context.Context, req Request) (json.RawMessage, error)
}

// Request is one schema-constrained model invocation.
type Request struct {
	// Name identifies the prompt for logs and metrics.
	Name        string
	Instruction string
	Document    *Document
	Schema      jsonschema.Definition
	Safety      []SafetySetting
}

// Document is an inline binary attachment sent alongside the instruction.
type Document struct {
	MimeType string
	// Data is the base64 payload without the data URI header.
	Data string
}

// SafetySetting is a provider-side content filter threshold. Providers that have
// no equivalent ignore it.
type SafetySetting struct {
	Category  string `yaml:"category"`
	Threshold string `yaml:"threshold"`
}

var (
	ErrNotConfigured  = errors.New("llm client not configured")
	ErrBlocked        = errors.New("llm response blocked by safety filter")
	ErrEmptyResponse  = errors.New("llm response empty")
	ErrSchemaMismatch = errors.New("llm output does not match schema")
)

// PlaceholderClient is used when no provider is configured.
type PlaceholderClient struct{}

// Generate returns ErrNotConfigured.
func (PlaceholderClient) Generate(ctx context.Context, req Request) (json.RawMessage, error) {
	_ = ctx
	_ = req
	return nil, ErrNotConfigured
}

// Outcome classifies a Generate error for metrics labels.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrBlocked):
		return "blocked"
	case errors.Is(err, ErrEmptyResponse):
		return "empty"
	case errors.Is(err, ErrSchemaMismatch):
		return "schema_mismatch"
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	default:
		return "error"
	}
}
