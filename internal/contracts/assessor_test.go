package contracts

import (
	"context"
	"errors"
	"testing"

	"github.com/sashabaranov/go-openai/jsonschema"

	"lexiq-backend/internal/llm"
)

func TestNewRiskAssessorRejectsDriftedEnums(t *testing.T) {
	prompts := testPrompts(t)
	def := prompts[llm.PromptAssessRisk]

	items := *def.Schema.Properties["riskAssessment"].Items
	props := make(map[string]jsonschema.Definition, len(items.Properties))
	for k, v := range items.Properties {
		props[k] = v
	}
	sev := props["severity"]
	sev.Enum = []string{"low", "medium", "high", "critical"}
	props["severity"] = sev
	items.Properties = props

	list := def.Schema.Properties["riskAssessment"]
	list.Items = &items
	schemaProps := map[string]jsonschema.Definition{"riskAssessment": list}
	def.Schema.Properties = schemaProps

	drifted := llm.Prompts{llm.PromptAssessRisk: def}
	if _, err := NewRiskAssessor(newStubClient(nil), drifted); !errors.Is(err, errPromptSchemaNotClosed) {
		t.Fatalf("expected closed-set mismatch, got %v", err)
	}

	if _, err := NewRiskAssessor(newStubClient(nil), prompts); err != nil {
		t.Fatalf("default prompts should match closed sets: %v", err)
	}
}

func TestAssessRefusesEmptyText(t *testing.T) {
	client := newStubClient(nil)
	assessor, err := NewRiskAssessor(client, testPrompts(t))
	if err != nil {
		t.Fatalf("NewRiskAssessor: %v", err)
	}
	_, err = assessor.Assess(context.Background(), "   ", "English")
	if !errors.Is(err, ErrEmptyContractText) || !errors.Is(err, ErrRiskAssessment) {
		t.Fatalf("expected empty text error, got %v", err)
	}
	if len(client.requests) != 0 {
		t.Fatalf("expected no model call")
	}
}

func TestIdentifyReturnsEmptyListNotNil(t *testing.T) {
	client := newStubClient(map[string]stubResponse{
		llm.PromptIdentifyClauses: {raw: `{"language":"German","clauses":[]}`},
	})
	identifier, err := NewClauseIdentifier(client, testPrompts(t))
	if err != nil {
		t.Fatalf("NewClauseIdentifier: %v", err)
	}
	doc := mustParse(t, testPDFURI(1))
	got, err := identifier.Identify(context.Background(), doc)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if got.Clauses == nil || got.Language != "German" {
		t.Fatalf("unexpected result %#v", got)
	}
}

func TestNewClauseIdentifierRequiresPrompt(t *testing.T) {
	if _, err := NewClauseIdentifier(newStubClient(nil), llm.Prompts{}); err == nil {
		t.Fatalf("expected missing prompt error")
	}
}
