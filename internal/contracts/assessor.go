package contracts

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"

	"lexiq-backend/internal/llm"
)

// DefaultLanguage is used when clause identification reports no language.
const DefaultLanguage = "English"

// RiskAssessor asks the model to categorize, explain and rate the risk in the
// identified clause text.
type RiskAssessor struct {
	client llm.Client
	prompt llm.PromptDefinition
}

// NewRiskAssessor binds the assess_risk prompt to a client. The prompt's enums
// must match RiskCategories and Severities exactly.
func NewRiskAssessor(client llm.Client, prompts llm.Prompts) (*RiskAssessor, error) {
	def, err := prompts.Get(llm.PromptAssessRisk)
	if err != nil {
		return nil, err
	}
	if err := checkRiskSchema(def.Schema); err != nil {
		return nil, fmt.Errorf("prompt %s: %w", def.Name, err)
	}
	return &RiskAssessor{client: client, prompt: def}, nil
}

// Assess makes exactly one model call. Empty contract text is refused locally.
// An empty risk list is a valid result.
func (ra *RiskAssessor) Assess(ctx context.Context, contractText, language string) (RiskAssessment, error) {
	if strings.TrimSpace(contractText) == "" {
		return RiskAssessment{}, fmt.Errorf("%w: %w", ErrRiskAssessment, ErrEmptyContractText)
	}
	if strings.TrimSpace(language) == "" {
		language = DefaultLanguage
	}
	instruction, err := ra.prompt.Render(map[string]string{
		"LANGUAGE":      strings.TrimSpace(language),
		"CONTRACT_TEXT": contractText,
	})
	if err != nil {
		return RiskAssessment{}, fmt.Errorf("%w: %w", ErrRiskAssessment, err)
	}

	var out RiskAssessment
	req := ra.prompt.Request(instruction, nil)
	if err := generate(ctx, ra.client, req, &out, func() error { return out.Validate() }); err != nil {
		return RiskAssessment{}, fmt.Errorf("%w: %w", ErrRiskAssessment, err)
	}
	if out.Risks == nil {
		out.Risks = []RiskFinding{}
	}
	return out, nil
}

// JoinClauses flattens clauses into the risk prompt's contract text, keeping
// their order and labelling each block with its type.
func JoinClauses(clauses []IdentifiedClause) string {
	blocks := make([]string, 0, len(clauses))
	for _, c := range clauses {
		blocks = append(blocks, "Clause Type: "+c.Type+"\nText: "+c.Text)
	}
	return strings.Join(blocks, "\n\n---\n\n")
}

func checkRiskSchema(schema jsonschema.Definition) error {
	list, ok := schema.Properties["riskAssessment"]
	if !ok || list.Items == nil {
		return fmt.Errorf("%w: riskAssessment items missing", errPromptSchemaNotClosed)
	}
	props := list.Items.Properties

	categories := make([]string, 0, len(RiskCategories))
	for _, c := range RiskCategories {
		categories = append(categories, string(c))
	}
	if !sameSet(props["riskCategory"].Enum, categories) {
		return fmt.Errorf("%w: riskCategory %v", errPromptSchemaNotClosed, props["riskCategory"].Enum)
	}

	severities := make([]string, 0, len(Severities))
	for _, s := range Severities {
		severities = append(severities, string(s))
	}
	if !sameSet(props["severity"].Enum, severities) {
		return fmt.Errorf("%w: severity %v", errPromptSchemaNotClosed, props["severity"].Enum)
	}
	return nil
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x := slices.Clone(a)
	y := slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(x, y)
}
