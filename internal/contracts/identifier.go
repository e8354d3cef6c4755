package contracts

import (
	"context"
	"fmt"

	"lexiq-backend/internal/datauri"
	"lexiq-backend/internal/llm"
	"lexiq-backend/internal/shared/metrics"
)

// ClauseIdentifier asks the model to detect the document language and extract
// clauses by type.
type ClauseIdentifier struct {
	client llm.Client
	prompt llm.PromptDefinition
}

// NewClauseIdentifier binds the identify_clauses prompt to a client.
func NewClauseIdentifier(client llm.Client, prompts llm.Prompts) (*ClauseIdentifier, error) {
	def, err := prompts.Get(llm.PromptIdentifyClauses)
	if err != nil {
		return nil, err
	}
	if !def.Attachment {
		return nil, fmt.Errorf("prompt %s must take the document as an attachment", def.Name)
	}
	return &ClauseIdentifier{client: client, prompt: def}, nil
}

// Identify makes exactly one model call. The result is either fully schema
// conformant or an error wrapping ErrClauseIdentification.
func (ci *ClauseIdentifier) Identify(ctx context.Context, doc datauri.DataURI) (ClauseIdentification, error) {
	instruction, err := ci.prompt.Render(nil)
	if err != nil {
		return ClauseIdentification{}, fmt.Errorf("%w: %w", ErrClauseIdentification, err)
	}
	req := ci.prompt.Request(instruction, &llm.Document{MimeType: doc.MimeType, Data: doc.Encoded()})

	var out ClauseIdentification
	if err := generate(ctx, ci.client, req, &out, func() error { return out.Validate() }); err != nil {
		return ClauseIdentification{}, fmt.Errorf("%w: %w", ErrClauseIdentification, err)
	}
	if out.Clauses == nil {
		out.Clauses = []IdentifiedClause{}
	}
	return out, nil
}

// generate runs one schema-constrained call, decodes its output into out and
// applies validate. Typed validation failures count as schema mismatches.
func generate(ctx context.Context, client llm.Client, req llm.Request, out any, validate func() error) error {
	raw, err := client.Generate(ctx, req)
	if err == nil {
		err = llm.DecodeJSON(raw, req.Schema, out)
	}
	if err == nil {
		if verr := validate(); verr != nil {
			err = fmt.Errorf("%w: %w", llm.ErrSchemaMismatch, verr)
		}
	}
	metrics.IncLLMCall(req.Name, llm.Outcome(err))
	return err
}
