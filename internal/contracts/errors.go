package contracts

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrTooLarge              = errors.New("document too large")
	ErrClauseIdentification  = errors.New("clause identification failed")
	ErrRiskAssessment        = errors.New("risk assessment failed")
	ErrEmptyContractText     = errors.New("contract text is empty")
	ErrNoClausesIdentified   = errors.New("no clauses identified")
	errPromptSchemaNotClosed = errors.New("prompt schema enum does not match the closed set")
)

// Kind classifies an analysis failure. Values double as HTTP error codes and
// metrics labels.
type Kind string

const (
	KindValidation           Kind = "validation_error"
	KindTooLarge             Kind = "payload_too_large"
	KindNoClauses            Kind = "no_clauses_identified"
	KindClauseIdentification Kind = "clause_identification_failed"
	KindAnalysisFailed       Kind = "analysis_failed"
)

// ClientFault reports whether the failure stems from the submitted document
// rather than the model or the service.
func (k Kind) ClientFault() bool {
	switch k {
	case KindValidation, KindTooLarge, KindNoClauses:
		return true
	default:
		return false
	}
}

const (
	MessageNoClauses            = "No clauses were identified in the document. The document might be empty, unreadable, or not a valid contract."
	MessageClauseIdentification = "Failed to identify clauses in the contract. Please ensure it is a valid PDF and try again."
	MessageAnalysisFailed       = "Failed to analyze the contract. Please ensure it is a valid PDF and try again."
)

// AnalysisError is the single failure surfaced by Service.Analyze. Message is
// safe to show to end users; Err carries the detail and is only logged.
type AnalysisError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AnalysisError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

func validationError(message string, err error) *AnalysisError {
	return &AnalysisError{Kind: KindValidation, Message: message, Err: fmt.Errorf("%w: %w", ErrInvalidInput, err)}
}

// OutcomeError is the failure variant of an Outcome.
type OutcomeError struct {
	Code    Kind   `json:"code"`
	Message string `json:"message"`
}

// Outcome holds exactly one of a completed analysis or a user-facing error.
type Outcome struct {
	Analysis *Analysis     `json:"analysis,omitempty"`
	Error    *OutcomeError `json:"error,omitempty"`
}

// NewOutcome folds the result of Analyze into an Outcome. Errors that are not
// an *AnalysisError collapse into the generic analysis failure.
func NewOutcome(analysis Analysis, err error) Outcome {
	if err == nil {
		a := analysis
		return Outcome{Analysis: &a}
	}
	var aerr *AnalysisError
	if errors.As(err, &aerr) {
		return Outcome{Error: &OutcomeError{Code: aerr.Kind, Message: aerr.Message}}
	}
	return Outcome{Error: &OutcomeError{Code: KindAnalysisFailed, Message: MessageAnalysisFailed}}
}

// Succeeded reports whether the outcome carries an analysis.
func (o Outcome) Succeeded() bool {
	return o.Analysis != nil
}
