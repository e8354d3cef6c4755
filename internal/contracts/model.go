package contracts

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// IdentifiedClause is one span of contract text attributed to a clause type.
// Several clauses may share a type.
type IdentifiedClause struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ClauseIdentification is the output of the clause identification stage.
type ClauseIdentification struct {
	Clauses  []IdentifiedClause `json:"clauses"`
	Language string             `json:"language"`
}

// RiskCategory is the closed set of risk categories.
type RiskCategory string

const (
	CategoryAmbiguousTerms      RiskCategory = "Ambiguous Terms"
	CategoryIndemnityRisk       RiskCategory = "Indemnity Risk"
	CategoryLiabilityConcerns   RiskCategory = "Liability Concerns"
	CategoryOneSidedClauses     RiskCategory = "One-sided Clauses"
	CategoryUnfairTermination   RiskCategory = "Unfair Termination"
	CategoryPaymentIssues       RiskCategory = "Payment Issues"
	CategoryConfidentialityGaps RiskCategory = "Confidentiality Gaps"
	CategoryOther               RiskCategory = "Other"
)

// RiskCategories lists every category in display order.
var RiskCategories = []RiskCategory{
	CategoryAmbiguousTerms,
	CategoryIndemnityRisk,
	CategoryLiabilityConcerns,
	CategoryOneSidedClauses,
	CategoryUnfairTermination,
	CategoryPaymentIssues,
	CategoryConfidentialityGaps,
	CategoryOther,
}

// Valid reports whether c is in the closed set. Matching is case-sensitive.
func (c RiskCategory) Valid() bool {
	for _, known := range RiskCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Severity is the closed set of risk severities.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Severities lists every severity from most to least severe.
var Severities = []Severity{SeverityHigh, SeverityMedium, SeverityLow}

// Valid reports whether s is in the closed set. Matching is case-sensitive.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	default:
		return false
	}
}

// RiskFinding is the assessment of one risky clause.
type RiskFinding struct {
	Clause      string       `json:"clause"`
	Category    RiskCategory `json:"riskCategory"`
	Explanation string       `json:"explanation"`
	Suggestion  string       `json:"suggestion"`
	Severity    Severity     `json:"severity"`
}

// RiskAssessment is the output of the risk assessment stage. An empty Risks list
// means no risk was found.
type RiskAssessment struct {
	Risks []RiskFinding `json:"riskAssessment"`
}

// AnalysisRequest is the inbound request: a PDF as a data URI and an optional
// display name.
type AnalysisRequest struct {
	DocumentData string `json:"documentData"`
	FileName     string `json:"fileName"`
}

// Analysis is a completed analysis. It is request-scoped and never stored.
type Analysis struct {
	ID          string             `json:"analysisId"`
	FileName    string             `json:"fileName"`
	Language    string             `json:"language"`
	Pages       int                `json:"pages"`
	Clauses     []IdentifiedClause `json:"clauses"`
	Risks       []RiskFinding      `json:"risks"`
	CompletedAt time.Time          `json:"completedAt"`
}

// Validate checks every clause carries a type and text.
func (r ClauseIdentification) Validate() error {
	var errs []error
	for i, c := range r.Clauses {
		if strings.TrimSpace(c.Type) == "" {
			errs = append(errs, fmt.Errorf("clauses[%d].type is required", i))
		}
		if strings.TrimSpace(c.Text) == "" {
			errs = append(errs, fmt.Errorf("clauses[%d].text is required", i))
		}
	}
	return errors.Join(errs...)
}

// Validate checks every finding is fully populated with values from the closed
// sets.
func (r RiskAssessment) Validate() error {
	var errs []error
	for i, f := range r.Risks {
		if err := f.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("riskAssessment[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Validate checks a single finding.
func (f RiskFinding) Validate() error {
	var errs []error
	if !f.Category.Valid() {
		errs = append(errs, fmt.Errorf("riskCategory %q is not allowed", f.Category))
	}
	if !f.Severity.Valid() {
		errs = append(errs, fmt.Errorf("severity %q is not allowed", f.Severity))
	}
	if strings.TrimSpace(f.Explanation) == "" {
		errs = append(errs, errors.New("explanation is required"))
	}
	if strings.TrimSpace(f.Suggestion) == "" {
		errs = append(errs, errors.New("suggestion is required"))
	}
	return errors.Join(errs...)
}
