package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexiq-backend/internal/contracts"
)

func sampleAnalysis() contracts.Analysis {
	return contracts.Analysis{
		ID:       "a-1",
		FileName: "lease.pdf",
		Language: "English",
		Pages:    2,
		Clauses:  []contracts.IdentifiedClause{{Type: "Payment", Text: "Pay"}, {Type: "Liability", Text: "Liable"}},
		Risks: []contracts.RiskFinding{
			{Clause: "Pay within 5 days", Category: contracts.CategoryPaymentIssues, Explanation: "Short window.", Suggestion: "Use 30 days.", Severity: contracts.SeverityLow},
			{Clause: "Unlimited liability", Category: contracts.CategoryLiabilityConcerns, Explanation: "No cap.", Suggestion: "Cap it.", Severity: contracts.SeverityHigh},
		},
	}
}

func TestRenderOrdersBySeverity(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleAnalysis(), PlainStyles()))

	out := buf.String()
	assert.Contains(t, out, "Contract review: lease.pdf")
	assert.Contains(t, out, "2 clause(s)")
	assert.Contains(t, out, "- Payment: \"Pay\"")
	high := strings.Index(out, "HIGH (1)")
	low := strings.Index(out, "LOW (1)")
	require.NotEqual(t, -1, high)
	require.NotEqual(t, -1, low)
	assert.Less(t, high, low)
	assert.NotContains(t, out, "MEDIUM")
	assert.Contains(t, out, "[Liability Concerns] \"Unlimited liability\"")
	assert.Contains(t, out, "Suggest: Cap it.")
}

func TestRenderNoRisks(t *testing.T) {
	a := sampleAnalysis()
	a.Risks = []contracts.RiskFinding{}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, a, PlainStyles()))
	assert.Contains(t, buf.String(), "No risks identified.")
}

func TestQuoteTruncates(t *testing.T) {
	got := quote(strings.Repeat("word ", 100))
	assert.LessOrEqual(t, len([]rune(got)), 162)
	assert.True(t, strings.HasSuffix(got, "…\""))
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderJSON(&buf, sampleAnalysis()))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "a-1", got["analysisId"])
	assert.Len(t, got["risks"], 2)
}
