// Package report renders a completed analysis for terminal output.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"lexiq-backend/internal/contracts"
)

// Styles holds the lipgloss styles used by Render.
type Styles struct {
	Title    lipgloss.Style
	Heading  lipgloss.Style
	Muted    lipgloss.Style
	Label    lipgloss.Style
	Severity map[contracts.Severity]lipgloss.Style
}

// DefaultStyles returns the colour palette used on terminals.
func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")),
		Heading: lipgloss.NewStyle().Bold(true).Underline(true),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")),
		Label:   lipgloss.NewStyle().Bold(true),
		Severity: map[contracts.Severity]lipgloss.Style{
			contracts.SeverityHigh:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F38BA8")),
			contracts.SeverityMedium: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F9E2AF")),
			contracts.SeverityLow:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A6E3A1")),
		},
	}
}

// PlainStyles renders without any escape sequences.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Title:   plain,
		Heading: plain,
		Muted:   plain,
		Label:   plain,
		Severity: map[contracts.Severity]lipgloss.Style{
			contracts.SeverityHigh:   plain,
			contracts.SeverityMedium: plain,
			contracts.SeverityLow:    plain,
		},
	}
}

// GroupBySeverity buckets findings by severity, keeping model order within a
// bucket.
func GroupBySeverity(risks []contracts.RiskFinding) map[contracts.Severity][]contracts.RiskFinding {
	out := make(map[contracts.Severity][]contracts.RiskFinding, len(contracts.Severities))
	for _, r := range risks {
		out[r.Severity] = append(out[r.Severity], r)
	}
	return out
}

// Render writes a human-readable summary of the analysis to w, most severe
// findings first.
func Render(w io.Writer, a contracts.Analysis, st Styles) error {
	var b strings.Builder

	b.WriteString(st.Title.Render("Contract review: "+a.FileName) + "\n")
	b.WriteString(st.Muted.Render(fmt.Sprintf("%s · %d page(s) · %d clause(s) · language %s",
		a.ID, a.Pages, len(a.Clauses), a.Language)) + "\n\n")

	if len(a.Clauses) > 0 {
		b.WriteString(st.Heading.Render("Clauses") + "\n")
		for _, c := range a.Clauses {
			fmt.Fprintf(&b, "- %s %s\n", st.Label.Render(c.Type+":"), quote(c.Text))
		}
		b.WriteString("\n")
	}

	if len(a.Risks) == 0 {
		b.WriteString("No risks identified.\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	groups := GroupBySeverity(a.Risks)
	for _, sev := range contracts.Severities {
		findings := groups[sev]
		if len(findings) == 0 {
			continue
		}
		b.WriteString(st.Heading.Render(fmt.Sprintf("%s (%d)", strings.ToUpper(string(sev)), len(findings))) + "\n")
		for i, f := range findings {
			badge := st.Severity[sev].Render("[" + string(f.Category) + "]")
			fmt.Fprintf(&b, "%d. %s %s\n", i+1, badge, quote(f.Clause))
			fmt.Fprintf(&b, "   %s %s\n", st.Label.Render("Why:"), f.Explanation)
			fmt.Fprintf(&b, "   %s %s\n", st.Label.Render("Suggest:"), f.Suggestion)
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderJSON writes the analysis as indented JSON.
func RenderJSON(w io.Writer, a contracts.Analysis) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(a)
}

func quote(clause string) string {
	clause = strings.Join(strings.Fields(clause), " ")
	const maxRunes = 160
	if r := []rune(clause); len(r) > maxRunes {
		clause = string(r[:maxRunes-1]) + "…"
	}
	return "\"" + clause + "\""
}
