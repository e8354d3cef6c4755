package llm

import (
	"errors"
	"testing"

	"github.com/sashabaranov/go-openai/jsonschema"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: `{"a":1}`, want: `{"a":1}`},
		{name: "fenced", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "fence without tag", in: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "prose around", in: "Here you go: {\"a\":{\"b\":2}} hope it helps", want: `{"a":{"b":2}}`},
		{name: "no object", in: "sorry, I cannot help", want: ""},
		{name: "empty", in: "   ", want: ""},
		{
			name: "fence inside a string value",
			in:   "{\"text\":\"Use ```json {\\\"x\\\":1} ``` here\",\"n\":2}",
			want: "{\"text\":\"Use ```json {\\\"x\\\":1} ``` here\",\"n\":2}",
		},
		{name: "valid with whitespace", in: "\n  {\"a\":1}  \n", want: `{"a":1}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSON(tt.in); got != tt.want {
				t.Fatalf("ExtractJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	schema := jsonschema.Definition{
		Type:     jsonschema.Object,
		Required: []string{"severity"},
		Properties: map[string]jsonschema.Definition{
			"severity": {Type: jsonschema.String, Enum: []string{"low", "medium", "high"}},
		},
	}
	type out struct {
		Severity string `json:"severity"`
	}

	var ok out
	if err := DecodeJSON([]byte("```json\n{\"severity\":\"high\"}\n```"), schema, &ok); err != nil {
		t.Fatalf("expected valid output, got %v", err)
	}
	if ok.Severity != "high" {
		t.Fatalf("severity = %q", ok.Severity)
	}

	for _, raw := range []string{
		`{"severity":"HIGH"}`,
		`{"severity":"critical"}`,
		`{}`,
		`{"severity":}`,
		`no json here`,
	} {
		var got out
		err := DecodeJSON([]byte(raw), schema, &got)
		if !errors.Is(err, ErrSchemaMismatch) {
			t.Fatalf("DecodeJSON(%s) err = %v, want ErrSchemaMismatch", raw, err)
		}
	}
}

func TestOutcome(t *testing.T) {
	tests := map[string]error{
		"ok":              nil,
		"blocked":         ErrBlocked,
		"schema_mismatch": errors.Join(errors.New("ctx"), ErrSchemaMismatch),
		"not_configured":  ErrNotConfigured,
		"error":           errors.New("boom"),
	}
	for want, err := range tests {
		if got := Outcome(err); got != want {
			t.Fatalf("Outcome(%v) = %q, want %q", err, got, want)
		}
	}
}
