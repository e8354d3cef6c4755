package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// fencedObjectPattern matches a JSON object inside a markdown code block.
var fencedObjectPattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\{.*\\})\\s*```")

// ExtractJSON returns the JSON object in a model response. Models sometimes wrap
// structured output in markdown fences or a sentence of prose even when a
// response schema is set.
func ExtractJSON(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}
	if json.Valid([]byte(content)) {
		return content
	}
	if m := fencedObjectPattern.FindStringSubmatch(content); len(m) > 1 {
		return m[1]
	}
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return ""
	}
	return content[start : end+1]
}

// DecodeJSON checks raw against schema and unmarshals it into out. Every failure
// wraps ErrSchemaMismatch.
func DecodeJSON(raw []byte, schema jsonschema.Definition, out any) error {
	obj := ExtractJSON(string(raw))
	if obj == "" {
		return fmt.Errorf("%w: no JSON object in response", ErrSchemaMismatch)
	}
	if !json.Valid([]byte(obj)) {
		return fmt.Errorf("%w: response is not valid JSON", ErrSchemaMismatch)
	}
	if err := jsonschema.VerifySchemaAndUnmarshal(schema, []byte(obj), out); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	return nil
}
