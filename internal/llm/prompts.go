package llm

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"
	"gopkg.in/yaml.v3"
)

const (
	PromptIdentifyClauses = "identify_clauses"
	PromptAssessRisk      = "assess_risk"
)

//go:embed prompts/*.yaml
var promptFiles embed.FS

var placeholderPattern = regexp.MustCompile(`\{\{([A-Z_]+)\}\}`)

// PromptDefinition is a fixed instruction template plus the output schema the
// model must satisfy. Definitions are data, loaded from YAML.
type PromptDefinition struct {
	Name         string                `yaml:"name"`
	Description  string                `yaml:"description"`
	Instruction  string                `yaml:"instruction"`
	Placeholders []string              `yaml:"placeholders"`
	Attachment   bool                  `yaml:"attachment"`
	Safety       []SafetySetting       `yaml:"safety"`
	Schema       jsonschema.Definition `yaml:"schema"`
}

// Prompts indexes validated prompt definitions by name.
type Prompts map[string]PromptDefinition

// DefaultPrompts loads the prompt definitions compiled into the binary.
func DefaultPrompts() (Prompts, error) {
	return LoadPrompts(promptFiles, "prompts")
}

// LoadPrompts decodes every *.yaml file under dir and validates it.
func LoadPrompts(fsys fs.FS, dir string) (Prompts, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read prompt dir: %w", err)
	}
	out := make(Prompts, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".yaml" {
			continue
		}
		raw, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read prompt %s: %w", entry.Name(), err)
		}
		var def PromptDefinition
		if err := yaml.Unmarshal(raw, &def); err != nil {
			return nil, fmt.Errorf("decode prompt %s: %w", entry.Name(), err)
		}
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("prompt %s: %w", entry.Name(), err)
		}
		if _, dup := out[def.Name]; dup {
			return nil, fmt.Errorf("prompt %s: duplicate name %q", entry.Name(), def.Name)
		}
		out[def.Name] = def
	}
	return out, nil
}

// Get returns the named definition.
func (p Prompts) Get(name string) (PromptDefinition, error) {
	def, ok := p[name]
	if !ok {
		return PromptDefinition{}, fmt.Errorf("prompt %q not defined", name)
	}
	return def, nil
}

// Validate checks the definition is usable: named, with an instruction whose
// placeholders match the declared list, and an object schema.
func (d PromptDefinition) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return errors.New("name is required")
	}
	if strings.TrimSpace(d.Instruction) == "" {
		return errors.New("instruction is required")
	}
	if d.Schema.Type != jsonschema.Object {
		return fmt.Errorf("schema root must be an object, got %q", d.Schema.Type)
	}
	if len(d.Schema.Required) == 0 {
		return errors.New("schema must declare required properties")
	}
	if err := checkSchema("schema", d.Schema); err != nil {
		return err
	}

	declared := make(map[string]bool, len(d.Placeholders))
	for _, p := range d.Placeholders {
		declared[p] = true
		if !strings.Contains(d.Instruction, "{{"+p+"}}") {
			return fmt.Errorf("placeholder %s is declared but unused", p)
		}
	}
	for _, m := range placeholderPattern.FindAllStringSubmatch(d.Instruction, -1) {
		if !declared[m[1]] {
			return fmt.Errorf("instruction uses undeclared placeholder %s", m[1])
		}
	}

	for i, s := range d.Safety {
		if strings.TrimSpace(s.Category) == "" || strings.TrimSpace(s.Threshold) == "" {
			return fmt.Errorf("safety[%d] requires category and threshold", i)
		}
	}
	return nil
}

// checkSchema walks the definition so that validation of model output never
// meets an array without an item schema.
func checkSchema(at string, def jsonschema.Definition) error {
	switch def.Type {
	case jsonschema.Object:
		for _, req := range def.Required {
			if _, ok := def.Properties[req]; !ok {
				return fmt.Errorf("%s requires undeclared property %q", at, req)
			}
		}
		for name, prop := range def.Properties {
			if err := checkSchema(at+"."+name, prop); err != nil {
				return err
			}
		}
	case jsonschema.Array:
		if def.Items == nil {
			return fmt.Errorf("%s is an array without items", at)
		}
		return checkSchema(at+"[]", *def.Items)
	case jsonschema.String, jsonschema.Number, jsonschema.Integer, jsonschema.Boolean:
	default:
		return fmt.Errorf("%s has unsupported type %q", at, def.Type)
	}
	return nil
}

// Render substitutes every declared placeholder. Missing values are an error.
func (d PromptDefinition) Render(values map[string]string) (string, error) {
	pairs := make([]string, 0, len(d.Placeholders)*2)
	var missing []string
	for _, p := range d.Placeholders {
		v, ok := values[p]
		if !ok {
			missing = append(missing, p)
			continue
		}
		pairs = append(pairs, "{{"+p+"}}", v)
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return "", fmt.Errorf("prompt %s: missing values for %s", d.Name, strings.Join(missing, ", "))
	}
	if len(pairs) == 0 {
		return d.Instruction, nil
	}
	return strings.NewReplacer(pairs...).Replace(d.Instruction), nil
}

// Request builds a Request for the rendered instruction.
func (d PromptDefinition) Request(instruction string, doc *Document) Request {
	return Request{
		Name:        d.Name,
		Instruction: instruction,
		Document:    doc,
		Schema:      d.Schema,
		Safety:      d.Safety,
	}
}
