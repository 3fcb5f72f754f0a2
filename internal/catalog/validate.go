package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const (
	integerPattern = `^\s*[-+]?\d+\s*$`
	floatPattern   = `^\s*[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?\s*$`
	flagPattern    = `^\s*(?i:true|false)\s*$`

	// schemaURL is an absolute in-memory location, so the compiler never
	// resolves it against the working directory.
	schemaURL = "mem:///parameters.json"
)

// ValidationError lists every problem found in a set of tool arguments.
type ValidationError struct {
	ToolName string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("parameter validation failed for %s: %s", e.ToolName, strings.Join(e.Problems, "; "))
}

// ValidateArguments checks form values against a tool's declared parameters
// before a run is submitted. Values that are null, false, zero or empty count
// as not supplied: a required parameter given one is missing, and an optional
// one is not checked further. Supplied values are checked with a JSON Schema
// derived from the parameters. Form strings are accepted for numeric and flag
// types; other types are only restricted by their options.
func ValidateArguments(t Tool, args map[string]any) error {
	var problems []string

	values, err := normalizeArgs(args)
	if err != nil {
		return &ValidationError{ToolName: t.ToolName, Problems: []string{err.Error()}}
	}

	present := make(map[string]any, len(values))
	for name, v := range values {
		if !isEmptyValue(v) {
			present[name] = v
		}
	}

	for _, p := range t.Parameters {
		if _, ok := present[p.Name]; p.Required && !ok {
			problems = append(problems, fmt.Sprintf("required parameter %q is missing", p.Name))
		}
	}

	if issue := validateAgainstSchema(present, ParameterSchema(t)); issue != "" {
		problems = append(problems, issue)
	}

	if len(problems) > 0 {
		return &ValidationError{ToolName: t.ToolName, Problems: problems}
	}
	return nil
}

// ParameterSchema derives a JSON Schema object describing a tool's arguments.
func ParameterSchema(t Tool) map[string]any {
	props := make(map[string]any, len(t.Parameters))
	for _, p := range t.Parameters {
		item := schemaForType(p.Type)
		if len(p.Options) > 0 {
			item["enum"] = p.Options
		}
		if p.Multiple {
			props[p.Name] = map[string]any{
				"anyOf": []any{
					item,
					map[string]any{"type": "array", "items": item},
				},
			}
			continue
		}
		props[p.Name] = item
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
	}
}

func schemaForType(paramType string) map[string]any {
	switch strings.ToLower(paramType) {
	case "integer", "int":
		return map[string]any{"anyOf": []any{
			map[string]any{"type": "integer"},
			map[string]any{"type": "string", "pattern": integerPattern},
		}}
	case "float", "number":
		return map[string]any{"anyOf": []any{
			map[string]any{"type": "number"},
			map[string]any{"type": "string", "pattern": floatPattern},
		}}
	case "flag", "boolean", "bool":
		return map[string]any{"anyOf": []any{
			map[string]any{"type": "boolean"},
			map[string]any{"type": "string", "pattern": flagPattern},
		}}
	default:
		return map[string]any{}
	}
}

func validateAgainstSchema(values map[string]any, schema map[string]any) string {
	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return fmt.Sprintf("invalid parameter schema: %v", err)
	}

	var schemaObj any
	if err := json.Unmarshal(schemaBytes, &schemaObj); err != nil {
		return fmt.Sprintf("schema unmarshal error: %v", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, schemaObj); err != nil {
		return fmt.Sprintf("schema compile error: %v", err)
	}
	sch, err := c.Compile(schemaURL)
	if err != nil {
		return fmt.Sprintf("schema compile error: %v", err)
	}

	var doc any = values
	if err := sch.Validate(doc); err != nil {
		return fmt.Sprintf("schema validation failed: %v", err)
	}
	return ""
}

// normalizeArgs round-trips caller values through JSON so the validator only
// sees JSON-decoded types.
func normalizeArgs(args map[string]any) (map[string]any, error) {
	if len(args) == 0 {
		return map[string]any{}, nil
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("arguments are not valid JSON: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("arguments are not valid JSON: %w", err)
	}
	return out, nil
}

func isEmptyValue(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	case float64:
		return x == 0
	case []any:
		return len(x) == 0
	default:
		return false
	}
}
