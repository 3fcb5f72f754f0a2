package catalog

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Tool represents a pipeline tool published by the backend's tool library.
// Fields the client does not use are kept in raw and written back unchanged.
type Tool struct {
	ToolName    string      `json:"tool_name"`
	Description string      `json:"description"`
	Parameters  []Parameter `json:"parameters,omitempty"`

	raw json.RawMessage
}

type toolFields Tool

// UnmarshalJSON accepts any JSON object. Fields of an unexpected type are
// coerced and parameters that are not objects are dropped.
func (t *Tool) UnmarshalJSON(data []byte) error {
	var f struct {
		ToolName    json.RawMessage `json:"tool_name"`
		Description json.RawMessage `json:"description"`
		Parameters  json.RawMessage `json:"parameters"`
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*t = Tool{
		ToolName:    looseString(f.ToolName),
		Description: looseString(f.Description),
		Parameters:  looseParameters(f.Parameters),
		raw:         append(json.RawMessage(nil), data...),
	}
	return nil
}

func (t Tool) MarshalJSON() ([]byte, error) {
	if len(t.raw) > 0 {
		return t.raw, nil
	}
	return json.Marshal(toolFields(t))
}

// Parameter is a single declared input of a tool.
type Parameter struct {
	Name        string       `json:"name"`
	Type        string       `json:"type"` // "string", "integer", "float", "flag", "file", "directory", ...
	Description string       `json:"description"`
	Required    bool         `json:"required"`
	Default     DefaultValue `json:"default"`
	Multiple    bool         `json:"multiple"`
	Extensions  []string     `json:"extensions"`
	Options     []any        `json:"options,omitempty"` // allowed values, nil if unrestricted
}

// UnmarshalJSON decodes a parameter leniently: required and multiple take the
// truthiness of whatever the backend sent, and a bare string extension is
// read as a one-element list.
func (p *Parameter) UnmarshalJSON(data []byte) error {
	var f struct {
		Name        json.RawMessage `json:"name"`
		Type        json.RawMessage `json:"type"`
		Description json.RawMessage `json:"description"`
		Required    json.RawMessage `json:"required"`
		Default     DefaultValue    `json:"default"`
		Multiple    json.RawMessage `json:"multiple"`
		Extensions  json.RawMessage `json:"extensions"`
		Options     json.RawMessage `json:"options"`
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*p = Parameter{
		Name:        looseString(f.Name),
		Type:        looseString(f.Type),
		Description: looseString(f.Description),
		Required:    looseBool(f.Required),
		Default:     f.Default,
		Multiple:    looseBool(f.Multiple),
		Extensions:  looseStrings(f.Extensions),
	}
	if opts, ok := decodeLoose(f.Options).([]any); ok {
		p.Options = opts
	}
	return nil
}

func looseParameters(raw json.RawMessage) []Parameter {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil || elems == nil {
		return nil
	}
	out := make([]Parameter, 0, len(elems))
	for _, elem := range elems {
		if _, ok := decodeLoose(elem).(map[string]any); !ok {
			continue
		}
		var p Parameter
		if err := json.Unmarshal(elem, &p); err != nil {
			continue
		}
		out = append(out, p)
	}
	return out
}

// decodeLoose returns the generic JSON value of raw, or nil when raw is absent
// or invalid.
func decodeLoose(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

func looseString(raw json.RawMessage) string {
	switch x := decodeLoose(raw).(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return strings.TrimSpace(string(raw))
	}
}

func looseBool(raw json.RawMessage) bool {
	switch x := decodeLoose(raw).(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(x)); err == nil {
			return b
		}
		return x != ""
	default:
		return true
	}
}

func looseStrings(raw json.RawMessage) []string {
	switch x := decodeLoose(raw).(type) {
	case string:
		if x == "" {
			return nil
		}
		return []string{x}
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			switch v := item.(type) {
			case string:
				out = append(out, v)
			case float64:
				out = append(out, strconv.FormatFloat(v, 'f', -1, 64))
			}
		}
		return out
	default:
		return nil
	}
}

// DefaultValue is a parameter default normalised to a string.
// null, false, 0 and "" all decode to the empty string.
type DefaultValue string

func (d *DefaultValue) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*d = ""
	case string:
		*d = DefaultValue(x)
	case bool:
		if x {
			*d = "true"
		} else {
			*d = ""
		}
	case float64:
		if x == 0 {
			*d = ""
		} else {
			*d = DefaultValue(strconv.FormatFloat(x, 'f', -1, 64))
		}
	default:
		*d = DefaultValue(strings.TrimSpace(string(data)))
	}
	return nil
}

// ParameterDescriptor is the form-facing view of a Parameter with defaults applied.
type ParameterDescriptor struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Required    bool     `json:"required"`
	Default     string   `json:"default"`
	Multiple    bool     `json:"multiple"`
	Extensions  []string `json:"extensions"`
}

// Suggestion is the backend's recommendation for a free-text query.
// The payload is opaque; ToolName is filled when the backend names a tool.
type Suggestion struct {
	ToolName string `json:"tool_name,omitempty"`

	raw json.RawMessage
}

func (s *Suggestion) UnmarshalJSON(data []byte) error {
	s.raw = append(json.RawMessage(nil), data...)
	s.ToolName = ""

	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		s.ToolName = name
		return nil
	}

	var obj struct {
		ToolName string `json:"tool_name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	s.ToolName = obj.ToolName
	return nil
}

func (s Suggestion) MarshalJSON() ([]byte, error) {
	if len(s.raw) > 0 {
		return s.raw, nil
	}
	return json.Marshal(struct {
		ToolName string `json:"tool_name,omitempty"`
	}{s.ToolName})
}
