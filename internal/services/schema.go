package services

import "strings"

// Schema types
const (
	TypeObject  = "object"
	TypeArray   = "array"
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
)

// Schema describes the structured output a [TextGenerator] must produce.
//
// It is the JSON Schema subset understood by both Ollama's format field and Gemini's responseSchema.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
	MinItems    *int               `json:"minItems,omitempty"`
	MaxItems    *int               `json:"maxItems,omitempty"`
	Minimum     *float64           `json:"minimum,omitempty"`
	Maximum     *float64           `json:"maximum,omitempty"`
}

// Ptr returns a pointer to v, for the optional bounds of a [Schema].
func Ptr[T any](v T) *T { return &v }

// geminiSchema returns a copy of s with OpenAPI-style upper case type names.
//
// Gemini encodes array bounds as strings (int64 in proto JSON), so they are rendered separately.
func (s *Schema) geminiSchema() map[string]any {
	if s == nil {
		return nil
	}
	out := map[string]any{"type": strings.ToUpper(s.Type)}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, p := range s.Properties {
			props[name] = p.geminiSchema()
		}
		out["properties"] = props
	}
	if s.Items != nil {
		out["items"] = s.Items.geminiSchema()
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	if s.MinItems != nil {
		out["minItems"] = *s.MinItems
	}
	if s.MaxItems != nil {
		out["maxItems"] = *s.MaxItems
	}
	if s.Minimum != nil {
		out["minimum"] = *s.Minimum
	}
	if s.Maximum != nil {
		out["maximum"] = *s.Maximum
	}
	return out
}
