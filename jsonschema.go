package filterform

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Schema type names accepted in filter configuration schemas.
const (
	SchemaTypeString  = "string"
	SchemaTypeNumber  = "number"
	SchemaTypeInteger = "integer"
	SchemaTypeBoolean = "boolean"
	SchemaTypeObject  = "object"
	SchemaTypeArray   = "array"
)

// SchemaNode is a node in the restricted JSON Schema subset used to describe
// filter configurations. Only the keywords the form compiler understands are
// modeled; anything else in a source document is ignored on unmarshal.
type SchemaNode struct {
	Type        string                 `json:"type,omitempty"`
	Title       string                 `json:"title,omitempty"`
	Description string                 `json:"description,omitempty"`
	Format      string                 `json:"format,omitempty"`
	Properties  map[string]*SchemaNode `json:"properties,omitempty"`
	Items       *SchemaNode            `json:"items,omitempty"`
	Required    []string               `json:"required,omitempty"`
	Enum        []any                  `json:"enum,omitempty"`
	Const       any                    `json:"const,omitempty"`
	Default     any                    `json:"default,omitempty"`
	Minimum     *float64               `json:"minimum,omitempty"`
	Maximum     *float64               `json:"maximum,omitempty"`
	MinLength   *int                   `json:"minLength,omitempty"`
	MaxLength   *int                   `json:"maxLength,omitempty"`
	Pattern     string                 `json:"pattern,omitempty"`

	// AdditionalProperties is non-nil when the node declares an
	// additionalProperties keyword, either as a boolean or as a schema.
	AdditionalProperties *AdditionalProperties `json:"additionalProperties,omitempty"`

	// propertyOrder records the declaration order of Properties keys as they
	// appeared in the source document. Empty for schemas built in Go code.
	propertyOrder []string
}

// AdditionalProperties models the additionalProperties keyword, which is
// either a boolean or a nested schema.
type AdditionalProperties struct {
	Allowed bool
	Schema  *SchemaNode
}

// UnmarshalJSON accepts both the boolean and the schema form.
func (a *AdditionalProperties) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		a.Allowed = b
		a.Schema = nil
		return nil
	}
	var node SchemaNode
	if err := json.Unmarshal(data, &node); err != nil {
		return fmt.Errorf("additionalProperties must be a boolean or a schema: %w", err)
	}
	a.Allowed = true
	a.Schema = &node
	return nil
}

// MarshalJSON emits the same form that was parsed.
func (a AdditionalProperties) MarshalJSON() ([]byte, error) {
	if a.Schema != nil {
		return json.Marshal(a.Schema)
	}
	return json.Marshal(a.Allowed)
}

// schemaNodeAlias avoids recursive UnmarshalJSON dispatch.
type schemaNodeAlias SchemaNode

// UnmarshalJSON decodes the node and additionally captures the declaration
// order of the properties object, which plain map decoding would lose.
func (s *SchemaNode) UnmarshalJSON(data []byte) error {
	var alias schemaNodeAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	*s = SchemaNode(alias)
	s.propertyOrder = nil

	if len(s.Properties) == 0 {
		return nil
	}

	var raw struct {
		Properties json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(data, &raw); err != nil || len(raw.Properties) == 0 {
		return nil
	}
	order, err := objectKeyOrder(raw.Properties)
	if err != nil {
		return nil
	}
	s.propertyOrder = order
	return nil
}

// objectKeyOrder scans a raw JSON object and returns its top-level keys in
// declaration order.
func objectKeyOrder(data json.RawMessage) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected JSON object")
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key")
		}
		keys = append(keys, key)

		if err := skipValue(dec); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// skipValue consumes one JSON value from the decoder, descending through
// nested objects and arrays.
func skipValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return nil
	}
	if delim == '{' || delim == '[' {
		depth := 1
		for depth > 0 {
			tok, err := dec.Token()
			if err != nil {
				return err
			}
			if d, ok := tok.(json.Delim); ok {
				switch d {
				case '{', '[':
					depth++
				case '}', ']':
					depth--
				}
			}
		}
	}
	return nil
}

// PropertyOrder returns the property keys in declaration order when the node
// was decoded from JSON, falling back to sorted order for schemas constructed
// directly in Go.
func (s *SchemaNode) PropertyOrder() []string {
	if len(s.propertyOrder) == len(s.Properties) {
		return s.propertyOrder
	}
	keys := make([]string, 0, len(s.Properties))
	for key := range s.Properties {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// SetPropertyOrder overrides the declaration order. Catalog loaders use this
// when schemas arrive from YAML where the order is recovered separately.
func (s *SchemaNode) SetPropertyOrder(order []string) {
	s.propertyOrder = order
}

// IsEnum reports whether the node declares an enumeration, either through
// enum values or a const.
func (s *SchemaNode) IsEnum() bool {
	return len(s.Enum) > 0 || s.Const != nil
}

// EnumValues returns the declared enumeration values, treating const as a
// single-value enum.
func (s *SchemaNode) EnumValues() []any {
	if len(s.Enum) > 0 {
		return s.Enum
	}
	if s.Const != nil {
		return []any{s.Const}
	}
	return nil
}

// IsRequired reports whether the named property is in the node's required set.
func (s *SchemaNode) IsRequired(property string) bool {
	for _, name := range s.Required {
		if name == property {
			return true
		}
	}
	return false
}

// Validate checks the structural invariants of the schema subset: every
// required name must refer to a declared property, and array nodes must carry
// an items schema. Validation recurses through properties and items.
func (s *SchemaNode) Validate() error {
	return s.validateAt("")
}

func (s *SchemaNode) validateAt(path string) error {
	if s == nil {
		return nil
	}
	switch s.Type {
	case SchemaTypeObject:
		for _, name := range s.Required {
			if _, ok := s.Properties[name]; !ok {
				return NewSchemaInvalidError(
					fmt.Sprintf("required property '%s' is not declared in properties", name)).
					WithField(joinPath(path, name))
			}
		}
		for name, child := range s.Properties {
			if err := child.validateAt(joinPath(path, name)); err != nil {
				return err
			}
		}
	case SchemaTypeArray:
		if s.Items == nil {
			return NewSchemaInvalidError("array schema is missing items").WithField(path)
		}
		if err := s.Items.validateAt(path + "[]"); err != nil {
			return err
		}
	}
	return nil
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}
