package filterform

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSchemaNodePropertyOrderFromJSON captures the declaration order of
// properties, which map iteration would otherwise scramble.
func TestSchemaNodePropertyOrderFromJSON(t *testing.T) {
	data := []byte(`{
		"type": "object",
		"properties": {
			"zulu": {"type": "string"},
			"alpha": {"type": "integer"},
			"mike": {"type": "boolean"}
		}
	}`)

	var node SchemaNode
	require.NoError(t, json.Unmarshal(data, &node))
	assert.Equal(t, []string{"zulu", "alpha", "mike"}, node.PropertyOrder())
}

// TestSchemaNodePropertyOrderFallback sorts keys for schemas built in Go.
func TestSchemaNodePropertyOrderFallback(t *testing.T) {
	node := SchemaNode{
		Type: SchemaTypeObject,
		Properties: map[string]*SchemaNode{
			"b": {Type: SchemaTypeString},
			"a": {Type: SchemaTypeString},
		},
	}
	assert.Equal(t, []string{"a", "b"}, node.PropertyOrder())
}

// TestAdditionalPropertiesForms accepts both the boolean and the schema form.
func TestAdditionalPropertiesForms(t *testing.T) {
	var node SchemaNode
	require.NoError(t, json.Unmarshal([]byte(`{"type": "object", "additionalProperties": false}`), &node))
	require.NotNil(t, node.AdditionalProperties)
	assert.False(t, node.AdditionalProperties.Allowed)
	assert.Nil(t, node.AdditionalProperties.Schema)

	require.NoError(t, json.Unmarshal([]byte(`{"type": "object", "additionalProperties": {"type": "string"}}`), &node))
	require.NotNil(t, node.AdditionalProperties)
	assert.True(t, node.AdditionalProperties.Allowed)
	require.NotNil(t, node.AdditionalProperties.Schema)
	assert.Equal(t, SchemaTypeString, node.AdditionalProperties.Schema.Type)
}

// TestSchemaNodeEnumAndConst treats const as a single-value enum.
func TestSchemaNodeEnumAndConst(t *testing.T) {
	enum := SchemaNode{Type: SchemaTypeString, Enum: []any{"a", "b"}}
	assert.True(t, enum.IsEnum())
	assert.Equal(t, []any{"a", "b"}, enum.EnumValues())

	constant := SchemaNode{Type: SchemaTypeString, Const: "fixed"}
	assert.True(t, constant.IsEnum())
	assert.Equal(t, []any{"fixed"}, constant.EnumValues())

	plain := SchemaNode{Type: SchemaTypeString}
	assert.False(t, plain.IsEnum())
}

// TestSchemaNodeValidate flags undeclared required names and item-less arrays,
// recursing into nested nodes.
func TestSchemaNodeValidate(t *testing.T) {
	valid := &SchemaNode{
		Type: SchemaTypeObject,
		Properties: map[string]*SchemaNode{
			"tags": {Type: SchemaTypeArray, Items: &SchemaNode{Type: SchemaTypeString}},
		},
		Required: []string{"tags"},
	}
	assert.NoError(t, valid.Validate())

	phantom := &SchemaNode{
		Type:       SchemaTypeObject,
		Properties: map[string]*SchemaNode{"a": {Type: SchemaTypeString}},
		Required:   []string{"b"},
	}
	assert.Error(t, phantom.Validate())

	nestedBadArray := &SchemaNode{
		Type: SchemaTypeObject,
		Properties: map[string]*SchemaNode{
			"inner": {
				Type: SchemaTypeObject,
				Properties: map[string]*SchemaNode{
					"list": {Type: SchemaTypeArray},
				},
			},
		},
	}
	assert.Error(t, nestedBadArray.Validate())
}

// TestSchemaNodeIsRequired checks the required-set membership helper.
func TestSchemaNodeIsRequired(t *testing.T) {
	node := SchemaNode{Required: []string{"statPrefix"}}
	assert.True(t, node.IsRequired("statPrefix"))
	assert.False(t, node.IsRequired("tokenBucket"))
}
