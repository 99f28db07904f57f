package internal

import (
	"testing"

	"github.com/lychee-technology/filterform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rateLimitYAML = `name: local_rate_limit
display_name: Local Rate Limit
description: Token-bucket rate limiting applied by the proxy itself.
version: "1.2"
capabilities:
  attachment_points: [listener, route]
  per_route_behavior: full_config
config_schema:
  type: object
  properties:
    statPrefix:
      type: string
    tokenBucket:
      type: object
      properties:
        maxTokens:
          type: integer
          minimum: 1
        fillIntervalMs:
          type: integer
          default: 1000
      required: [maxTokens]
  required: [statPrefix, tokenBucket]
ui_hints:
  sections:
    - name: Limits
      fields: [tokenBucket.maxTokens, tokenBucket.fillIntervalMs]
`

// TestParseDefinitionYAML parses a complete YAML definition including the
// nested schema and hints.
func TestParseDefinitionYAML(t *testing.T) {
	info, err := ParseDefinition([]byte(rateLimitYAML), "local_rate_limit.yaml", filterform.SchemaSourceBuiltIn)
	require.NoError(t, err)

	assert.Equal(t, "local_rate_limit", info.Name)
	assert.Equal(t, "Local Rate Limit", info.DisplayName)
	assert.Equal(t, "1.2", info.Version)
	assert.Equal(t, filterform.PerRouteFullConfig, info.PerRouteBehavior)
	assert.Equal(t, filterform.SchemaSourceBuiltIn, info.Source)
	assert.ElementsMatch(t,
		[]filterform.AttachmentPoint{filterform.AttachmentListener, filterform.AttachmentRoute},
		info.AttachmentPoints)

	require.NotNil(t, info.ConfigSchema)
	assert.True(t, info.ConfigSchema.IsRequired("statPrefix"))
	bucket := info.ConfigSchema.Properties["tokenBucket"]
	require.NotNil(t, bucket)
	assert.EqualValues(t, 1000, bucket.Properties["fillIntervalMs"].Default)

	require.NotNil(t, info.UIHints)
	require.Len(t, info.UIHints.Sections, 1)
	assert.Equal(t, "Limits", info.UIHints.Sections[0].Name)
}

// TestParseDefinitionYAMLPreservesPropertyOrder keeps declaration order
// through the YAML node walk, which a map decode would scramble.
func TestParseDefinitionYAMLPreservesPropertyOrder(t *testing.T) {
	data := `name: ordered
display_name: Ordered
config_schema:
  type: object
  properties:
    zulu: {type: string}
    alpha: {type: string}
    mike: {type: string}
`
	info, err := ParseDefinition([]byte(data), "ordered.yaml", filterform.SchemaSourceCustom)
	require.NoError(t, err)
	assert.Equal(t, []string{"zulu", "alpha", "mike"}, info.ConfigSchema.PropertyOrder())
}

// TestParseDefinitionJSON accepts the JSON format by extension.
func TestParseDefinitionJSON(t *testing.T) {
	data := `{
		"name": "header_mutation",
		"displayName": "Header Mutation",
		"capabilities": {"perRouteBehavior": "disable_only"},
		"configSchema": {
			"type": "object",
			"properties": {"remove": {"type": "array", "items": {"type": "string"}}}
		}
	}`
	info, err := ParseDefinition([]byte(data), "header_mutation.json", filterform.SchemaSourceCustom)
	require.NoError(t, err)
	assert.Equal(t, "header_mutation", info.Name)
	assert.Equal(t, filterform.PerRouteDisableOnly, info.PerRouteBehavior)
}

// TestParseDefinitionDefaults fills version, attachment points and behavior
// when the file omits them.
func TestParseDefinitionDefaults(t *testing.T) {
	data := `name: minimal
display_name: Minimal
config_schema:
  type: object
  properties:
    enabled: {type: boolean}
`
	info, err := ParseDefinition([]byte(data), "minimal.yaml", filterform.SchemaSourceCustom)
	require.NoError(t, err)
	assert.Equal(t, "1.0", info.Version)
	assert.Equal(t, []filterform.AttachmentPoint{filterform.AttachmentRoute}, info.AttachmentPoints)
	assert.Equal(t, filterform.PerRouteFullConfig, info.PerRouteBehavior)
	assert.True(t, info.IsImplemented)
}

// TestParseDefinitionRejectsBrokenFiles covers the hard failure modes.
func TestParseDefinitionRejectsBrokenFiles(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"missing name", "display_name: X\nconfig_schema: {type: object}\n"},
		{"missing display name", "name: x\nconfig_schema: {type: object}\n"},
		{"missing schema", "name: x\ndisplay_name: X\n"},
		{"unknown behavior", "name: x\ndisplay_name: X\nconfig_schema: {type: object}\ncapabilities:\n  per_route_behavior: partial\n"},
		{"invalid schema", "name: x\ndisplay_name: X\nconfig_schema:\n  type: object\n  properties:\n    a: {type: string}\n  required: [b]\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseDefinition([]byte(tc.data), "broken.yaml", filterform.SchemaSourceCustom)
			assert.Error(t, err)
		})
	}
}
