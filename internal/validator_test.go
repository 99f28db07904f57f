package internal

import (
	"encoding/json"
	"testing"

	"github.com/lychee-technology/filterform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestValidateConfigAcceptsConformingPayload passes a payload that satisfies
// the schema.
func TestValidateConfigAcceptsConformingPayload(t *testing.T) {
	var schema filterform.SchemaNode
	require.NoError(t, json.Unmarshal([]byte(rateLimitSchema), &schema))

	config := map[string]any{
		"statPrefix": "rl",
		"tokenBucket": map[string]any{
			"maxTokens": 100,
		},
	}
	assert.NoError(t, ValidateConfig(&schema, config))
}

// TestValidateConfigRejectsViolations surfaces missing required fields, type
// mismatches and bound violations as validation errors.
func TestValidateConfigRejectsViolations(t *testing.T) {
	var schema filterform.SchemaNode
	require.NoError(t, json.Unmarshal([]byte(rateLimitSchema), &schema))

	cases := []struct {
		name   string
		config map[string]any
	}{
		{"missing required", map[string]any{"statPrefix": "rl"}},
		{"wrong type", map[string]any{
			"statPrefix":  "rl",
			"tokenBucket": map[string]any{"maxTokens": "many"},
		}},
		{"below minimum", map[string]any{
			"statPrefix":  "rl",
			"tokenBucket": map[string]any{"maxTokens": 0},
		}},
		{"enum violation", map[string]any{
			"statPrefix":  "rl",
			"tokenBucket": map[string]any{"maxTokens": 1},
			"mode":        "audit",
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateConfig(&schema, tc.config)
			require.Error(t, err)
			assert.True(t, filterform.IsValidationError(err))
		})
	}
}

// TestValidateConfigNilSchema validates nothing.
func TestValidateConfigNilSchema(t *testing.T) {
	assert.NoError(t, ValidateConfig(nil, map[string]any{"anything": true}))
}
