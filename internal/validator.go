package internal

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/lychee-technology/filterform"
)

// ValidateConfig validates an edited configuration object against a filter
// type's config schema. Called on explicit save, never per keystroke; the
// form itself only enforces structure, not value constraints like bounds and
// patterns, which the schema resolver handles here.
func ValidateConfig(schema *filterform.SchemaNode, config map[string]any) error {
	if schema == nil {
		return nil
	}

	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return filterform.NewInternalError("failed to marshal config schema for validation", err)
	}

	var resolvable jsonschema.Schema
	if err := json.Unmarshal(schemaBytes, &resolvable); err != nil {
		return filterform.NewSchemaInvalidError(
			fmt.Sprintf("config schema is not a valid JSON Schema: %v", err)).WithCause(err)
	}

	resolved, err := resolvable.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return filterform.NewSchemaInvalidError(
			fmt.Sprintf("failed to resolve config schema: %v", err)).WithCause(err)
	}

	// Round-trip through JSON so typed Go values (int, custom types) compare
	// the way wire data would.
	configBytes, err := json.Marshal(config)
	if err != nil {
		return filterform.NewInternalError("failed to marshal configuration for validation", err)
	}
	var normalized any
	if err := json.Unmarshal(configBytes, &normalized); err != nil {
		return filterform.NewInternalError("failed to normalize configuration for validation", err)
	}

	if err := resolved.Validate(normalized); err != nil {
		return filterform.NewValidationError("config", err.Error()).WithCause(err)
	}
	return nil
}
