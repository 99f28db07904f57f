package filterform

// DefaultValue produces a schema-conformant default for a node. Rules, in
// priority order: an explicit default wins; enums take their first declared
// value; primitives take their zero value; objects contain defaults for
// required properties only, leaving optional ones for the form to show empty;
// arrays start empty, with items generated on demand from the item schema
// when a row is added.
//
// The required-only treatment of objects keeps generated configurations
// minimal while still satisfying the schema's required invariants the moment
// an optional nested object is first instantiated.
func DefaultValue(node *SchemaNode) any {
	if node == nil {
		return nil
	}
	if node.Default != nil {
		return node.Default
	}
	if node.IsEnum() {
		values := node.EnumValues()
		if len(values) > 0 {
			return values[0]
		}
		return nil
	}

	switch node.Type {
	case SchemaTypeString:
		return ""
	case SchemaTypeNumber:
		return float64(0)
	case SchemaTypeInteger:
		// Generated values round-trip through JSON on save and reload, which
		// decodes all numbers as float64. Starting there keeps a field's value
		// type stable across the cycle.
		return float64(0)
	case SchemaTypeBoolean:
		return false
	case SchemaTypeObject:
		obj := make(map[string]any, len(node.Required))
		for _, name := range node.Required {
			if child, ok := node.Properties[name]; ok {
				obj[name] = DefaultValue(child)
			}
		}
		return obj
	case SchemaTypeArray:
		return []any{}
	default:
		return nil
	}
}
