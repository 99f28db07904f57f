package internal

import (
	"strings"
	"unicode"

	"github.com/lychee-technology/filterform"
)

// defaultMaxDepth bounds schema recursion when the configuration does not
// say otherwise. Deep enough for any real filter schema, small enough to
// stop a self-referential document.
const defaultMaxDepth = 32

// FormCompiler converts a filter type's JSON Schema plus optional UI hints
// into a renderable FormConfig. Compilation is pure and side-effect free; a
// fresh FormConfig is derived each time a filter type is loaded or its hints
// change.
type FormCompiler struct {
	// maxDepth is the number of structured object levels compiled before
	// deeper nodes degrade to raw fields. Top-level fields sit at depth 0,
	// so a limit of n renders n levels of nested objects.
	maxDepth int
}

// NewFormCompiler creates a compiler with the configured depth limit.
func NewFormCompiler(cfg filterform.CompilerConfig) *FormCompiler {
	maxDepth := cfg.MaxDepth
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}
	return &FormCompiler{maxDepth: maxDepth}
}

// Compile builds the form for one schema document. Malformed or unsupported
// nodes degrade to raw fields so the rest of the document stays editable; the
// only hard failure is a post-compilation invariant violation, which would
// mean the sectioning step dropped or duplicated a field.
func (c *FormCompiler) Compile(schema *filterform.SchemaNode, hints *filterform.UIHints) (filterform.FormConfig, error) {
	if schema == nil {
		return filterform.FormConfig{}, filterform.NewSchemaInvalidError("filter type declares no config schema")
	}
	if schema.Type != filterform.SchemaTypeObject || len(schema.Properties) == 0 {
		// No property structure to generate fields from: the whole
		// configuration is edited as one raw value at the root.
		return filterform.FormConfig{
			Layout:    filterform.FormLayoutFlat,
			AllFields: []filterform.FormField{c.rawField("config", "", schema, hints)},
		}, nil
	}

	fields := c.compileProperties(schema, "", 0, hints)

	if !hints.HasSections() {
		return filterform.FormConfig{
			Layout:    filterform.FormLayoutFlat,
			AllFields: applyFieldOrder(fields, hints),
		}, nil
	}
	return c.sectioned(fields, hints)
}

// compileProperties walks an object node's properties in declaration order.
func (c *FormCompiler) compileProperties(node *filterform.SchemaNode, parentPath string, depth int, hints *filterform.UIHints) []filterform.FormField {
	fields := make([]filterform.FormField, 0, len(node.Properties))
	for _, name := range node.PropertyOrder() {
		child := node.Properties[name]
		fullPath := name
		if parentPath != "" {
			fullPath = parentPath + "." + name
		}
		fields = append(fields, c.compileField(name, fullPath, child, node.IsRequired(name), depth, hints))
	}
	return fields
}

// compileField maps one schema node to a form field. Enum wins over the
// primitive type; objects with known properties recurse; open-ended maps,
// unknown types, arrays without items, and nodes past the depth limit all
// degrade to raw fields.
func (c *FormCompiler) compileField(name, fullPath string, node *filterform.SchemaNode, required bool, depth int, hints *filterform.UIHints) filterform.FormField {
	if node == nil || depth >= c.maxDepth {
		return c.rawField(name, fullPath, node, hints)
	}

	field := filterform.FormField{
		Name:           name,
		FullPath:       fullPath,
		Label:          c.label(name, fullPath, node, hints),
		Required:       required,
		Description:    node.Description,
		Placeholder:    hints.Placeholder(fullPath),
		OriginalSchema: node,
	}

	if node.IsEnum() {
		field.Type = filterform.FieldTypeEnum
		values := node.EnumValues()
		field.Options = make([]filterform.EnumOption, 0, len(values))
		for _, value := range values {
			field.Options = append(field.Options, filterform.EnumOption{
				Value: value,
				Label: enumLabel(value),
			})
		}
		return field
	}

	switch node.Type {
	case filterform.SchemaTypeString:
		field.Type = filterform.FieldTypeString
	case filterform.SchemaTypeNumber:
		field.Type = filterform.FieldTypeNumber
	case filterform.SchemaTypeInteger:
		field.Type = filterform.FieldTypeInteger
	case filterform.SchemaTypeBoolean:
		field.Type = filterform.FieldTypeBoolean
	case filterform.SchemaTypeObject:
		if len(node.Properties) == 0 {
			// Open-ended key/value map or empty object: no schema exists for
			// unknown keys, so no sub-fields can be generated. The editing
			// surface is a raw structured-text editor over the whole map.
			return c.rawField(name, fullPath, node, hints)
		}
		field.Type = filterform.FieldTypeObject
		field.Nested = c.compileProperties(node, fullPath, depth+1, hints)
	case filterform.SchemaTypeArray:
		if node.Items == nil {
			return c.rawField(name, fullPath, node, hints)
		}
		field.Type = filterform.FieldTypeArray
		field.ItemSchema = node.Items
	default:
		return c.rawField(name, fullPath, node, hints)
	}
	return field
}

// rawField is the degradation target for nodes the compiler cannot interpret:
// the field stays editable as raw structured text over its value.
func (c *FormCompiler) rawField(name, fullPath string, node *filterform.SchemaNode, hints *filterform.UIHints) filterform.FormField {
	field := filterform.FormField{
		Name:           name,
		FullPath:       fullPath,
		Type:           filterform.FieldTypeRaw,
		Label:          c.label(name, fullPath, node, hints),
		Placeholder:    hints.Placeholder(fullPath),
		OriginalSchema: node,
	}
	if node != nil {
		field.Description = node.Description
	}
	return field
}

func (c *FormCompiler) label(name, fullPath string, node *filterform.SchemaNode, hints *filterform.UIHints) string {
	if hinted := hints.Label(fullPath); hinted != "" {
		return hinted
	}
	if node != nil && node.Title != "" {
		return node.Title
	}
	return humanizeFieldName(name)
}

// sectioned regroups compiled fields into the hinted sections. Claimed fields
// are extracted out of their structural position, which may be several
// objects deep; unclaimed fields land in an implicit ungrouped section. The
// leaf-exactly-once invariant is verified after extraction.
func (c *FormCompiler) sectioned(fields []filterform.FormField, hints *filterform.UIHints) (filterform.FormConfig, error) {
	expected := leafPaths(fields)

	remaining := fields
	sections := make([]filterform.FormSection, 0, len(hints.Sections))
	extractedAny := false
	for _, hint := range hints.Sections {
		section := filterform.FormSection{
			Name:               hint.Name,
			Collapsible:        hint.Collapsible,
			CollapsedByDefault: hint.CollapsedByDefault,
		}
		for _, path := range hint.Fields {
			var extracted *filterform.FormField
			remaining, extracted = extractFieldByPath(remaining, path)
			if extracted == nil {
				// Hints never change semantics: a hint naming an unknown
				// path is ignored rather than inventing a field.
				continue
			}
			extractedAny = true
			section.Fields = append(section.Fields, *extracted)
		}
		if len(section.Fields) > 0 {
			sections = append(sections, section)
		}
	}

	if !extractedAny {
		// Every declared section came up empty; fall back to the flat layout
		// rather than emitting an all-ungrouped sectioned form.
		return filterform.FormConfig{
			Layout:    filterform.FormLayoutFlat,
			AllFields: applyFieldOrder(remaining, hints),
		}, nil
	}

	if len(remaining) > 0 {
		sections = append(sections, filterform.FormSection{
			Name:   "",
			Fields: remaining,
		})
	}

	config := filterform.FormConfig{
		Layout:   filterform.FormLayoutSectioned,
		Sections: sections,
	}
	if err := verifyLeafCoverage(expected, config); err != nil {
		return filterform.FormConfig{}, err
	}
	return config, nil
}

// extractFieldByPath removes the field with the given full path from the tree
// and returns it. When extraction empties an object parent's nested list the
// parent is removed too, since it no longer carries any leaf. The input
// slice is not mutated.
func extractFieldByPath(fields []filterform.FormField, path string) ([]filterform.FormField, *filterform.FormField) {
	for i, field := range fields {
		if field.FullPath == path {
			result := make([]filterform.FormField, 0, len(fields)-1)
			result = append(result, fields[:i]...)
			result = append(result, fields[i+1:]...)
			extracted := field
			return result, &extracted
		}
		if field.Type == filterform.FieldTypeObject && strings.HasPrefix(path, field.FullPath+".") {
			nested, extracted := extractFieldByPath(field.Nested, path)
			if extracted == nil {
				continue
			}
			result := make([]filterform.FormField, len(fields))
			copy(result, fields)
			if len(nested) == 0 {
				result = append(result[:i], result[i+1:]...)
			} else {
				updated := field
				updated.Nested = nested
				result[i] = updated
			}
			return result, extracted
		}
	}
	return fields, nil
}

// leafPaths collects the multiset of leaf full paths reachable in a field
// tree. Object fields with known properties contribute their nested leaves;
// every other field, raw and array included, is itself a leaf.
func leafPaths(fields []filterform.FormField) map[string]int {
	leaves := make(map[string]int)
	collectLeafPaths(fields, leaves)
	return leaves
}

func collectLeafPaths(fields []filterform.FormField, into map[string]int) {
	for _, field := range fields {
		if field.Type == filterform.FieldTypeObject && len(field.Nested) > 0 {
			collectLeafPaths(field.Nested, into)
			continue
		}
		into[field.FullPath]++
	}
}

// verifyLeafCoverage checks that every leaf path appears exactly once after
// sectioning: regrouping must never drop or duplicate a field.
func verifyLeafCoverage(expected map[string]int, config filterform.FormConfig) error {
	actual := make(map[string]int)
	for _, section := range config.Sections {
		collectLeafPaths(section.Fields, actual)
	}
	for path, count := range expected {
		if actual[path] != count {
			return filterform.NewFilterFormError(
				filterform.ErrorTypeInternal,
				filterform.ErrCodeFieldDuplicated,
				"sectioning dropped or duplicated a field").
				WithField(path)
		}
	}
	for path, count := range actual {
		if expected[path] != count {
			return filterform.NewFilterFormError(
				filterform.ErrorTypeInternal,
				filterform.ErrCodeFieldDuplicated,
				"sectioning dropped or duplicated a field").
				WithField(path)
		}
	}
	return nil
}

// applyFieldOrder reorders top-level fields per the hinted order: listed
// fields first, in hint order, everything else keeping declaration order.
func applyFieldOrder(fields []filterform.FormField, hints *filterform.UIHints) []filterform.FormField {
	if hints == nil || len(hints.FieldOrder) == 0 {
		return fields
	}
	byPath := make(map[string]int, len(fields))
	for i, field := range fields {
		byPath[field.FullPath] = i
	}

	ordered := make([]filterform.FormField, 0, len(fields))
	taken := make(map[string]bool, len(fields))
	for _, path := range hints.FieldOrder {
		if i, ok := byPath[path]; ok && !taken[path] {
			ordered = append(ordered, fields[i])
			taken[path] = true
		}
	}
	for _, field := range fields {
		if !taken[field.FullPath] {
			ordered = append(ordered, field)
		}
	}
	return ordered
}

// humanizeFieldName turns a camelCase or snake_case property key into a
// display label, e.g. "tokenBucket" -> "Token Bucket".
func humanizeFieldName(name string) string {
	if name == "" {
		return ""
	}
	var words []string
	var current []rune
	flush := func() {
		if len(current) > 0 {
			words = append(words, string(current))
			current = nil
		}
	}
	for _, r := range name {
		switch {
		case r == '_' || r == '-' || r == '.':
			flush()
		case unicode.IsUpper(r):
			flush()
			current = append(current, r)
		default:
			current = append(current, r)
		}
	}
	flush()

	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// enumLabel renders an enum value for display.
func enumLabel(value any) string {
	if s, ok := value.(string); ok {
		return humanizeFieldName(s)
	}
	return stringify(value)
}
