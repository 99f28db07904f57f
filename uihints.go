package filterform

// FormLayout is the layout style requested by a filter type's UI hints.
type FormLayout string

const (
	FormLayoutHintFlat     FormLayout = "flat"
	FormLayoutHintSections FormLayout = "sections"
	FormLayoutHintTabs     FormLayout = "tabs"
)

// UIHints carries optional presentation hints for form generation. Hints
// never change configuration semantics; a filter type with no hints still
// compiles to a fully usable flat form.
type UIHints struct {
	// FormLayout selects flat or grouped rendering. Tabs render as sections
	// for clients that do not implement tab strips.
	FormLayout FormLayout `json:"formLayout,omitempty" yaml:"form_layout,omitempty"`

	// Sections group named leaf fields (by dotted path from the
	// configuration root) into display sections.
	Sections []SectionHint `json:"sections,omitempty" yaml:"sections,omitempty"`

	// FieldOrder overrides the declaration order of top-level fields in flat
	// layouts. Fields not listed keep their relative declaration order after
	// the listed ones.
	FieldOrder []string `json:"fieldOrder,omitempty" yaml:"field_order,omitempty"`

	// Labels and Placeholders override display text, keyed by dotted path.
	Labels       map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Placeholders map[string]string `json:"placeholders,omitempty" yaml:"placeholders,omitempty"`

	// CustomFormComponent names a hand-written form to use instead of the
	// generated one. The compiler ignores it; editors may honor it.
	CustomFormComponent string `json:"customFormComponent,omitempty" yaml:"custom_form_component,omitempty"`
}

// SectionHint declares one display section and the field paths it claims.
type SectionHint struct {
	Name               string   `json:"name" yaml:"name"`
	Fields             []string `json:"fields" yaml:"fields"`
	Collapsible        bool     `json:"collapsible,omitempty" yaml:"collapsible,omitempty"`
	CollapsedByDefault bool     `json:"collapsedByDefault,omitempty" yaml:"collapsed_by_default,omitempty"`
}

// HasSections reports whether the hints declare any section groupings with at
// least one claimed field.
func (h *UIHints) HasSections() bool {
	if h == nil {
		return false
	}
	for _, section := range h.Sections {
		if len(section.Fields) > 0 {
			return true
		}
	}
	return false
}

// Label returns the hinted label for a path, or empty when none is declared.
func (h *UIHints) Label(path string) string {
	if h == nil {
		return ""
	}
	return h.Labels[path]
}

// Placeholder returns the hinted placeholder for a path.
func (h *UIHints) Placeholder(path string) string {
	if h == nil {
		return ""
	}
	return h.Placeholders[path]
}
