package filterform

import (
	"time"

	"github.com/google/uuid"
)

// FieldType is the closed set of form field kinds the renderer understands.
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeNumber  FieldType = "number"
	FieldTypeInteger FieldType = "integer"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeEnum    FieldType = "enum"
	FieldTypeObject  FieldType = "object"
	FieldTypeArray   FieldType = "array"
	// FieldTypeRaw is the degradation target for open-ended maps and for
	// schema nodes the compiler cannot interpret: the renderer shows a raw
	// structured-text editor over the value.
	FieldTypeRaw FieldType = "raw"
)

// EnumOption is one selectable value of an enum field.
type EnumOption struct {
	Value any    `json:"value"`
	Label string `json:"label"`
}

// FormField describes a single input in a compiled form.
//
// Name is the local property key; FullPath is the dotted path from the
// configuration root and is what the renderer reports edits against. The two
// differ once a field has been lifted out of its structural position into a
// display section.
type FormField struct {
	Name        string       `json:"name"`
	FullPath    string       `json:"fullPath"`
	Type        FieldType    `json:"type"`
	Label       string       `json:"label"`
	Required    bool         `json:"required"`
	Description string       `json:"description,omitempty"`
	Placeholder string       `json:"placeholder,omitempty"`
	Options     []EnumOption `json:"options,omitempty"`
	ItemSchema  *SchemaNode  `json:"itemSchema,omitempty"`
	Nested      []FormField  `json:"nested,omitempty"`

	// OriginalSchema retains the source node so the renderer can apply
	// numeric bounds and string length limits without re-fetching the schema.
	OriginalSchema *SchemaNode `json:"originalSchema,omitempty"`
}

// FormSection groups fields for display.
type FormSection struct {
	Name               string      `json:"name"`
	Fields             []FormField `json:"fields"`
	Collapsible        bool        `json:"collapsible"`
	CollapsedByDefault bool        `json:"collapsedByDefault"`
}

// FormLayoutKind distinguishes the two compiled form shapes.
type FormLayoutKind string

const (
	FormLayoutFlat      FormLayoutKind = "flat"
	FormLayoutSectioned FormLayoutKind = "sectioned"
)

// FormConfig is the compiled, renderable form for one filter type. Exactly
// one of AllFields and Sections is populated, per Layout.
type FormConfig struct {
	Layout    FormLayoutKind `json:"layout"`
	AllFields []FormField    `json:"allFields,omitempty"`
	Sections  []FormSection  `json:"sections,omitempty"`
}

// PerRouteBehavior is a filter type's declared capability for per-route
// configuration overrides.
type PerRouteBehavior string

const (
	// PerRouteFullConfig allows a complete configuration override per scope.
	PerRouteFullConfig PerRouteBehavior = "full_config"
	// PerRouteReferenceOnly allows referencing a named listener-level
	// requirement instead of inlining configuration.
	PerRouteReferenceOnly PerRouteBehavior = "reference_only"
	// PerRouteDisableOnly only allows disabling the filter per scope.
	PerRouteDisableOnly PerRouteBehavior = "disable_only"
	// PerRouteNotSupported forbids any per-scope override.
	PerRouteNotSupported PerRouteBehavior = "not_supported"
)

// Valid reports whether the value is one of the declared behavior classes.
func (b PerRouteBehavior) Valid() bool {
	switch b {
	case PerRouteFullConfig, PerRouteReferenceOnly, PerRouteDisableOnly, PerRouteNotSupported:
		return true
	}
	return false
}

// OverrideBehavior names how a scope's effective configuration relates to the
// filter's base configuration.
type OverrideBehavior string

const (
	BehaviorUseBase  OverrideBehavior = "use_base"
	BehaviorDisable  OverrideBehavior = "disable"
	BehaviorOverride OverrideBehavior = "override"
)

// Valid reports whether the value is one of the declared override behaviors.
func (b OverrideBehavior) Valid() bool {
	switch b {
	case BehaviorUseBase, BehaviorDisable, BehaviorOverride:
		return true
	}
	return false
}

// PerRouteSettings is the stored override record for one filter instance at
// one scope. A nil settings value is semantically identical to
// {Behavior: use_base}.
type PerRouteSettings struct {
	Behavior OverrideBehavior `json:"behavior"`

	// Config carries the override payload for full_config filters.
	Config map[string]any `json:"config,omitempty"`

	// RequirementName carries the override payload for reference_only
	// filters.
	RequirementName string `json:"requirementName,omitempty"`
}

// Validate enforces the construction-time invariants of a settings record
// against the filter type's behavior class: behaviors must be legal for the
// class, and the Config / RequirementName payloads are mutually exclusive and
// only present under the combination that permits them.
//
// The resolver deliberately does not re-check payload shape against the class
// (see Resolve); this is the single place that does.
func (s *PerRouteSettings) Validate(class PerRouteBehavior) error {
	if s == nil {
		return nil
	}
	if !s.Behavior.Valid() {
		return NewIllegalBehaviorError(string(s.Behavior), string(class))
	}
	if s.Config != nil && s.RequirementName != "" {
		return NewValidationError("settings", "config and requirementName are mutually exclusive")
	}
	if s.Behavior != BehaviorOverride {
		if s.Config != nil || s.RequirementName != "" {
			return NewValidationError("settings",
				"override payload is only meaningful when behavior is 'override'")
		}
	}
	switch s.Behavior {
	case BehaviorUseBase:
		return nil
	case BehaviorDisable:
		if class == PerRouteNotSupported {
			return NewIllegalBehaviorError(string(s.Behavior), string(class))
		}
	case BehaviorOverride:
		switch class {
		case PerRouteFullConfig:
			if s.Config == nil {
				return NewValidationError("config", "full_config override requires a config payload")
			}
		case PerRouteReferenceOnly:
			if s.RequirementName == "" {
				return NewValidationError("requirementName",
					"reference_only override requires a requirement name")
			}
		default:
			return NewIllegalBehaviorError(string(s.Behavior), string(class))
		}
	}
	return nil
}

// IsUseBase reports whether the record (including a nil record) means "no
// override".
func (s *PerRouteSettings) IsUseBase() bool {
	return s == nil || s.Behavior == BehaviorUseBase
}

// AttachmentPoint names where in the proxy configuration a filter can be
// installed.
type AttachmentPoint string

const (
	AttachmentListener AttachmentPoint = "listener"
	AttachmentRoute    AttachmentPoint = "route"
)

// SchemaSource records where a filter type definition came from.
type SchemaSource string

const (
	SchemaSourceBuiltIn SchemaSource = "built_in"
	SchemaSourceCustom  SchemaSource = "custom"
)

// FilterTypeInfo is the immutable description of one schema-driven filter
// type, as served by the filter-type catalog.
type FilterTypeInfo struct {
	Name                   string            `json:"name"`
	DisplayName            string            `json:"displayName"`
	Description            string            `json:"description"`
	Version                string            `json:"version"`
	AttachmentPoints       []AttachmentPoint `json:"attachmentPoints"`
	RequiresListenerConfig bool              `json:"requiresListenerConfig"`
	PerRouteBehavior       PerRouteBehavior  `json:"perRouteBehavior"`
	IsImplemented          bool              `json:"isImplemented"`
	Source                 SchemaSource      `json:"source"`
	ConfigSchema           *SchemaNode       `json:"configSchema"`
	UIHints                *UIHints          `json:"uiHints,omitempty"`
}

// StoredConfiguration is one persisted override record: a filter instance, a
// scope, and the settings recorded there. Owned by the persistence boundary
// and only mirrored locally while an editor is open.
type StoredConfiguration struct {
	FilterID  uuid.UUID         `json:"filterId"`
	Scope     ScopeIdentity     `json:"scope"`
	Settings  *PerRouteSettings `json:"settings"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}
