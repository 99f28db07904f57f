package filterform

// Resolution is the outcome of resolving one scope's stored settings against
// a filter type's behavior class.
type Resolution struct {
	// EffectiveBehavior is the behavior the stored record asserts, use_base
	// when no record exists. It is reported even when illegal so callers can
	// surface the stored data instead of masking it.
	EffectiveBehavior OverrideBehavior `json:"effectiveBehavior"`

	// IsLegal is false when the stored record asserts a behavior the class
	// forbids. Resolution never coerces or deletes such a record; it is the
	// caller's signal to raise a data-integrity warning.
	IsLegal bool `json:"isLegal"`

	// LegalBehaviors lists the behaviors the class permits, in use_base,
	// disable, override order. Editors use it to decide which choices to
	// offer.
	LegalBehaviors []OverrideBehavior `json:"legalBehaviors"`
}

// LegalBehaviors returns the override behaviors permitted by a per-route
// behavior class.
func LegalBehaviors(class PerRouteBehavior) []OverrideBehavior {
	switch class {
	case PerRouteFullConfig, PerRouteReferenceOnly:
		return []OverrideBehavior{BehaviorUseBase, BehaviorDisable, BehaviorOverride}
	case PerRouteDisableOnly:
		return []OverrideBehavior{BehaviorUseBase, BehaviorDisable}
	default:
		return []OverrideBehavior{BehaviorUseBase}
	}
}

// Resolve computes the effective behavior and legality of one scope's stored
// settings. It is a pure function: it never consults parent scopes, performs
// no I/O, and owns no precedence logic. Hierarchical fallthrough is a
// property of which scope's settings the caller passes in.
//
// A nil settings record is the canonical "no override" representation and
// always resolves to use_base regardless of class. Resolve deliberately does
// not check which override payload shape (config vs requirementName) the
// record carries; only behavior inclusion is class-gated here. Payload shape
// is enforced where settings are constructed, by PerRouteSettings.Validate.
func Resolve(class PerRouteBehavior, settings *PerRouteSettings) Resolution {
	legal := LegalBehaviors(class)
	if settings == nil {
		return Resolution{
			EffectiveBehavior: BehaviorUseBase,
			IsLegal:           true,
			LegalBehaviors:    legal,
		}
	}

	isLegal := false
	for _, behavior := range legal {
		if settings.Behavior == behavior {
			isLegal = true
			break
		}
	}
	return Resolution{
		EffectiveBehavior: settings.Behavior,
		IsLegal:           isLegal,
		LegalBehaviors:    legal,
	}
}

// EffectiveConfig is the configuration that applies at a route after walking
// scopes from most specific to least specific.
type EffectiveConfig struct {
	// Disabled is true when the nearest non-use_base override disables the
	// filter.
	Disabled bool `json:"disabled"`

	// Config is the effective configuration object: the nearest override's
	// payload, or the filter's base configuration when every scope resolves
	// to use_base.
	Config map[string]any `json:"config,omitempty"`

	// RequirementName is set instead of Config when the nearest override
	// references a named requirement.
	RequirementName string `json:"requirementName,omitempty"`

	// Source identifies the scope level whose override won, nil when the
	// base configuration applies.
	Source *ScopeType `json:"source,omitempty"`
}

// scopePrecedence walks route, then virtual host, then route configuration.
var scopePrecedence = []ScopeType{ScopeRoute, ScopeVirtualHost, ScopeRouteConfig}

// EffectiveConfiguration computes the configuration in effect at a route:
// the nearest-scope non-use_base override, defaulting to the filter's base
// configuration when all three levels resolve to use_base. Records whose
// behavior is illegal for the class are skipped rather than applied; callers
// that want to surface them inspect Resolve per scope.
func EffectiveConfiguration(
	base map[string]any,
	class PerRouteBehavior,
	stored map[ScopeType]*PerRouteSettings,
) EffectiveConfig {
	for _, scopeType := range scopePrecedence {
		settings := stored[scopeType]
		resolution := Resolve(class, settings)
		if !resolution.IsLegal || settings.IsUseBase() {
			continue
		}
		source := scopeType
		switch settings.Behavior {
		case BehaviorDisable:
			return EffectiveConfig{Disabled: true, Source: &source}
		case BehaviorOverride:
			return EffectiveConfig{
				Config:          settings.Config,
				RequirementName: settings.RequirementName,
				Source:          &source,
			}
		}
	}
	return EffectiveConfig{Config: base}
}

// SettingsByScope indexes the stored records that sit on a route's inheritance
// chain (the route itself, its virtual host, its route configuration) by
// scope type, ready for EffectiveConfiguration. Records at unrelated scopes
// are ignored.
func SettingsByScope(records []StoredConfiguration, route ScopeIdentity) map[ScopeType]*PerRouteSettings {
	chain := make(map[string]ScopeType, 3)
	scope := route
	for {
		chain[scope.String()] = scope.Type
		parent, ok := scope.Parent()
		if !ok {
			break
		}
		scope = parent
	}

	byScope := make(map[ScopeType]*PerRouteSettings)
	for _, record := range records {
		if scopeType, ok := chain[record.Scope.String()]; ok && record.Scope.Type == scopeType {
			byScope[scopeType] = record.Settings
		}
	}
	return byScope
}
