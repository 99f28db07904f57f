package filterform

import (
	"context"

	"github.com/google/uuid"
)

// FilterTypeRegistry provides filter type lookup operations.
// Implementations can load definitions from files, object storage, or other
// catalog services.
type FilterTypeRegistry interface {
	// GetFilterType retrieves one filter type by name
	GetFilterType(name string) (FilterTypeInfo, error)
	// ListFilterTypes returns all registered filter types in name order
	ListFilterTypes() []FilterTypeInfo
}

// ConfigurationStore is the persistence boundary for per-scope override
// records. The core never retries store calls; transient-failure policy
// belongs to the caller.
type ConfigurationStore interface {
	// ListConfigurations returns every stored record for a filter instance
	ListConfigurations(ctx context.Context, filterID uuid.UUID) ([]StoredConfiguration, error)
	// GetConfiguration returns the record at one scope, or a not-found error
	GetConfiguration(ctx context.Context, filterID uuid.UUID, scope ScopeIdentity) (StoredConfiguration, error)
	// SaveConfiguration creates or replaces the record at one scope
	SaveConfiguration(ctx context.Context, filterID uuid.UUID, scope ScopeIdentity, settings *PerRouteSettings) error
	// RemoveConfiguration deletes the record at one scope
	RemoveConfiguration(ctx context.Context, filterID uuid.UUID, scope ScopeIdentity) error
}

// OverrideSession is an editor over one filter instance's settings at one
// scope. Field changes mutate a private working copy; nothing reaches the
// store until Save. Sessions are not safe for concurrent use.
type OverrideSession interface {
	// Resolution reports the legality of the currently stored settings
	Resolution() Resolution
	// Behavior returns the behavior currently selected in the editor
	Behavior() OverrideBehavior
	// SetBehavior selects a behavior, rejecting ones the class forbids
	SetBehavior(behavior OverrideBehavior) error
	// SetRequirementName records the reference payload for reference_only
	SetRequirementName(name string)
	// Field reads the working copy at a dotted path
	Field(path string) (any, bool)
	// SetField applies one field change to the working copy
	SetField(path string, value any)
	// RemoveField clears an optional field from the working copy
	RemoveField(path string)
	// Settings assembles the record the editor state would persist, nil for
	// use_base
	Settings() *PerRouteSettings
	// Save validates the assembled settings and persists them
	Save(ctx context.Context) error
	// Cancel discards unsaved edits
	Cancel()
}

// FilterManager is the top-level facade over the filter type catalog, the
// form compiler, the override store, and the resolver. It is the interface
// external projects consume; use factory.NewFilterManagerWithConfig to build
// one.
type FilterManager interface {
	// ListFilterTypes returns all registered filter types in name order
	ListFilterTypes() []FilterTypeInfo
	// GetFilterType retrieves one filter type by name
	GetFilterType(name string) (FilterTypeInfo, error)
	// CompileForm builds the form description for a filter type's schema
	CompileForm(name string) (FormConfig, error)
	// DefaultConfig generates the minimal valid configuration for a filter
	// type's schema
	DefaultConfig(name string) (any, error)
	// ListConfigurations returns every stored override for a filter instance
	ListConfigurations(ctx context.Context, filterID uuid.UUID) ([]StoredConfiguration, error)
	// SaveConfiguration validates and persists one scope's settings; nil
	// settings reset the scope to use_base by removing the stored record
	SaveConfiguration(ctx context.Context, filterTypeName string, filterID uuid.UUID, scope ScopeIdentity, settings *PerRouteSettings) error
	// RemoveConfiguration deletes the override at one scope
	RemoveConfiguration(ctx context.Context, filterID uuid.UUID, scope ScopeIdentity) error
	// EffectiveConfiguration computes the configuration in effect at a route
	// by walking its scope chain; base is the listener-level configuration,
	// defaulted from the schema when nil
	EffectiveConfiguration(ctx context.Context, filterTypeName string, filterID uuid.UUID, route ScopeIdentity, base map[string]any) (EffectiveConfig, error)
	// OpenSession starts an editor over the stored settings at one scope
	OpenSession(ctx context.Context, filterTypeName string, filterID uuid.UUID, scope ScopeIdentity) (OverrideSession, error)
	// Close releases catalog watchers and other background resources
	Close() error
}
