package internal

import (
	"context"

	"github.com/google/uuid"
	"github.com/lychee-technology/filterform"
	"go.uber.org/zap"
)

type filterManager struct {
	registry filterform.FilterTypeRegistry
	store    filterform.ConfigurationStore
	compiler *FormCompiler
	logger   *zap.SugaredLogger
}

// NewFilterManager assembles the FilterManager facade from its parts. Most
// callers should use factory.NewFilterManagerWithConfig instead.
func NewFilterManager(
	registry filterform.FilterTypeRegistry,
	store filterform.ConfigurationStore,
	compiler *FormCompiler,
) filterform.FilterManager {
	return &filterManager{
		registry: registry,
		store:    store,
		compiler: compiler,
		logger:   zap.S().With("component", "filter_manager"),
	}
}

func (m *filterManager) ListFilterTypes() []filterform.FilterTypeInfo {
	return m.registry.ListFilterTypes()
}

func (m *filterManager) GetFilterType(name string) (filterform.FilterTypeInfo, error) {
	return m.registry.GetFilterType(name)
}

func (m *filterManager) CompileForm(name string) (filterform.FormConfig, error) {
	info, err := m.registry.GetFilterType(name)
	if err != nil {
		return filterform.FormConfig{}, err
	}
	return m.compiler.Compile(info.ConfigSchema, info.UIHints)
}

func (m *filterManager) DefaultConfig(name string) (any, error) {
	info, err := m.registry.GetFilterType(name)
	if err != nil {
		return nil, err
	}
	return filterform.DefaultValue(info.ConfigSchema), nil
}

func (m *filterManager) ListConfigurations(ctx context.Context, filterID uuid.UUID) ([]filterform.StoredConfiguration, error) {
	return m.store.ListConfigurations(ctx, filterID)
}

// SaveConfiguration validates settings against the filter type's behavior
// class and schema before persisting. Nil settings mean use_base, which is
// represented by record absence, so the stored record is removed instead.
func (m *filterManager) SaveConfiguration(
	ctx context.Context,
	filterTypeName string,
	filterID uuid.UUID,
	scope filterform.ScopeIdentity,
	settings *filterform.PerRouteSettings,
) error {
	info, err := m.registry.GetFilterType(filterTypeName)
	if err != nil {
		return err
	}
	if err := scope.Validate(); err != nil {
		return err
	}
	if err := settings.Validate(info.PerRouteBehavior); err != nil {
		return err
	}

	if settings == nil || settings.IsUseBase() {
		err := m.store.RemoveConfiguration(ctx, filterID, scope)
		if err != nil && !filterform.IsNotFound(err) {
			return err
		}
		return nil
	}

	if settings.Behavior == filterform.BehaviorOverride && settings.Config != nil {
		if err := ValidateConfig(info.ConfigSchema, settings.Config); err != nil {
			return err
		}
	}
	return m.store.SaveConfiguration(ctx, filterID, scope, settings)
}

func (m *filterManager) RemoveConfiguration(ctx context.Context, filterID uuid.UUID, scope filterform.ScopeIdentity) error {
	return m.store.RemoveConfiguration(ctx, filterID, scope)
}

// EffectiveConfiguration resolves the override that applies at a route. The
// route's scope chain is derived from its identity; stored records at
// unrelated scopes are ignored. Records with an illegal behavior for the
// class are skipped and logged rather than applied.
func (m *filterManager) EffectiveConfiguration(
	ctx context.Context,
	filterTypeName string,
	filterID uuid.UUID,
	route filterform.ScopeIdentity,
	base map[string]any,
) (filterform.EffectiveConfig, error) {
	info, err := m.registry.GetFilterType(filterTypeName)
	if err != nil {
		return filterform.EffectiveConfig{}, err
	}
	if err := route.Validate(); err != nil {
		return filterform.EffectiveConfig{}, err
	}
	if route.Type != filterform.ScopeRoute {
		return filterform.EffectiveConfig{}, filterform.NewInvalidScopeError(
			"effective configuration is computed at route scope, got " + string(route.Type))
	}

	records, err := m.store.ListConfigurations(ctx, filterID)
	if err != nil {
		return filterform.EffectiveConfig{}, err
	}
	byScope := filterform.SettingsByScope(records, route)
	for scopeType, settings := range byScope {
		if resolution := filterform.Resolve(info.PerRouteBehavior, settings); !resolution.IsLegal {
			m.logger.Warnw("stored override asserts a behavior its class forbids, skipped",
				"filter_type", info.Name, "filter_id", filterID,
				"scope_type", scopeType, "behavior", resolution.EffectiveBehavior)
		}
	}

	if base == nil {
		base, _ = filterform.DefaultValue(info.ConfigSchema).(map[string]any)
	}
	return filterform.EffectiveConfiguration(base, info.PerRouteBehavior, byScope), nil
}

func (m *filterManager) OpenSession(
	ctx context.Context,
	filterTypeName string,
	filterID uuid.UUID,
	scope filterform.ScopeIdentity,
) (filterform.OverrideSession, error) {
	info, err := m.registry.GetFilterType(filterTypeName)
	if err != nil {
		return nil, err
	}

	var saved *filterform.PerRouteSettings
	record, err := m.store.GetConfiguration(ctx, filterID, scope)
	switch {
	case err == nil:
		saved = record.Settings
	case filterform.IsNotFound(err):
		// No stored override; the session starts at use_base.
	default:
		return nil, err
	}
	return NewEditSession(info, filterID, scope, saved, m.store)
}

func (m *filterManager) Close() error {
	if closer, ok := m.registry.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
