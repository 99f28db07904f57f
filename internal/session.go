package internal

import (
	"context"

	"github.com/google/uuid"
	"github.com/lychee-technology/filterform"
	"go.uber.org/zap"
)

// EditSession owns the optimistic-local state of one override editor: a
// working copy of the configuration mutated in memory on every field change,
// persisted only on an explicit save, discarded on cancel. Each session owns
// its own working copy; concurrent edits of different filters or scopes never
// share state.
//
// A session is bound to a single goroutine (the UI event loop); it is not
// safe for concurrent use.
type EditSession struct {
	filterType filterform.FilterTypeInfo
	filterID   uuid.UUID
	scope      filterform.ScopeIdentity
	store      filterform.ConfigurationStore
	logger     *zap.SugaredLogger

	saved *filterform.PerRouteSettings

	behavior        filterform.OverrideBehavior
	requirementName string
	working         map[string]any
}

// NewEditSession opens an editor over the stored settings at one scope.
// A nil saved record means no override exists yet and the session starts at
// use_base.
func NewEditSession(
	filterType filterform.FilterTypeInfo,
	filterID uuid.UUID,
	scope filterform.ScopeIdentity,
	saved *filterform.PerRouteSettings,
	store filterform.ConfigurationStore,
) (*EditSession, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	session := &EditSession{
		filterType: filterType,
		filterID:   filterID,
		scope:      scope,
		store:      store,
		logger:     zap.S().With("filter_type", filterType.Name, "scope", scope.String()),
		saved:      saved,
	}
	session.reset()
	return session, nil
}

// reset rebuilds the local state from the last-saved settings.
func (s *EditSession) reset() {
	s.behavior = filterform.BehaviorUseBase
	s.requirementName = ""
	s.working = nil

	if s.saved != nil {
		s.behavior = s.saved.Behavior
		s.requirementName = s.saved.RequirementName
		if s.saved.Config != nil {
			// The working copy must not alias the saved record: edits stay
			// invisible until save.
			s.working = cloneConfig(s.saved.Config)
		}
	}
	if s.working == nil && s.filterType.PerRouteBehavior == filterform.PerRouteFullConfig {
		if seed, ok := filterform.DefaultValue(s.filterType.ConfigSchema).(map[string]any); ok {
			s.working = seed
		} else {
			s.working = map[string]any{}
		}
	}
}

// Resolution reports the legality of the current stored settings and the
// behaviors the editor may offer.
func (s *EditSession) Resolution() filterform.Resolution {
	return filterform.Resolve(s.filterType.PerRouteBehavior, s.saved)
}

// Behavior returns the behavior currently selected in the editor.
func (s *EditSession) Behavior() filterform.OverrideBehavior {
	return s.behavior
}

// SetBehavior selects an override behavior, rejecting ones the filter type's
// class forbids.
func (s *EditSession) SetBehavior(behavior filterform.OverrideBehavior) error {
	for _, legal := range filterform.LegalBehaviors(s.filterType.PerRouteBehavior) {
		if behavior == legal {
			s.behavior = behavior
			return nil
		}
	}
	return filterform.NewIllegalBehaviorError(string(behavior), string(s.filterType.PerRouteBehavior))
}

// SetRequirementName records the reference payload for reference_only
// overrides.
func (s *EditSession) SetRequirementName(name string) {
	s.requirementName = name
}

// Field reads the working copy at a field's full path.
func (s *EditSession) Field(path string) (any, bool) {
	return filterform.GetPath(s.working, path)
}

// SetField applies one reported field change to the working copy. The old
// copy is replaced wholesale with the structurally-shared new root, so a
// renderer holding references to unrelated subtrees sees no change.
func (s *EditSession) SetField(path string, value any) {
	next := filterform.SetPath(s.working, path, value)
	if obj, ok := next.(map[string]any); ok {
		s.working = obj
	}
}

// RemoveField deletes a field from the working copy, used when an optional
// field is cleared.
func (s *EditSession) RemoveField(path string) {
	next := filterform.DeletePath(s.working, path)
	if obj, ok := next.(map[string]any); ok {
		s.working = obj
	}
}

// Settings assembles the record the current editor state would persist, nil
// when the state means use_base.
func (s *EditSession) Settings() *filterform.PerRouteSettings {
	switch s.behavior {
	case filterform.BehaviorUseBase:
		return nil
	case filterform.BehaviorDisable:
		return &filterform.PerRouteSettings{Behavior: filterform.BehaviorDisable}
	default:
		settings := &filterform.PerRouteSettings{Behavior: filterform.BehaviorOverride}
		if s.filterType.PerRouteBehavior == filterform.PerRouteReferenceOnly {
			settings.RequirementName = s.requirementName
		} else {
			settings.Config = s.working
		}
		return settings
	}
}

// Save validates the assembled settings and hands them to the persistence
// boundary. Resetting to use_base deletes the stored record rather than
// persisting a no-op row. Persistence failures are returned to the caller
// unretried.
func (s *EditSession) Save(ctx context.Context) error {
	settings := s.Settings()
	if err := settings.Validate(s.filterType.PerRouteBehavior); err != nil {
		return err
	}
	if settings != nil && settings.Behavior == filterform.BehaviorOverride && settings.Config != nil {
		if err := ValidateConfig(s.filterType.ConfigSchema, settings.Config); err != nil {
			return err
		}
	}

	if settings == nil {
		if s.saved == nil {
			// Nothing stored, nothing to delete.
			return nil
		}
		if err := s.store.RemoveConfiguration(ctx, s.filterID, s.scope); err != nil {
			return err
		}
		s.logger.Infow("override removed", "filter_id", s.filterID)
		s.saved = nil
		s.reset()
		return nil
	}

	if err := s.store.SaveConfiguration(ctx, s.filterID, s.scope, settings); err != nil {
		return err
	}
	s.logger.Infow("override saved", "filter_id", s.filterID, "behavior", settings.Behavior)
	s.saved = settings
	s.reset()
	return nil
}

// Cancel discards the working copy and restores the last-saved settings.
func (s *EditSession) Cancel() {
	s.reset()
}

// cloneConfig deep-copies a configuration object so a working copy never
// aliases stored state.
func cloneConfig(config map[string]any) map[string]any {
	copied := make(map[string]any, len(config))
	for key, value := range config {
		copied[key] = cloneValue(value)
	}
	return copied
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return cloneConfig(v)
	case []any:
		copied := make([]any, len(v))
		for i, item := range v {
			copied[i] = cloneValue(item)
		}
		return copied
	default:
		return v
	}
}
