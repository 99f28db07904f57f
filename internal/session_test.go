package internal

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/lychee-technology/filterform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	records map[string]*filterform.PerRouteSettings

	saveCalls   int
	removeCalls int
	failNext    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]*filterform.PerRouteSettings)}
}

func (f *fakeStore) key(filterID uuid.UUID, scope filterform.ScopeIdentity) string {
	return filterID.String() + "|" + string(scope.Type) + "|" + scope.String()
}

func (f *fakeStore) ListConfigurations(ctx context.Context, filterID uuid.UUID) ([]filterform.StoredConfiguration, error) {
	return nil, nil
}

func (f *fakeStore) GetConfiguration(ctx context.Context, filterID uuid.UUID, scope filterform.ScopeIdentity) (filterform.StoredConfiguration, error) {
	settings, ok := f.records[f.key(filterID, scope)]
	if !ok {
		return filterform.StoredConfiguration{}, filterform.NewConfigurationNotFoundError(scope)
	}
	return filterform.StoredConfiguration{FilterID: filterID, Scope: scope, Settings: settings}, nil
}

func (f *fakeStore) SaveConfiguration(ctx context.Context, filterID uuid.UUID, scope filterform.ScopeIdentity, settings *filterform.PerRouteSettings) error {
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	f.saveCalls++
	f.records[f.key(filterID, scope)] = settings
	return nil
}

func (f *fakeStore) RemoveConfiguration(ctx context.Context, filterID uuid.UUID, scope filterform.ScopeIdentity) error {
	key := f.key(filterID, scope)
	if _, ok := f.records[key]; !ok {
		return filterform.NewConfigurationNotFoundError(scope)
	}
	f.removeCalls++
	delete(f.records, key)
	return nil
}

func rateLimitFilterType(t *testing.T) filterform.FilterTypeInfo {
	t.Helper()
	var schema filterform.SchemaNode
	require.NoError(t, json.Unmarshal([]byte(rateLimitSchema), &schema))
	return filterform.FilterTypeInfo{
		Name:             "local_rate_limit",
		DisplayName:      "Local Rate Limit",
		PerRouteBehavior: filterform.PerRouteFullConfig,
		ConfigSchema:     &schema,
	}
}

// TestSessionStartsFromDefaults seeds the working copy with schema defaults
// when no override is stored.
func TestSessionStartsFromDefaults(t *testing.T) {
	session, err := NewEditSession(rateLimitFilterType(t), uuid.New(),
		filterform.NewRouteScope("rc", "vh", "r"), nil, newFakeStore())
	require.NoError(t, err)

	assert.Equal(t, filterform.BehaviorUseBase, session.Behavior())
	// Required properties get defaults, optional ones stay absent.
	value, ok := session.Field("tokenBucket.maxTokens")
	require.True(t, ok)
	assert.Equal(t, float64(0), value)
	_, ok = session.Field("mode")
	assert.False(t, ok)
}

// TestSessionEditSaveCancel covers the optimistic-local cycle: edits stay in
// the working copy, Save persists, Cancel restores the saved state.
func TestSessionEditSaveCancel(t *testing.T) {
	store := newFakeStore()
	filterID := uuid.New()
	scope := filterform.NewRouteScope("rc", "vh", "r")
	session, err := NewEditSession(rateLimitFilterType(t), filterID, scope, nil, store)
	require.NoError(t, err)

	require.NoError(t, session.SetBehavior(filterform.BehaviorOverride))
	session.SetField("statPrefix", "checkout_rl")
	session.SetField("tokenBucket.maxTokens", 250)

	assert.Equal(t, 0, store.saveCalls, "edits must not reach the store before save")

	require.NoError(t, session.Save(context.Background()))
	assert.Equal(t, 1, store.saveCalls)

	stored := store.records[store.key(filterID, scope)]
	require.NotNil(t, stored)
	assert.Equal(t, filterform.BehaviorOverride, stored.Behavior)
	assert.Equal(t, "checkout_rl", stored.Config["statPrefix"])

	// Cancel after further edits returns to the saved state.
	session.SetField("statPrefix", "oops")
	session.Cancel()
	value, _ := session.Field("statPrefix")
	assert.Equal(t, "checkout_rl", value)
	assert.Equal(t, filterform.BehaviorOverride, session.Behavior())
}

// TestSessionSaveValidatesAgainstSchema rejects an override payload that
// violates the schema before anything is persisted.
func TestSessionSaveValidatesAgainstSchema(t *testing.T) {
	store := newFakeStore()
	session, err := NewEditSession(rateLimitFilterType(t), uuid.New(),
		filterform.NewRouteScope("rc", "vh", "r"), nil, store)
	require.NoError(t, err)

	require.NoError(t, session.SetBehavior(filterform.BehaviorOverride))
	session.SetField("statPrefix", "rl")
	session.SetField("tokenBucket.maxTokens", "not-a-number")

	err = session.Save(context.Background())
	require.Error(t, err)
	assert.True(t, filterform.IsValidationError(err))
	assert.Equal(t, 0, store.saveCalls)
}

// TestSessionSetBehaviorRespectsClass refuses behaviors the class forbids.
func TestSessionSetBehaviorRespectsClass(t *testing.T) {
	info := rateLimitFilterType(t)
	info.PerRouteBehavior = filterform.PerRouteDisableOnly
	session, err := NewEditSession(info, uuid.New(),
		filterform.NewRouteScope("rc", "vh", "r"), nil, newFakeStore())
	require.NoError(t, err)

	assert.Error(t, session.SetBehavior(filterform.BehaviorOverride))
	assert.NoError(t, session.SetBehavior(filterform.BehaviorDisable))
}

// TestSessionResetToUseBaseRemovesRecord deletes the stored record instead of
// persisting a use_base row.
func TestSessionResetToUseBaseRemovesRecord(t *testing.T) {
	store := newFakeStore()
	filterID := uuid.New()
	scope := filterform.NewRouteScope("rc", "vh", "r")
	saved := &filterform.PerRouteSettings{Behavior: filterform.BehaviorDisable}
	store.records[store.key(filterID, scope)] = saved

	session, err := NewEditSession(rateLimitFilterType(t), filterID, scope, saved, store)
	require.NoError(t, err)
	assert.Equal(t, filterform.BehaviorDisable, session.Behavior())

	require.NoError(t, session.SetBehavior(filterform.BehaviorUseBase))
	require.NoError(t, session.Save(context.Background()))

	assert.Equal(t, 1, store.removeCalls)
	assert.Empty(t, store.records)
	assert.Nil(t, session.Settings())
}

// TestSessionUseBaseWithoutRecordIsNoop neither saves nor removes.
func TestSessionUseBaseWithoutRecordIsNoop(t *testing.T) {
	store := newFakeStore()
	session, err := NewEditSession(rateLimitFilterType(t), uuid.New(),
		filterform.NewRouteScope("rc", "vh", "r"), nil, store)
	require.NoError(t, err)

	require.NoError(t, session.Save(context.Background()))
	assert.Equal(t, 0, store.saveCalls)
	assert.Equal(t, 0, store.removeCalls)
}

// TestSessionWorkingCopyDoesNotAliasSaved verifies edits never leak into the
// record loaded from the store.
func TestSessionWorkingCopyDoesNotAliasSaved(t *testing.T) {
	saved := &filterform.PerRouteSettings{
		Behavior: filterform.BehaviorOverride,
		Config: map[string]any{
			"statPrefix":  "orig",
			"tokenBucket": map[string]any{"maxTokens": 10},
		},
	}
	session, err := NewEditSession(rateLimitFilterType(t), uuid.New(),
		filterform.NewRouteScope("rc", "vh", "r"), saved, newFakeStore())
	require.NoError(t, err)

	session.SetField("tokenBucket.maxTokens", 999)
	assert.Equal(t, 10, saved.Config["tokenBucket"].(map[string]any)["maxTokens"])
}

// TestSessionSaveFailureKeepsWorkingCopy leaves the editor state intact so the
// user can retry.
func TestSessionSaveFailureKeepsWorkingCopy(t *testing.T) {
	store := newFakeStore()
	store.failNext = filterform.NewStoreError("connection lost", nil)

	session, err := NewEditSession(rateLimitFilterType(t), uuid.New(),
		filterform.NewRouteScope("rc", "vh", "r"), nil, store)
	require.NoError(t, err)

	require.NoError(t, session.SetBehavior(filterform.BehaviorOverride))
	session.SetField("statPrefix", "rl")
	session.SetField("tokenBucket.maxTokens", 5)

	require.Error(t, session.Save(context.Background()))
	value, _ := session.Field("statPrefix")
	assert.Equal(t, "rl", value)

	require.NoError(t, session.Save(context.Background()))
	assert.Equal(t, 1, store.saveCalls)
}

// TestSessionReferenceOnlySettings assembles a requirementName payload instead
// of a config object.
func TestSessionReferenceOnlySettings(t *testing.T) {
	info := rateLimitFilterType(t)
	info.PerRouteBehavior = filterform.PerRouteReferenceOnly

	store := newFakeStore()
	session, err := NewEditSession(info, uuid.New(),
		filterform.NewRouteScope("rc", "vh", "r"), nil, store)
	require.NoError(t, err)

	require.NoError(t, session.SetBehavior(filterform.BehaviorOverride))
	session.SetRequirementName("jwt-auth")
	require.NoError(t, session.Save(context.Background()))

	settings := session.Settings()
	require.NotNil(t, settings)
	assert.Equal(t, "jwt-auth", settings.RequirementName)
	assert.Nil(t, settings.Config)
}
