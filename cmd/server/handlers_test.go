package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/lychee-technology/filterform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockFilterManager struct {
	types []filterform.FilterTypeInfo

	savedFilterType string
	savedScope      filterform.ScopeIdentity
	savedSettings   *filterform.PerRouteSettings

	effective filterform.EffectiveConfig
}

func (m *mockFilterManager) ListFilterTypes() []filterform.FilterTypeInfo {
	return m.types
}

func (m *mockFilterManager) GetFilterType(name string) (filterform.FilterTypeInfo, error) {
	for _, info := range m.types {
		if info.Name == name {
			return info, nil
		}
	}
	return filterform.FilterTypeInfo{}, filterform.NewFilterTypeNotFoundError(name)
}

func (m *mockFilterManager) CompileForm(name string) (filterform.FormConfig, error) {
	if _, err := m.GetFilterType(name); err != nil {
		return filterform.FormConfig{}, err
	}
	return filterform.FormConfig{
		Layout:    filterform.FormLayoutFlat,
		AllFields: []filterform.FormField{{Name: "statPrefix", FullPath: "statPrefix", Type: filterform.FieldTypeString}},
	}, nil
}

func (m *mockFilterManager) DefaultConfig(name string) (any, error) {
	if _, err := m.GetFilterType(name); err != nil {
		return nil, err
	}
	return map[string]any{}, nil
}

func (m *mockFilterManager) ListConfigurations(ctx context.Context, filterID uuid.UUID) ([]filterform.StoredConfiguration, error) {
	return nil, nil
}

func (m *mockFilterManager) SaveConfiguration(ctx context.Context, filterTypeName string, filterID uuid.UUID, scope filterform.ScopeIdentity, settings *filterform.PerRouteSettings) error {
	if _, err := m.GetFilterType(filterTypeName); err != nil {
		return err
	}
	m.savedFilterType = filterTypeName
	m.savedScope = scope
	m.savedSettings = settings
	return nil
}

func (m *mockFilterManager) RemoveConfiguration(ctx context.Context, filterID uuid.UUID, scope filterform.ScopeIdentity) error {
	return nil
}

func (m *mockFilterManager) EffectiveConfiguration(ctx context.Context, filterTypeName string, filterID uuid.UUID, route filterform.ScopeIdentity, base map[string]any) (filterform.EffectiveConfig, error) {
	if _, err := m.GetFilterType(filterTypeName); err != nil {
		return filterform.EffectiveConfig{}, err
	}
	return m.effective, nil
}

func (m *mockFilterManager) OpenSession(ctx context.Context, filterTypeName string, filterID uuid.UUID, scope filterform.ScopeIdentity) (filterform.OverrideSession, error) {
	return nil, filterform.NewFilterTypeNotFoundError(filterTypeName)
}

func (m *mockFilterManager) Close() error { return nil }

func newTestServer(manager filterform.FilterManager) *Server {
	server := NewServer(manager)
	server.RegisterRoutes()
	return server
}

// TestHandleFilterTypeList verifies GET /api/v1/filter-types returns the
// catalog as JSON.
func TestHandleFilterTypeList(t *testing.T) {
	server := newTestServer(&mockFilterManager{
		types: []filterform.FilterTypeInfo{
			{Name: "local_rate_limit", DisplayName: "Local Rate Limit"},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/filter-types", nil)
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var types []filterform.FilterTypeInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &types))
	require.Len(t, types, 1)
	assert.Equal(t, "local_rate_limit", types[0].Name)
}

// TestHandleFilterTypeNotFound verifies unknown names map to 404.
func TestHandleFilterTypeNotFound(t *testing.T) {
	server := newTestServer(&mockFilterManager{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/filter-types/nope", nil)
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// TestHandleCompileForm verifies GET /api/v1/filter-types/{name}/form returns
// the compiled form description.
func TestHandleCompileForm(t *testing.T) {
	server := newTestServer(&mockFilterManager{
		types: []filterform.FilterTypeInfo{{Name: "local_rate_limit"}},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/filter-types/local_rate_limit/form", nil)
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var form filterform.FormConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &form))
	assert.Equal(t, filterform.FormLayoutFlat, form.Layout)
	require.Len(t, form.AllFields, 1)
	assert.Equal(t, "statPrefix", form.AllFields[0].FullPath)
}

// TestHandleSaveConfiguration verifies PUT /api/v1/filters/{id}/configurations
// parses the scope from its wire components and forwards the settings.
func TestHandleSaveConfiguration(t *testing.T) {
	manager := &mockFilterManager{
		types: []filterform.FilterTypeInfo{{Name: "local_rate_limit"}},
	}
	server := newTestServer(manager)

	filterID := uuid.New()
	body := []byte(`{
		"filterType": "local_rate_limit",
		"scopeType": "route",
		"scopeId": "prod-routes/api.example.com/checkout",
		"settings": {"behavior": "disable"}
	}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/filters/"+filterID.String()+"/configurations", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "local_rate_limit", manager.savedFilterType)
	assert.Equal(t, filterform.ScopeRoute, manager.savedScope.Type)
	assert.Equal(t, "checkout", manager.savedScope.Route)
	require.NotNil(t, manager.savedSettings)
	assert.Equal(t, filterform.BehaviorDisable, manager.savedSettings.Behavior)
}

// TestHandleSaveConfigurationBadScope verifies a malformed scope id is a 400.
func TestHandleSaveConfigurationBadScope(t *testing.T) {
	server := newTestServer(&mockFilterManager{
		types: []filterform.FilterTypeInfo{{Name: "local_rate_limit"}},
	})

	body := []byte(`{
		"filterType": "local_rate_limit",
		"scopeType": "route",
		"scopeId": "only-one-segment",
		"settings": {"behavior": "disable"}
	}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/filters/"+uuid.NewString()+"/configurations", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestHandleEffectiveConfiguration verifies GET /api/v1/filters/{id}/effective
// builds the route scope from query parameters.
func TestHandleEffectiveConfiguration(t *testing.T) {
	source := filterform.ScopeVirtualHost
	server := newTestServer(&mockFilterManager{
		types:     []filterform.FilterTypeInfo{{Name: "local_rate_limit"}},
		effective: filterform.EffectiveConfig{Disabled: true, Source: &source},
	})

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/filters/"+uuid.NewString()+"/effective?filter_type=local_rate_limit&route_config=rc&virtual_host=vh&route=r", nil)
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var effective filterform.EffectiveConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &effective))
	assert.True(t, effective.Disabled)
	require.NotNil(t, effective.Source)
	assert.Equal(t, filterform.ScopeVirtualHost, *effective.Source)
}

// TestHandleHealth aggregates registered dependency checks.
func TestHandleHealth(t *testing.T) {
	server := newTestServer(&mockFilterManager{})
	server.AddHealthCheck("ok", func(ctx context.Context) error { return nil })

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	server.AddHealthCheck("db", func(ctx context.Context) error {
		return filterform.NewStoreError("down", nil)
	})
	rec = httptest.NewRecorder()
	server.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// TestHandleFiltersBadID verifies a non-UUID filter id is rejected.
func TestHandleFiltersBadID(t *testing.T) {
	server := newTestServer(&mockFilterManager{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/filters/not-a-uuid/configurations", nil)
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
