package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/lychee-technology/filterform"
)

// handleFilterTypeList handles GET /api/v1/filter-types
func (s *Server) handleFilterTypeList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.manager.ListFilterTypes())
}

// handleFilterType handles
//
//	GET /api/v1/filter-types/{name}
//	GET /api/v1/filter-types/{name}/form
//	GET /api/v1/filter-types/{name}/defaults
func (s *Server) handleFilterType(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	name, action, err := parseFilterTypePath(r.URL.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch action {
	case "":
		info, err := s.manager.GetFilterType(name)
		if err != nil {
			writeFilterFormError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, info)
	case "form":
		form, err := s.manager.CompileForm(name)
		if err != nil {
			writeFilterFormError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, form)
	case "defaults":
		defaults, err := s.manager.DefaultConfig(name)
		if err != nil {
			writeFilterFormError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"config": defaults})
	default:
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown filter type action: %s", action))
	}
}

// handleFilters handles
//
//	GET    /api/v1/filters/{id}/configurations
//	PUT    /api/v1/filters/{id}/configurations
//	DELETE /api/v1/filters/{id}/configurations
//	GET    /api/v1/filters/{id}/effective
func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	filterID, action, err := parseFilterPath(r.URL.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch action {
	case "configurations":
		switch r.Method {
		case http.MethodGet:
			s.handleListConfigurations(w, r, filterID)
		case http.MethodPut:
			s.handleSaveConfiguration(w, r, filterID)
		case http.MethodDelete:
			s.handleRemoveConfiguration(w, r, filterID)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	case "effective":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.handleEffectiveConfiguration(w, r, filterID)
	default:
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown filter action: %s", action))
	}
}

func (s *Server) handleListConfigurations(w http.ResponseWriter, r *http.Request, filterID uuid.UUID) {
	records, err := s.manager.ListConfigurations(r.Context(), filterID)
	if err != nil {
		writeFilterFormError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// saveConfigurationRequest is the PUT body for one scope's settings. A null
// settings field resets the scope to use_base.
type saveConfigurationRequest struct {
	FilterType string                       `json:"filterType"`
	ScopeType  filterform.ScopeType         `json:"scopeType"`
	ScopeID    string                       `json:"scopeId"`
	Settings   *filterform.PerRouteSettings `json:"settings"`
}

func (s *Server) handleSaveConfiguration(w http.ResponseWriter, r *http.Request, filterID uuid.UUID) {
	var req saveConfigurationRequest
	if err := readJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid json body: %v", err))
		return
	}
	if req.FilterType == "" {
		writeError(w, http.StatusBadRequest, "filterType is required")
		return
	}
	scope, err := filterform.ParseScopeIdentity(req.ScopeType, req.ScopeID)
	if err != nil {
		writeFilterFormError(w, err)
		return
	}

	if err := s.manager.SaveConfiguration(r.Context(), req.FilterType, filterID, scope, req.Settings); err != nil {
		writeFilterFormError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true})
}

func (s *Server) handleRemoveConfiguration(w http.ResponseWriter, r *http.Request, filterID uuid.UUID) {
	query := r.URL.Query()
	scope, err := filterform.ParseScopeIdentity(
		filterform.ScopeType(query.Get("scope_type")), query.Get("scope_id"))
	if err != nil {
		writeFilterFormError(w, err)
		return
	}

	if err := s.manager.RemoveConfiguration(r.Context(), filterID, scope); err != nil {
		writeFilterFormError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true})
}

func (s *Server) handleEffectiveConfiguration(w http.ResponseWriter, r *http.Request, filterID uuid.UUID) {
	query := r.URL.Query()
	filterType := query.Get("filter_type")
	if filterType == "" {
		writeError(w, http.StatusBadRequest, "filter_type is required")
		return
	}
	route := filterform.NewRouteScope(
		query.Get("route_config"), query.Get("virtual_host"), query.Get("route"))

	effective, err := s.manager.EffectiveConfiguration(r.Context(), filterType, filterID, route, nil)
	if err != nil {
		writeFilterFormError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, effective)
}

// handleHealth handles GET /healthz, running every registered dependency
// check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	status := http.StatusOK
	checks := make(map[string]string, len(s.healthChecks))
	for name, check := range s.healthChecks {
		if err := check(r.Context()); err != nil {
			status = http.StatusServiceUnavailable
			checks[name] = err.Error()
		} else {
			checks[name] = "ok"
		}
	}
	writeJSON(w, status, map[string]any{
		"healthy": status == http.StatusOK,
		"checks":  checks,
	})
}

// parseFilterTypePath parses /api/v1/filter-types/{name} or
// /api/v1/filter-types/{name}/{action}
func parseFilterTypePath(path string) (name string, action string, err error) {
	path = strings.TrimPrefix(path, "/api/v1/filter-types/")
	path = strings.Trim(path, "/")
	if path == "" {
		return "", "", fmt.Errorf("invalid path: empty filter type name")
	}

	parts := strings.Split(path, "/")
	switch len(parts) {
	case 1:
		return parts[0], "", nil
	case 2:
		return parts[0], parts[1], nil
	default:
		return "", "", fmt.Errorf("invalid path format")
	}
}

// parseFilterPath parses /api/v1/filters/{id}/{action}
func parseFilterPath(path string) (uuid.UUID, string, error) {
	path = strings.TrimPrefix(path, "/api/v1/filters/")
	path = strings.Trim(path, "/")

	parts := strings.Split(path, "/")
	if len(parts) != 2 {
		return uuid.Nil, "", fmt.Errorf("invalid path format")
	}
	filterID, err := uuid.Parse(parts[0])
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("invalid filter id: %v", err)
	}
	return filterID, parts[1], nil
}
