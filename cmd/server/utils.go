package main

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"

	"github.com/lychee-technology/filterform"
)

// APIResponse is the standard error response format
type APIResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// writeJSON writes JSON response to http.ResponseWriter
func writeJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, statusCode int, message string) error {
	return writeJSON(w, statusCode, APIResponse{
		Success: false,
		Error:   message,
	})
}

// writeFilterFormError maps the typed error family onto HTTP status codes.
func writeFilterFormError(w http.ResponseWriter, err error) error {
	switch {
	case filterform.IsNotFound(err):
		return writeError(w, http.StatusNotFound, err.Error())
	case filterform.IsValidationError(err):
		return writeError(w, http.StatusBadRequest, err.Error())
	case filterform.IsSchemaError(err):
		return writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		return writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// readJSONBody reads and decodes JSON from request body
func readJSONBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as int with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvBool gets an environment variable as bool with a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
