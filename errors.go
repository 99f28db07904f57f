package filterform

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeSchema     ErrorType = "schema"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeInternal   ErrorType = "internal"
)

// Error codes used across the module
const (
	// Catalog errors
	ErrCodeFilterTypeNotFound = "FILTER_TYPE_NOT_FOUND"
	ErrCodeSchemaInvalid      = "SCHEMA_INVALID"
	ErrCodeCatalogUnavailable = "CATALOG_UNAVAILABLE"
	ErrCodeDefinitionConflict = "DEFINITION_CONFLICT"

	// Compiler errors
	ErrCodeDepthLimitExceeded = "DEPTH_LIMIT_EXCEEDED"
	ErrCodeFieldDuplicated    = "FIELD_DUPLICATED"

	// Override errors
	ErrCodeIllegalBehavior = "ILLEGAL_BEHAVIOR"
	ErrCodeInvalidScope    = "INVALID_SCOPE"

	// Configuration errors
	ErrCodeValidationFailed      = "VALIDATION_FAILED"
	ErrCodeConfigurationNotFound = "CONFIGURATION_NOT_FOUND"

	// Store errors
	ErrCodeStoreFailure = "STORE_FAILURE"

	// Generic errors
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// FilterFormError is the unified error type for catalog, compiler, resolver
// and store failures.
type FilterFormError struct {
	Type    ErrorType      `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Field   string         `json:"field,omitempty"`
	Scope   string         `json:"scope,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

func (e *FilterFormError) Error() string {
	switch {
	case e.Scope != "":
		return fmt.Sprintf("[%s:%s] scope '%s': %s", e.Type, e.Code, e.Scope, e.Message)
	case e.Field != "":
		return fmt.Sprintf("[%s:%s] field '%s': %s", e.Type, e.Code, e.Field, e.Message)
	default:
		return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
	}
}

func (e *FilterFormError) Unwrap() error {
	return e.Cause
}

// WithField adds field context to the error
func (e *FilterFormError) WithField(field string) *FilterFormError {
	e.Field = field
	return e
}

// WithScope adds scope context to the error
func (e *FilterFormError) WithScope(scope ScopeIdentity) *FilterFormError {
	e.Scope = scope.String()
	return e
}

// WithCause adds a cause to the error
func (e *FilterFormError) WithCause(cause error) *FilterFormError {
	e.Cause = cause
	return e
}

// WithDetail adds a single detail to the error
func (e *FilterFormError) WithDetail(key string, value any) *FilterFormError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// NewFilterFormError creates a new FilterFormError
func NewFilterFormError(errorType ErrorType, code, message string) *FilterFormError {
	return &FilterFormError{
		Type:    errorType,
		Code:    code,
		Message: message,
	}
}

// NewFilterTypeNotFoundError creates a filter type not found error
func NewFilterTypeNotFoundError(name string) *FilterFormError {
	return NewFilterFormError(ErrorTypeNotFound, ErrCodeFilterTypeNotFound,
		fmt.Sprintf("filter type '%s' not found", name)).
		WithDetail("filter_type", name)
}

// NewSchemaInvalidError creates a schema invalid error
func NewSchemaInvalidError(message string) *FilterFormError {
	return NewFilterFormError(ErrorTypeSchema, ErrCodeSchemaInvalid, message)
}

// NewCatalogUnavailableError creates a catalog unavailable error
func NewCatalogUnavailableError(message string, cause error) *FilterFormError {
	return NewFilterFormError(ErrorTypeInternal, ErrCodeCatalogUnavailable, message).WithCause(cause)
}

// NewDepthLimitError creates a depth limit exceeded error
func NewDepthLimitError(path string, limit int) *FilterFormError {
	return NewFilterFormError(ErrorTypeSchema, ErrCodeDepthLimitExceeded,
		fmt.Sprintf("schema nesting exceeds the depth limit of %d", limit)).
		WithField(path).
		WithDetail("limit", limit)
}

// NewIllegalBehaviorError creates an illegal override behavior error
func NewIllegalBehaviorError(behavior, class string) *FilterFormError {
	return NewFilterFormError(ErrorTypeValidation, ErrCodeIllegalBehavior,
		fmt.Sprintf("behavior '%s' is not legal for per-route behavior class '%s'", behavior, class)).
		WithDetail("behavior", behavior).
		WithDetail("class", class)
}

// NewInvalidScopeError creates an invalid scope error
func NewInvalidScopeError(message string) *FilterFormError {
	return NewFilterFormError(ErrorTypeValidation, ErrCodeInvalidScope, message)
}

// NewValidationError creates a validation error with field context
func NewValidationError(field, message string) *FilterFormError {
	return NewFilterFormError(ErrorTypeValidation, ErrCodeValidationFailed, message).WithField(field)
}

// NewConfigurationNotFoundError creates a configuration not found error
func NewConfigurationNotFoundError(scope ScopeIdentity) *FilterFormError {
	return NewFilterFormError(ErrorTypeNotFound, ErrCodeConfigurationNotFound,
		"no configuration stored at scope").WithScope(scope)
}

// NewStoreError creates a persistence failure error
func NewStoreError(message string, cause error) *FilterFormError {
	return NewFilterFormError(ErrorTypeInternal, ErrCodeStoreFailure, message).WithCause(cause)
}

// NewInternalError creates an internal error
func NewInternalError(message string, cause error) *FilterFormError {
	return NewFilterFormError(ErrorTypeInternal, ErrCodeInternalError, message).WithCause(cause)
}

// IsNotFound checks whether an error is a not-found FilterFormError
func IsNotFound(err error) bool {
	var ffe *FilterFormError
	if errors.As(err, &ffe) {
		return ffe.Type == ErrorTypeNotFound
	}
	return false
}

// IsValidationError checks whether an error is a validation FilterFormError
func IsValidationError(err error) bool {
	var ffe *FilterFormError
	if errors.As(err, &ffe) {
		return ffe.Type == ErrorTypeValidation
	}
	return false
}

// IsSchemaError checks whether an error is a schema FilterFormError
func IsSchemaError(err error) bool {
	var ffe *FilterFormError
	if errors.As(err, &ffe) {
		return ffe.Type == ErrorTypeSchema
	}
	return false
}
