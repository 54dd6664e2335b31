package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeMissingInput         ErrorType = "MISSING_INPUT"
	ErrTypeSchema               ErrorType = "SCHEMA"
	ErrTypeInsufficientData     ErrorType = "INSUFFICIENT_DATA"
	ErrTypeInsufficientHistory  ErrorType = "INSUFFICIENT_HISTORY"
	ErrTypeInsufficientSamples  ErrorType = "INSUFFICIENT_SAMPLES"
	ErrTypeParsing              ErrorType = "PARSING"
	ErrTypeStorage              ErrorType = "STORAGE"
	ErrTypeValidation           ErrorType = "VALIDATION"
	ErrTypeConfig               ErrorType = "CONFIG"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// IsType reports whether err is (or wraps) an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// Helper functions for the pipeline error taxonomy

// NewMissingInputError reports an absent required input file. Fatal: the run
// aborts immediately.
func NewMissingInputError(file string, cause error) *AppError {
	return NewAppError(ErrTypeMissingInput, fmt.Sprintf("required input file not found: %s", file), cause).
		WithContext("file", file)
}

// NewSchemaError reports a column that could not be resolved, or resolved
// ambiguously, in a named input table.
func NewSchemaError(table, column, detail string) *AppError {
	return NewAppError(ErrTypeSchema, fmt.Sprintf("table %s: column %q %s", table, column, detail), nil).
		WithContext("table", table).
		WithContext("column", column)
}

// NewInsufficientDataError reports that no records survived merging.
func NewInsufficientDataError(stage string) *AppError {
	return NewAppError(ErrTypeInsufficientData, fmt.Sprintf("no records available at stage %s", stage), nil).
		WithContext("stage", stage)
}

// NewInsufficientHistoryError reports fewer months of history than the
// configured window requires. Both counts are named in the message.
func NewInsufficientHistoryError(required, available int) *AppError {
	return NewAppError(ErrTypeInsufficientHistory,
		fmt.Sprintf("not enough months of history: need %d, have %d", required, available), nil).
		WithContext("required_months", required).
		WithContext("available_months", available)
}

// NewInsufficientSamplesError reports fewer product samples than the model
// fitting minimum. The historical ranking still proceeds; only the predictive
// ranking is skipped.
func NewInsufficientSamplesError(required, available int) *AppError {
	return NewAppError(ErrTypeInsufficientSamples,
		fmt.Sprintf("not enough product samples to fit a model: need %d, have %d", required, available), nil).
		WithContext("required_samples", required).
		WithContext("available_samples", available)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}
