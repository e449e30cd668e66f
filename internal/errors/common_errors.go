package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeParsing       ErrorType = "PARSING"
	ErrTypeValidation    ErrorType = "VALIDATION"
	ErrTypeNotFound      ErrorType = "NOT_FOUND"
	ErrTypeConfig        ErrorType = "CONFIG"
	ErrTypeSheetNotFound ErrorType = "SHEET_NOT_FOUND"
	ErrTypeWorkbookRead  ErrorType = "WORKBOOK_READ"
	ErrTypeNoPeriodData  ErrorType = "NO_PERIOD_DATA"
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

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewSheetNotFoundError reports that none of the candidate sheet names is
// present. The sheets that do exist travel in the context so callers can
// show them to the user.
func NewSheetNotFoundError(candidates, present []string) *AppError {
	msg := fmt.Sprintf("no sheet named %s", strings.Join(candidates, " / "))
	return NewAppError(ErrTypeSheetNotFound, msg, nil).
		WithContext("candidates", candidates).
		WithContext("sheets", present)
}

// NewWorkbookReadError wraps a failure to open or read a workbook.
func NewWorkbookReadError(cause error) *AppError {
	return NewAppError(ErrTypeWorkbookRead, "workbook could not be read", cause)
}

// NewNoPeriodDataError reports a master file without usable LTM periods.
func NewNoPeriodDataError(message string) *AppError {
	return NewAppError(ErrTypeNoPeriodData, message, nil)
}

// IsType reports whether err wraps an AppError of the given type.
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == t
}
