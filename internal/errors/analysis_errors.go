package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory represents different types of errors that can occur
type ErrorCategory string

const (
	// Fatal errors that should stop the analysis before it starts
	ErrorCategoryFatal         ErrorCategory = "FATAL"
	ErrorCategoryConfiguration ErrorCategory = "CONFIG"

	// Recoverable data-quality conditions
	ErrorCategoryDataGap    ErrorCategory = "DATA_GAP"
	ErrorCategoryValidation ErrorCategory = "VALIDATION"
	ErrorCategorySample     ErrorCategory = "SAMPLE"

	// Transient errors from data acquisition
	ErrorCategoryNetwork   ErrorCategory = "NETWORK"
	ErrorCategoryTimeout   ErrorCategory = "TIMEOUT"
	ErrorCategoryRateLimit ErrorCategory = "RATE_LIMIT"
)

// AnalysisError represents a categorized error with context
type AnalysisError struct {
	Category   ErrorCategory
	Component  string
	Operation  string
	Message    string
	Underlying error
	Context    map[string]interface{}
	Retryable  bool
}

// Error implements the error interface
func (e *AnalysisError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s in %s: %v", e.Category, e.Component, e.Operation, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s in %s", e.Category, e.Component, e.Operation, e.Message)
}

// Unwrap returns the underlying error for error unwrapping
func (e *AnalysisError) Unwrap() error {
	return e.Underlying
}

// IsRetryable returns whether this error can be retried
func (e *AnalysisError) IsRetryable() bool {
	return e.Retryable
}

// IsFatal returns whether this error should stop the run
func (e *AnalysisError) IsFatal() bool {
	return e.Category == ErrorCategoryFatal ||
		e.Category == ErrorCategoryConfiguration
}

// NewAnalysisError creates a new categorized analysis error
func NewAnalysisError(category ErrorCategory, component, operation, message string) *AnalysisError {
	return &AnalysisError{
		Category:  category,
		Component: component,
		Operation: operation,
		Message:   message,
		Context:   make(map[string]interface{}),
		Retryable: isRetryableCategory(category),
	}
}

// WrapError wraps an existing error with analysis error context
func WrapError(err error, category ErrorCategory, component, operation string) *AnalysisError {
	if err == nil {
		return nil
	}

	return &AnalysisError{
		Category:   category,
		Component:  component,
		Operation:  operation,
		Message:    "operation failed",
		Underlying: err,
		Context:    make(map[string]interface{}),
		Retryable:  isRetryableCategory(category),
	}
}

// WithContext adds context information to the error
func (e *AnalysisError) WithContext(key string, value interface{}) *AnalysisError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithMessage replaces the default message
func (e *AnalysisError) WithMessage(message string) *AnalysisError {
	e.Message = message
	return e
}

func isRetryableCategory(category ErrorCategory) bool {
	switch category {
	case ErrorCategoryNetwork, ErrorCategoryTimeout, ErrorCategoryRateLimit:
		return true
	default:
		return false
	}
}

// NewConfigError creates a fatal configuration error
func NewConfigError(component, operation, message string) *AnalysisError {
	return NewAnalysisError(ErrorCategoryConfiguration, component, operation, message)
}

// NewDataGapError creates a recoverable data-gap error
func NewDataGapError(component, operation, message string) *AnalysisError {
	return NewAnalysisError(ErrorCategoryDataGap, component, operation, message)
}

// NewSampleWarning creates a non-fatal small-sample warning
func NewSampleWarning(component, operation, message string) *AnalysisError {
	return NewAnalysisError(ErrorCategorySample, component, operation, message)
}

// IsCategory reports whether err is an AnalysisError of the given category
func IsCategory(err error, category ErrorCategory) bool {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Category == category
	}
	return false
}
