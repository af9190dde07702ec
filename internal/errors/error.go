package errors

import (
	"errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig     Category = "config"
	CategoryValidation Category = "validation"
	CategoryCatalog    Category = "catalog"
	CategorySession    Category = "session"
	CategoryProtocol   Category = "protocol"
	CategoryCLI        Category = "cli"
)

// ChronoError is a structured error with a registered code, detail and suggestion.
type ChronoError struct {
	// Code is a unique error identifier (e.g., "E080").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Fields lists the offending input fields, in display order.
	Fields []string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *ChronoError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *ChronoError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is a ChronoError with the same code.
func (e *ChronoError) Is(target error) bool {
	t, ok := target.(*ChronoError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// WithDetail adds a detailed explanation to the error.
func (e *ChronoError) WithDetail(d string) *ChronoError {
	e.Detail = d
	return e
}

// WithFields records the offending fields.
func (e *ChronoError) WithFields(fields ...string) *ChronoError {
	e.Fields = append(e.Fields, fields...)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *ChronoError) WithSuggestion(s string) *ChronoError {
	e.Suggestion = s
	return e
}

// Wrap wraps another error.
func (e *ChronoError) Wrap(err error) *ChronoError {
	e.Wrapped = err
	return e
}

// New creates a ChronoError from a registered error code.
func New(code string) *ChronoError {
	template, ok := registry[code]
	if !ok {
		return &ChronoError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &ChronoError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
	}
}

// Newf creates a new ChronoError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *ChronoError {
	return &ChronoError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a ChronoError.
// Errors that already are (or wrap) a ChronoError are returned as-is.
func FromError(err error, code string) *ChronoError {
	if err == nil {
		return nil
	}
	var ce *ChronoError
	if errors.As(err, &ce) {
		return ce
	}
	return New(code).Wrap(err)
}

// CategoryOf returns the category of the first ChronoError in err's chain.
func CategoryOf(err error) Category {
	var ce *ChronoError
	if errors.As(err, &ce) {
		return ce.Category
	}
	return ""
}
