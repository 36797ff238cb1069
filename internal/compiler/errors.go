package compiler

import (
	"errors"
	"fmt"
)

// Semantic error codes (E200-E299)
const (
	ErrKindMismatch      = "E201" // filter shape does not fit the field kind
	ErrRangeKindConflict = "E202" // range bounds do not read as the field kind
	ErrUnknownField      = "E203" // field is not in the catalog
)

// SemanticError reports a well-formed query that does not fit the field
// catalog.
type SemanticError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *SemanticError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// IsSemanticError reports whether err is or wraps a *SemanticError.
func IsSemanticError(err error) bool {
	var se *SemanticError
	return errors.As(err, &se)
}

func semanticErrorf(code, field, format string, args ...any) *SemanticError {
	return &SemanticError{Code: code, Field: field, Message: fmt.Sprintf(format, args...)}
}
