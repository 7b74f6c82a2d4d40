package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingSession is returned when a lead is submitted without a
// session identifier.
var ErrMissingSession = errors.New("session ID is required")

// ErrSessionNotFound is returned on history lookups for unknown session
// identifiers. Callers should discard their local session state and
// start fresh.
var ErrSessionNotFound = errors.New("session not found")

// FieldError describes a single invalid lead form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries per-field detail for a rejected lead form.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return "invalid form data: " + strings.Join(parts, "; ")
}

// UpstreamError wraps a Response Generator failure. Context Provider
// failures never surface as errors; they degrade to fallback context.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
