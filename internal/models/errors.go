package models

import (
	"errors"
	"sort"
	"strings"
)

var (
	// store errors
	ErrNotFound     = errors.New("not found")
	ErrDuplicateKey = errors.New("already exists")

	// identity errors
	ErrUnknownEmail  = errors.New("unknown email")
	ErrWrongPassword = errors.New("wrong password")
	ErrInvalidToken  = errors.New("invalid token")

	// checkout errors
	ErrEmptyCart           = errors.New("cart is empty")
	ErrProviderUnavailable = errors.New("payment provider unavailable")
	ErrPaymentNotCompleted = errors.New("payment not completed")
	ErrAmountMismatch      = errors.New("paid amount does not match checkout total")
)

// ValidationError collects per-field messages for a submitted form.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// OrNil returns nil when no field failed, so callers can return it directly.
func (e *ValidationError) OrNil() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
