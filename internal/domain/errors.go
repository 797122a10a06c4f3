package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ValidationError carries one message per offending field, keyed by the
// field's JSON name.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k])
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

type TransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *TransitionError) Error() string {
	if !e.To.Valid() {
		return fmt.Sprintf("unknown order status %q", e.To)
	}
	return fmt.Sprintf("order cannot move from %s to %s", e.From, e.To)
}
