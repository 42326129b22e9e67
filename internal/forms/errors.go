package forms

import (
	"fmt"
	"sort"
	"strings"

	"github.com/desertthunder/rango/internal/shared"
)

// Errors collects validation messages keyed by form field, plus messages that belong to no single field.
//
// A non-nil *Errors always carries at least one message.
type Errors struct {
	Fields   map[string][]string
	NonField []string
}

// Add appends msg to field's messages. An empty field records a non-field message.
func (e *Errors) Add(field, msg string) {
	if field == "" {
		e.NonField = append(e.NonField, msg)
		return
	}
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// Merge copies every message of other into e.
func (e *Errors) Merge(other *Errors) {
	if other == nil {
		return
	}
	for field, msgs := range other.Fields {
		for _, msg := range msgs {
			e.Add(field, msg)
		}
	}
	e.NonField = append(e.NonField, other.NonField...)
}

// Get returns the messages for field. Safe to call on a nil *Errors, which templates do.
func (e *Errors) Get(field string) []string {
	if e == nil {
		return nil
	}
	return e.Fields[field]
}

// Has reports whether field has any messages.
func (e *Errors) Has(field string) bool {
	return len(e.Get(field)) > 0
}

// Empty reports whether no messages have been recorded.
func (e *Errors) Empty() bool {
	return e == nil || (len(e.Fields) == 0 && len(e.NonField) == 0)
}

// OrNil returns e, or nil when it holds no messages.
func (e *Errors) OrNil() *Errors {
	if e.Empty() {
		return nil
	}
	return e
}

// SortedFields returns the names of fields with messages in alphabetical order.
func (e *Errors) SortedFields() []string {
	if e == nil {
		return nil
	}
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

func (e *Errors) Error() string {
	fields := e.SortedFields()
	parts := make([]string, 0, len(fields)+len(e.NonField))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(e.Fields[f], " ")))
	}
	parts = append(parts, e.NonField...)
	return fmt.Sprintf("%s: %s", shared.ErrInvalidInput, strings.Join(parts, "; "))
}

// Unwrap lets callers match any form failure with errors.Is(err, shared.ErrInvalidInput).
func (e *Errors) Unwrap() error {
	return shared.ErrInvalidInput
}
