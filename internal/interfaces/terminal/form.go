// Package terminal is the console's text front end: the form state, the
// status and table output, interactive prompts, YAML form snapshots and
// generated sample data.
package terminal

import (
	"sync"

	"github.com/CSCI-GA-2820-SP23-003/customers/internal/domain/customer"
)

// FormState holds the operator's form. Safe for concurrent use; the last
// write wins.
type FormState struct {
	mu     sync.RWMutex
	values customer.Fields
}

// NewFormState returns a form with every field blank.
func NewFormState() *FormState {
	return &FormState{values: customer.EmptyFields()}
}

// Fields returns a snapshot of every form value.
func (s *FormState) Fields() customer.Fields {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.Clone()
}

// Get returns one form value.
func (s *FormState) Get(f customer.Field) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.Get(f)
}

// Set writes one form value.
func (s *FormState) Set(f customer.Field, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[f] = value
}

// SetFields overwrites the given fields and leaves the others alone.
func (s *FormState) SetFields(fields customer.Fields) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for f, v := range fields {
		s.values[f] = v
	}
}

// Clear resets every field to customer.ClearedFields.
func (s *FormState) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = customer.ClearedFields()
}
