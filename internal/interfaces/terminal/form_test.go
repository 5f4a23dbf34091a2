package terminal

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/CSCI-GA-2820-SP23-003/customers/internal/domain/customer"
)

func TestFormState(t *testing.T) {
	s := NewFormState()
	assert.Equal(t, customer.EmptyFields(), s.Fields())

	s.Set(customer.FieldFirstName, "Sam")
	s.SetFields(customer.Fields{customer.FieldCity: "NYC"})
	assert.Equal(t, "Sam", s.Get(customer.FieldFirstName))
	assert.Equal(t, "NYC", s.Get(customer.FieldCity))

	snapshot := s.Fields()
	snapshot[customer.FieldCity] = "LA"
	assert.Equal(t, "NYC", s.Get(customer.FieldCity), "Fields returns a copy")

	s.Clear()
	first := s.Fields()
	s.Clear()
	assert.Equal(t, first, s.Fields())
	assert.Equal(t, customer.ClearedFields(), first)
}

func TestFormState_Concurrent(t *testing.T) {
	s := NewFormState()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.SetFields(customer.Fields{customer.FieldStreet: "x"})
		}()
		go func() {
			defer wg.Done()
			_ = s.Fields()
		}()
	}
	wg.Wait()
	assert.Equal(t, "x", s.Get(customer.FieldStreet))
}
