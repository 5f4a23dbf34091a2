package terminal

import (
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"

	"github.com/CSCI-GA-2820-SP23-003/customers/internal/application/console"
	"github.com/CSCI-GA-2820-SP23-003/customers/internal/domain/customer"
)

func TestFakeFields_PassCreateValidation(t *testing.T) {
	v := console.NewValidator()
	f := gofakeit.New(42)

	for i := 0; i < 50; i++ {
		fields := FakeFields(f)
		assert.Empty(t, fields.Get(customer.FieldID))
		assert.Empty(t, fields.Get(customer.FieldAddressID))
		assert.True(t, v.Validate(console.ActionCreate, fields).OK(), "generated form rejected: %v", fields)
	}
}

func TestFakeFields_Deterministic(t *testing.T) {
	assert.Equal(t, FakeFields(gofakeit.New(7)), FakeFields(gofakeit.New(7)))
}
