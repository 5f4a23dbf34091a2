package terminal

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CSCI-GA-2820-SP23-003/customers/internal/domain/customer"
)

func TestPresenter_Violations(t *testing.T) {
	var buf bytes.Buffer
	p := NewPresenter(&buf)

	p.ShowViolations(customer.ValidationResult{
		customer.FieldEmail:    customer.ViolationBadFormat,
		customer.FieldLastName: customer.ViolationMissing,
	})
	out := buf.String()
	assert.Contains(t, out, "This doesn't appear to be a valid email address")
	assert.Contains(t, out, "last_name")
	assert.Less(t, strings.Index(out, "last_name"), strings.Index(out, "email"), "display order")
	assert.Len(t, p.Violations(), 2)

	// A new result replaces the previous marks.
	p.ShowViolations(customer.ValidationResult{customer.FieldID: customer.ViolationMissing})
	assert.Equal(t, customer.ValidationResult{customer.FieldID: customer.ViolationMissing}, p.Violations())

	p.ClearViolations()
	assert.Empty(t, p.Violations())
}

func TestPresenter_Flash(t *testing.T) {
	var buf bytes.Buffer
	p := NewPresenter(&buf)

	p.Flash("Success")
	p.Flash("Server error!")

	assert.Equal(t, "Server error!", p.Status())
	assert.Equal(t, "» Success\n» Server error!\n", buf.String())
}

func TestPresenter_RenderRows(t *testing.T) {
	var buf bytes.Buffer
	p := NewPresenter(&buf)

	c := customer.Customer{ID: 3, FirstName: "Sam", LastName: "Lee", Email: "sam@example.com", Password: "pw", Active: true}
	p.RenderRows([]customer.Row{
		{Customer: c, Address: customer.Address{AddressID: 5, Street: "1 Main", City: "NYC", State: "NY", Country: "US", PinCode: "10001"}},
		{Customer: c, Address: customer.Address{AddressID: 6, Street: "2 Side", City: "LA", State: "CA", Country: "US", PinCode: "90001"}},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[0], "Pin Code")
	assert.Contains(t, lines[1], "NYC")
	assert.Contains(t, lines[2], "LA")
	assert.True(t, strings.HasSuffix(lines[2], "true"))

	buf.Reset()
	p.RenderRows(nil)
	assert.Equal(t, "(no results)\n", buf.String())
}

func TestPresenter_RenderForm(t *testing.T) {
	var buf bytes.Buffer
	p := NewPresenter(&buf)

	fields := customer.EmptyFields()
	fields[customer.FieldFirstName] = "Sam"
	fields[customer.FieldPassword] = "secret"
	p.ShowViolations(customer.ValidationResult{customer.FieldEmail: customer.ViolationMissing})
	p.Flash("Form Error(s)")
	buf.Reset()

	p.RenderForm(fields)
	out := buf.String()

	assert.Contains(t, out, "Sam")
	assert.Contains(t, out, "******")
	assert.NotContains(t, out, "secret")
	assert.Contains(t, out, "! Required field")
	assert.Contains(t, out, "status: Form Error(s)")
}
