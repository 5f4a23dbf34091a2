package terminal

import (
	"regexp"
	"strings"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/CSCI-GA-2820-SP23-003/customers/internal/domain/customer"
)

// FakeFields fills every submission field with generated data. The
// identifiers are left blank so the result is ready for a create.
func FakeFields(f *gofakeit.Faker) customer.Fields {
	first := f.FirstName()
	last := f.LastName()
	addr := f.Address()

	active := customer.ActiveFalse
	if f.Bool() {
		active = customer.ActiveTrue
	}

	return customer.Fields{
		customer.FieldID:        "",
		customer.FieldFirstName: first,
		customer.FieldLastName:  last,
		customer.FieldEmail:     fakeEmail(f, first, last),
		customer.FieldPassword:  f.Password(true, true, true, false, false, 12),
		customer.FieldAddressID: "",
		customer.FieldStreet:    addr.Street,
		customer.FieldCity:      addr.City,
		customer.FieldState:     addr.State,
		customer.FieldCountry:   addr.Country,
		customer.FieldPinCode:   addr.Zip,
		customer.FieldActive:    active,
	}
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// fakeEmail derives an address from the generated name. Generated names can
// carry apostrophes and spaces, which the form's email rule rejects in the
// domain part.
func fakeEmail(f *gofakeit.Faker, first, last string) string {
	local := nonAlnum.ReplaceAllString(strings.ToLower(first), "") + "." +
		nonAlnum.ReplaceAllString(strings.ToLower(last), "")
	return strings.Trim(local, ".") + "@example." + f.DomainSuffix()
}
