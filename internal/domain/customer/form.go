package customer

import (
	"strconv"
	"strings"
)

// Field names a form input. The names double as backend JSON keys and
// search filter keys.
type Field string

const (
	FieldID        Field = "id"
	FieldFirstName Field = "first_name"
	FieldLastName  Field = "last_name"
	FieldEmail     Field = "email"
	FieldPassword  Field = "password"
	FieldAddressID Field = "address_id"
	FieldStreet    Field = "street"
	FieldCity      Field = "city"
	FieldState     Field = "state"
	FieldCountry   Field = "country"
	FieldPinCode   Field = "pin_code"
	FieldActive    Field = "active"
)

// Active selector values.
const (
	ActiveTrue  = "true"
	ActiveFalse = "false"
)

// AllFields lists every form field in display order.
var AllFields = []Field{
	FieldID,
	FieldFirstName,
	FieldLastName,
	FieldEmail,
	FieldPassword,
	FieldAddressID,
	FieldStreet,
	FieldCity,
	FieldState,
	FieldCountry,
	FieldPinCode,
	FieldActive,
}

// AddressFields are the form fields filled from an address response.
var AddressFields = []Field{
	FieldAddressID,
	FieldStreet,
	FieldCity,
	FieldState,
	FieldCountry,
	FieldPinCode,
}

// Fields is a snapshot of the form: field name to raw input value.
type Fields map[Field]string

// Get returns the raw value of f.
func (fs Fields) Get(f Field) string {
	return fs[f]
}

// Trimmed returns the value of f without surrounding whitespace.
func (fs Fields) Trimmed(f Field) string {
	return strings.TrimSpace(fs[f])
}

// Clone returns an independent copy.
func (fs Fields) Clone() Fields {
	out := make(Fields, len(fs))
	for k, v := range fs {
		out[k] = v
	}
	return out
}

// EmptyFields returns a form with every field present and blank.
func EmptyFields() Fields {
	out := make(Fields, len(AllFields))
	for _, f := range AllFields {
		out[f] = ""
	}
	return out
}

// ClearedFields returns the form as a reset leaves it: every field blank
// except the active selector, which goes back to "true".
func ClearedFields() Fields {
	out := EmptyFields()
	out[FieldActive] = ActiveTrue
	return out
}

// FromCustomer renders a customer and its first address as form values.
// The address section is blank when the customer has no addresses.
func FromCustomer(c Customer) Fields {
	a, _ := c.FirstAddress()
	return Merge(c, a)
}

// Merge renders the customer section from c and the address section from a.
func Merge(c Customer, a Address) Fields {
	out := CustomerSection(c)
	for k, v := range AddressSection(a) {
		out[k] = v
	}
	return out
}

// CustomerSection renders only the customer fields of c.
func CustomerSection(c Customer) Fields {
	return Fields{
		FieldID:        formatID(c.ID),
		FieldFirstName: c.FirstName,
		FieldLastName:  c.LastName,
		FieldEmail:     c.Email,
		FieldPassword:  c.Password,
		FieldActive:    FormatActive(c.Active),
	}
}

// AddressSection renders only the address fields of a.
func AddressSection(a Address) Fields {
	return Fields{
		FieldAddressID: formatID(a.AddressID),
		FieldStreet:    a.Street,
		FieldCity:      a.City,
		FieldState:     a.State,
		FieldCountry:   a.Country,
		FieldPinCode:   a.PinCode,
	}
}

// FormatActive converts the active flag to its selector value.
func FormatActive(active bool) string {
	if active {
		return ActiveTrue
	}
	return ActiveFalse
}

// ParseActive reports whether v is the "true" selector value. Case is
// ignored.
func ParseActive(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), ActiveTrue)
}

// ParseID parses a numeric identifier from a form value.
func ParseID(v string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
}

func formatID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
