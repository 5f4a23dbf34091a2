package console

import (
	"errors"
	"fmt"

	"github.com/CSCI-GA-2820-SP23-003/customers/internal/domain/customer"
)

// ErrIncompleteFields is returned by PayloadBuilder when handed a field set
// the Validator would have rejected.
var ErrIncompleteFields = errors.New("console: incomplete field set")

// PayloadBuilder turns validated form values into backend request bodies.
type PayloadBuilder struct{}

// Build returns the customer and address payloads for action. On create the
// address is nested in the customer payload and the returned AddressPayload
// is the same nested value. On update the customer payload carries no
// addresses and the address payload is submitted on its own.
func (PayloadBuilder) Build(action Action, fields customer.Fields) (customer.CustomerPayload, customer.AddressPayload, error) {
	for _, f := range requiredSubmissionFields {
		if fields.Trimmed(f) == "" {
			return customer.CustomerPayload{}, customer.AddressPayload{}, fmt.Errorf("%w: %s is empty", ErrIncompleteFields, f)
		}
	}

	active := customer.ParseActive(fields.Get(customer.FieldActive))
	accActive := 0
	if active {
		accActive = 1
	}

	cust := customer.CustomerPayload{
		FirstName: fields.Trimmed(customer.FieldFirstName),
		LastName:  fields.Trimmed(customer.FieldLastName),
		Email:     fields.Trimmed(customer.FieldEmail),
		Password:  fields.Trimmed(customer.FieldPassword),
		Active:    active,
		AccActive: accActive,
	}
	addr := customer.AddressPayload{
		Street:     fields.Trimmed(customer.FieldStreet),
		City:       fields.Trimmed(customer.FieldCity),
		State:      fields.Trimmed(customer.FieldState),
		Country:    fields.Trimmed(customer.FieldCountry),
		PinCode:    fields.Trimmed(customer.FieldPinCode),
		CustomerID: customer.UnassignedCustomerID,
	}

	switch action {
	case ActionCreate:
		cust.Addresses = []customer.AddressPayload{addr}
	case ActionUpdate:
		addressID, err := customer.ParseID(fields.Get(customer.FieldAddressID))
		if err != nil {
			return customer.CustomerPayload{}, customer.AddressPayload{}, fmt.Errorf("%w: address_id: %v", ErrIncompleteFields, err)
		}
		addr.AddressID = addressID
		cust.Addresses = []customer.AddressPayload{}
	default:
		return customer.CustomerPayload{}, customer.AddressPayload{}, fmt.Errorf("console: no payload for action %q", action)
	}

	return cust, addr, nil
}

var requiredSubmissionFields = []customer.Field{
	customer.FieldFirstName,
	customer.FieldLastName,
	customer.FieldEmail,
	customer.FieldPassword,
	customer.FieldStreet,
	customer.FieldCity,
	customer.FieldState,
	customer.FieldCountry,
	customer.FieldPinCode,
	customer.FieldActive,
}
