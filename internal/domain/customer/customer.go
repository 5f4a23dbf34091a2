// Package customer holds the customer resource as the console sees it: the
// records returned by the backend, the wire payloads sent to it and the flat
// form the operator edits.
package customer

// Customer is the backend's canonical customer record.
type Customer struct {
	ID        int64     `json:"id,omitempty" yaml:"id,omitempty"`
	FirstName string    `json:"first_name" yaml:"first_name"`
	LastName  string    `json:"last_name" yaml:"last_name"`
	Email     string    `json:"email" yaml:"email"`
	Password  string    `json:"password" yaml:"password"`
	Active    bool      `json:"active" yaml:"active"`
	Addresses []Address `json:"addresses" yaml:"addresses"`
}

// Address is owned by exactly one Customer. CustomerID 0 means the backend
// has not assigned the owner yet.
type Address struct {
	AddressID  int64  `json:"address_id,omitempty" yaml:"address_id,omitempty"`
	Street     string `json:"street" yaml:"street"`
	City       string `json:"city" yaml:"city"`
	State      string `json:"state" yaml:"state"`
	Country    string `json:"country" yaml:"country"`
	PinCode    string `json:"pin_code" yaml:"pin_code"`
	CustomerID int64  `json:"customer_id" yaml:"customer_id"`
}

// UnassignedCustomerID is the back-reference sent for addresses whose owner
// the backend resolves on its own.
const UnassignedCustomerID int64 = 0

// FirstAddress returns the customer's first address, if it has any.
func (c Customer) FirstAddress() (Address, bool) {
	if len(c.Addresses) == 0 {
		return Address{}, false
	}
	return c.Addresses[0], true
}

// CustomerPayload is the body of POST /customers and PUT /customers/{id}.
// The backend reads both Active and AccActive.
type CustomerPayload struct {
	FirstName string           `json:"first_name"`
	LastName  string           `json:"last_name"`
	Email     string           `json:"email"`
	Password  string           `json:"password"`
	Active    bool             `json:"active"`
	AccActive int              `json:"acc_active"`
	Addresses []AddressPayload `json:"addresses"`
}

// AddressPayload is an address as submitted to the backend, either nested in
// a CustomerPayload on create or on its own on update.
type AddressPayload struct {
	AddressID  int64  `json:"address_id,omitempty"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country"`
	PinCode    string `json:"pin_code"`
	CustomerID int64  `json:"customer_id"`
}

// Row is one line of a search listing: a customer paired with one of its
// addresses.
type Row struct {
	Customer Customer
	Address  Address
}

// Rows expands customers into one row per address. Customers without
// addresses produce no rows.
func Rows(customers []Customer) []Row {
	rows := make([]Row, 0, len(customers))
	for _, c := range customers {
		for _, a := range c.Addresses {
			rows = append(rows, Row{Customer: c, Address: a})
		}
	}
	return rows
}
