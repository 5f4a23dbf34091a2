// Package console implements the customer console's controller: it validates
// the operator's form, issues the backend calls each action needs in the
// right order, and writes the outcome back through the form and notification
// capabilities.
package console

import (
	"context"
	"fmt"
	"time"

	"github.com/CSCI-GA-2820-SP23-003/customers/internal/domain/customer"
)

// Action is a user-initiated console command.
type Action string

const (
	ActionCreate     Action = "create"
	ActionUpdate     Action = "update"
	ActionRetrieve   Action = "retrieve"
	ActionDelete     Action = "delete"
	ActionActivate   Action = "activate"
	ActionDeactivate Action = "deactivate"
	ActionSearch     Action = "search"
	ActionClear      Action = "clear"
)

// Actions lists every action in menu order.
var Actions = []Action{
	ActionCreate,
	ActionUpdate,
	ActionRetrieve,
	ActionDelete,
	ActionActivate,
	ActionDeactivate,
	ActionSearch,
	ActionClear,
}

// ParseAction resolves a command name.
func ParseAction(name string) (Action, error) {
	for _, a := range Actions {
		if string(a) == name {
			return a, nil
		}
	}
	return "", fmt.Errorf("console: unknown action %q", name)
}

// Gateway is the backend REST contract.
type Gateway interface {
	CreateCustomer(ctx context.Context, payload customer.CustomerPayload) (customer.Customer, error)
	UpdateCustomer(ctx context.Context, id int64, payload customer.CustomerPayload) (customer.Customer, error)
	UpdateAddress(ctx context.Context, customerID, addressID int64, payload customer.AddressPayload) (customer.Address, error)
	GetCustomer(ctx context.Context, id int64) (customer.Customer, error)
	DeleteCustomer(ctx context.Context, id int64) error
	ActivateCustomer(ctx context.Context, id int64) (customer.Customer, error)
	DeactivateCustomer(ctx context.Context, id int64) (customer.Customer, error)
	ListCustomers(ctx context.Context, query string) ([]customer.Customer, error)
}

// FieldAccessor reads and writes the operator's form.
type FieldAccessor interface {
	// Fields returns a snapshot of every form value.
	Fields() customer.Fields
	// SetFields overwrites the given fields and leaves the others alone.
	SetFields(fields customer.Fields)
	// Clear resets the form to customer.ClearedFields.
	Clear()
}

// NotificationPresenter shows per-field indicators and the global status.
type NotificationPresenter interface {
	// ShowViolations marks the offending fields and unmarks all others.
	ShowViolations(result customer.ValidationResult)
	// ClearViolations unmarks every field.
	ClearViolations()
	// Flash replaces the global status message.
	Flash(message string)
}

// ResultRenderer displays search rows.
type ResultRenderer interface {
	RenderRows(rows []customer.Row)
}

// Recorder receives one observation per finished action.
type Recorder interface {
	ObserveAction(action string, outcome string, duration time.Duration)
}

// Outcome is the single terminal result of an action.
type Outcome struct {
	Action  Action
	Success bool
	// Message is the global status shown to the operator.
	Message string
	// Violations is set when local validation rejected the action.
	Violations customer.ValidationResult
	// Fields holds the values written to the form, nil if nothing was written.
	Fields customer.Fields
	// Rows holds the rendered search rows.
	Rows []customer.Row
	// Err is the underlying failure, nil on success.
	Err error
}

// Label classifies the outcome for logs and metrics.
func (o Outcome) Label() string {
	switch {
	case o.Success:
		return "success"
	case o.Violations != nil:
		return "rejected"
	case o.Err == ErrBusy:
		return "busy"
	default:
		return "failure"
	}
}
