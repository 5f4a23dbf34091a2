// Package backend implements the console's Gateway over the customer REST
// API.
package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/CSCI-GA-2820-SP23-003/customers/internal/application/console"
	"github.com/CSCI-GA-2820-SP23-003/customers/internal/domain/customer"
	"github.com/CSCI-GA-2820-SP23-003/customers/internal/infrastructure/client"
)

const customersPath = "/customers"

// ErrEmptyBody is wrapped when a successful reply that should carry a record
// has no body.
var ErrEmptyBody = errors.New("backend: empty response body")

// Gateway issues the console's backend calls. Every failure is returned as
// a *customer.RequestError.
type Gateway struct {
	client *client.Client
}

var _ console.Gateway = (*Gateway)(nil)

// NewGateway creates a Gateway on top of c.
func NewGateway(c *client.Client) *Gateway {
	return &Gateway{client: c}
}

// CreateCustomer posts a new customer with its nested address.
func (g *Gateway) CreateCustomer(ctx context.Context, payload customer.CustomerPayload) (customer.Customer, error) {
	var out customer.Customer
	err := g.call(ctx, client.Request{Method: http.MethodPost, Path: customersPath, Body: payload}, &out)
	return out, err
}

// UpdateCustomer replaces the customer's own fields.
func (g *Gateway) UpdateCustomer(ctx context.Context, id int64, payload customer.CustomerPayload) (customer.Customer, error) {
	var out customer.Customer
	err := g.call(ctx, client.Request{Method: http.MethodPut, Path: customerPath(id), Body: payload}, &out)
	return out, err
}

// UpdateAddress replaces one address of the customer.
func (g *Gateway) UpdateAddress(ctx context.Context, customerID, addressID int64, payload customer.AddressPayload) (customer.Address, error) {
	var out customer.Address
	err := g.call(ctx, client.Request{Method: http.MethodPut, Path: addressPath(customerID, addressID), Body: payload}, &out)
	return out, err
}

// GetCustomer fetches one customer.
func (g *Gateway) GetCustomer(ctx context.Context, id int64) (customer.Customer, error) {
	var out customer.Customer
	err := g.call(ctx, client.Request{Method: http.MethodGet, Path: customerPath(id)}, &out)
	return out, err
}

// DeleteCustomer removes a customer. Deleting an unknown id succeeds.
func (g *Gateway) DeleteCustomer(ctx context.Context, id int64) error {
	return g.call(ctx, client.Request{Method: http.MethodDelete, Path: customerPath(id)}, nil)
}

// DeleteAddress removes one address of a customer.
func (g *Gateway) DeleteAddress(ctx context.Context, customerID, addressID int64) error {
	return g.call(ctx, client.Request{Method: http.MethodDelete, Path: addressPath(customerID, addressID)}, nil)
}

// ActivateCustomer marks the customer active.
func (g *Gateway) ActivateCustomer(ctx context.Context, id int64) (customer.Customer, error) {
	var out customer.Customer
	err := g.call(ctx, client.Request{Method: http.MethodPut, Path: customerPath(id) + "/activate"}, &out)
	return out, err
}

// DeactivateCustomer marks the customer inactive.
func (g *Gateway) DeactivateCustomer(ctx context.Context, id int64) (customer.Customer, error) {
	var out customer.Customer
	err := g.call(ctx, client.Request{Method: http.MethodPut, Path: customerPath(id) + "/deactivate"}, &out)
	return out, err
}

// ListCustomers lists customers matching query, a single key=value pair or
// "" for all customers.
func (g *Gateway) ListCustomers(ctx context.Context, query string) ([]customer.Customer, error) {
	var out []customer.Customer
	if err := g.call(ctx, client.Request{Method: http.MethodGet, Path: customersPath, RawQuery: query}, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []customer.Customer{}
	}
	return out, nil
}

// call executes req and decodes a 2xx body into out when out is non-nil.
func (g *Gateway) call(ctx context.Context, req client.Request, out any) error {
	resp, err := g.client.Do(ctx, req)
	if err != nil {
		reqErr := &customer.RequestError{Method: req.Method, Path: req.Path, Err: err}
		if resp != nil && resp.StatusCode != 0 {
			reqErr.StatusCode = resp.StatusCode
			reqErr.Message = resp.ErrorMessage()
		}
		return reqErr
	}

	if !resp.IsSuccess() {
		return &customer.RequestError{
			Method:     req.Method,
			Path:       req.Path,
			StatusCode: resp.StatusCode,
			Message:    resp.ErrorMessage(),
		}
	}

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return &customer.RequestError{
			Method:     req.Method,
			Path:       req.Path,
			StatusCode: resp.StatusCode,
			Err:        ErrEmptyBody,
		}
	}
	if err := resp.DecodeJSON(out); err != nil {
		return &customer.RequestError{
			Method:     req.Method,
			Path:       req.Path,
			StatusCode: resp.StatusCode,
			Err:        err,
		}
	}
	return nil
}

func customerPath(id int64) string {
	return fmt.Sprintf("%s/%d", customersPath, id)
}

func addressPath(customerID, addressID int64) string {
	return fmt.Sprintf("%s/%d/addresses/%d", customersPath, customerID, addressID)
}
