package console

import (
	"net/url"
	"strings"

	"github.com/CSCI-GA-2820-SP23-003/customers/internal/domain/customer"
)

// SearchOptions selects which optional fields take part in filter
// precedence.
type SearchOptions struct {
	IncludeAddressID bool
	IncludeActive    bool
}

// DefaultSearchOptions includes both optional fields.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{IncludeAddressID: true, IncludeActive: true}
}

// SearchQueryBuilder picks the single filter sent with a search.
type SearchQueryBuilder struct {
	order         []customer.Field
	includeActive bool
}

// NewSearchQueryBuilder returns a builder using the fixed precedence
// first_name, last_name, email, [address_id], street, city, state, country,
// pin_code, [active].
func NewSearchQueryBuilder(opts SearchOptions) SearchQueryBuilder {
	order := []customer.Field{
		customer.FieldFirstName,
		customer.FieldLastName,
		customer.FieldEmail,
	}
	if opts.IncludeAddressID {
		order = append(order, customer.FieldAddressID)
	}
	order = append(order,
		customer.FieldStreet,
		customer.FieldCity,
		customer.FieldState,
		customer.FieldCountry,
		customer.FieldPinCode,
	)
	return SearchQueryBuilder{order: order, includeActive: opts.IncludeActive}
}

// Filter returns the first populated field in precedence order and its
// trimmed value. ok is false when nothing qualifies.
func (b SearchQueryBuilder) Filter(fields customer.Fields) (field customer.Field, value string, ok bool) {
	for _, f := range b.order {
		if v := fields.Trimmed(f); v != "" {
			return f, v, true
		}
	}
	if b.includeActive {
		switch v := strings.ToLower(fields.Trimmed(customer.FieldActive)); v {
		case customer.ActiveTrue, customer.ActiveFalse:
			return customer.FieldActive, v, true
		}
	}
	return "", "", false
}

// Build renders the filter as a single key=value query string, or "" for an
// unfiltered listing.
func (b SearchQueryBuilder) Build(fields customer.Fields) string {
	f, v, ok := b.Filter(fields)
	if !ok {
		return ""
	}
	return string(f) + "=" + url.QueryEscape(v)
}
