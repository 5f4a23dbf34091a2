package terminal

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/CSCI-GA-2820-SP23-003/customers/internal/domain/customer"
)

// Presenter writes field indicators, the status line and search tables to
// an io.Writer. It also remembers the current indicators and status so the
// form view can show them.
type Presenter struct {
	mu         sync.Mutex
	w          io.Writer
	violations customer.ValidationResult
	status     string
}

// NewPresenter creates a Presenter writing to w.
func NewPresenter(w io.Writer) *Presenter {
	return &Presenter{w: w, violations: customer.ValidationResult{}}
}

// ShowViolations marks the offending fields and unmarks all others.
func (p *Presenter) ShowViolations(result customer.ValidationResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.violations = make(customer.ValidationResult, len(result))
	for f, k := range result {
		p.violations[f] = k
	}
	for _, f := range customer.AllFields {
		if k, ok := result[f]; ok {
			fmt.Fprintf(p.w, "  ! %-10s %s\n", f, customer.FieldMessage(f, k))
		}
	}
}

// ClearViolations unmarks every field.
func (p *Presenter) ClearViolations() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.violations = customer.ValidationResult{}
}

// Flash replaces the status message.
func (p *Presenter) Flash(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = message
	fmt.Fprintf(p.w, "» %s\n", message)
}

// Status returns the current status message.
func (p *Presenter) Status() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Violations returns the current field indicators.
func (p *Presenter) Violations() customer.ValidationResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(customer.ValidationResult, len(p.violations))
	for f, k := range p.violations {
		out[f] = k
	}
	return out
}

// rowHeader names the search table columns.
var rowHeader = []string{
	"ID", "First Name", "Last Name", "Email", "Password", "Address ID",
	"Street", "City", "State", "Country", "Pin Code", "Active",
}

// RenderRows prints rows as an aligned table, replacing any earlier listing.
func (p *Presenter) RenderRows(rows []customer.Row) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(rows) == 0 {
		fmt.Fprintln(p.w, "(no results)")
		return
	}

	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(rowHeader, "\t"))
	for _, r := range rows {
		values := customer.Merge(r.Customer, r.Address)
		cols := make([]string, len(customer.AllFields))
		for i, f := range customer.AllFields {
			cols[i] = values.Get(f)
		}
		fmt.Fprintln(tw, strings.Join(cols, "\t"))
	}
	_ = tw.Flush()
}

// RenderForm prints the form, marking fields that carry an indicator.
func (p *Presenter) RenderForm(fields customer.Fields) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	for _, f := range customer.AllFields {
		value := fields.Get(f)
		if f == customer.FieldPassword && value != "" {
			value = strings.Repeat("*", len(value))
		}
		mark := ""
		if k, ok := p.violations[f]; ok {
			mark = "! " + customer.FieldMessage(f, k)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", f, value, mark)
	}
	_ = tw.Flush()
	if p.status != "" {
		fmt.Fprintf(p.w, "status: %s\n", p.status)
	}
}
