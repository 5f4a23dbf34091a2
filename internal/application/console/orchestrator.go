package console

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/CSCI-GA-2820-SP23-003/customers/internal/domain/customer"
)

// Status messages shown to the operator.
const (
	MessageSuccess     = "Success"
	MessageFormErrors  = "Form Error(s)"
	MessageCleared     = "Cleared"
	MessageDeleted     = "Customer has been Deleted!"
	MessageActivated   = "Customer has been Activated!"
	MessageDeactivated = "Customer has been Deactivated!"
	MessageServerError = "Server error!"
	MessageBusy        = "Another action is in progress"
)

// ErrBusy is returned when an action starts while another is in flight.
var ErrBusy = errors.New("console: another action is in progress")

// ErrValidation marks outcomes rejected by local validation.
var ErrValidation = errors.New("console: form validation failed")

const tracerName = "github.com/CSCI-GA-2820-SP23-003/customers/internal/application/console"

// OrchestratorConfig wires an Orchestrator to its collaborators.
type OrchestratorConfig struct {
	// Gateway issues backend calls. Required.
	Gateway Gateway

	// Form is the operator's form. Required.
	Form FieldAccessor

	// Notifier shows field indicators and the status line. Required.
	Notifier NotificationPresenter

	// Renderer displays search results. Required.
	Renderer ResultRenderer

	// Search selects the optional search filter fields.
	// Default: DefaultSearchOptions()
	Search *SearchOptions

	// Recorder receives per-action metrics. Optional.
	Recorder Recorder

	// Logger receives action logs. Default: no-op logger.
	Logger *zap.Logger

	// Enrich adds request-scoped fields, such as the request id, to the
	// action logger. Optional.
	Enrich func(ctx context.Context, l *zap.Logger) *zap.Logger

	// Tracer opens one span per action. Default: global otel tracer.
	Tracer trace.Tracer
}

// Orchestrator runs console actions. Only one action runs at a time; an
// action started while another is in flight fails with ErrBusy and touches
// neither the form nor the backend.
type Orchestrator struct {
	gateway   Gateway
	form      FieldAccessor
	notifier  NotificationPresenter
	renderer  ResultRenderer
	validator *Validator
	payloads  PayloadBuilder
	search    SearchQueryBuilder
	recorder  Recorder
	logger    *zap.Logger
	enrich    func(context.Context, *zap.Logger) *zap.Logger
	tracer    trace.Tracer

	busy atomic.Bool

	nowFunc func() time.Time
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(cfg OrchestratorConfig) (*Orchestrator, error) {
	if cfg.Gateway == nil {
		return nil, fmt.Errorf("console: gateway is required")
	}
	if cfg.Form == nil {
		return nil, fmt.Errorf("console: form is required")
	}
	if cfg.Notifier == nil {
		return nil, fmt.Errorf("console: notifier is required")
	}
	if cfg.Renderer == nil {
		return nil, fmt.Errorf("console: renderer is required")
	}

	searchOpts := DefaultSearchOptions()
	if cfg.Search != nil {
		searchOpts = *cfg.Search
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	return &Orchestrator{
		gateway:   cfg.Gateway,
		form:      cfg.Form,
		notifier:  cfg.Notifier,
		renderer:  cfg.Renderer,
		validator: NewValidator(),
		search:    NewSearchQueryBuilder(searchOpts),
		recorder:  cfg.Recorder,
		logger:    log.Named("console"),
		enrich:    cfg.Enrich,
		tracer:    tracer,
		nowFunc:   time.Now,
	}, nil
}

// Run dispatches action by name.
func (o *Orchestrator) Run(ctx context.Context, action Action) Outcome {
	switch action {
	case ActionCreate:
		return o.Create(ctx)
	case ActionUpdate:
		return o.Update(ctx)
	case ActionRetrieve:
		return o.Retrieve(ctx)
	case ActionDelete:
		return o.Delete(ctx)
	case ActionActivate:
		return o.Activate(ctx)
	case ActionDeactivate:
		return o.Deactivate(ctx)
	case ActionSearch:
		return o.Search(ctx)
	case ActionClear:
		return o.Clear(ctx)
	default:
		err := fmt.Errorf("console: unknown action %q", action)
		o.notifier.Flash(err.Error())
		return Outcome{Action: action, Message: err.Error(), Err: err}
	}
}

// Create submits the form as a new customer with one address.
func (o *Orchestrator) Create(ctx context.Context) Outcome {
	return o.run(ctx, ActionCreate, func(ctx context.Context) Outcome {
		fields := o.form.Fields()
		if res := o.validator.Validate(ActionCreate, fields); !res.OK() {
			return o.rejected(ActionCreate, res)
		}
		o.notifier.ClearViolations()

		payload, _, err := o.payloads.Build(ActionCreate, fields)
		if err != nil {
			return o.failed(ActionCreate, err)
		}

		created, err := o.gateway.CreateCustomer(ctx, payload)
		if err != nil {
			return o.failed(ActionCreate, err)
		}

		written := customer.FromCustomer(created)
		o.form.SetFields(written)
		return Outcome{Action: ActionCreate, Success: true, Message: MessageSuccess, Fields: written}
	})
}

// Update saves the customer, then its address. The address call is issued
// only after the customer call succeeded. If the address call fails the
// customer change stays applied on the backend; the form keeps the customer
// section from the first response and its address section as it was.
func (o *Orchestrator) Update(ctx context.Context) Outcome {
	return o.run(ctx, ActionUpdate, func(ctx context.Context) Outcome {
		fields := o.form.Fields()
		if res := o.validator.Validate(ActionUpdate, fields); !res.OK() {
			return o.rejected(ActionUpdate, res)
		}
		customerID, err := customer.ParseID(fields.Get(customer.FieldID))
		if err != nil {
			return o.rejected(ActionUpdate, customer.ValidationResult{customer.FieldID: customer.ViolationBadFormat})
		}
		custPayload, addrPayload, err := o.payloads.Build(ActionUpdate, fields)
		if err != nil {
			return o.failed(ActionUpdate, err)
		}
		o.notifier.ClearViolations()

		updated, err := o.gateway.UpdateCustomer(ctx, customerID, custPayload)
		if err != nil {
			return o.failed(ActionUpdate, err)
		}
		customerSection := customer.CustomerSection(updated)
		o.form.SetFields(customerSection)

		address, err := o.gateway.UpdateAddress(ctx, customerID, addrPayload.AddressID, addrPayload)
		if err != nil {
			o.logger.Warn("Address update failed after customer update, backend left partially updated",
				zap.Int64("customer_id", customerID),
				zap.Int64("address_id", addrPayload.AddressID),
				zap.Error(err))
			out := o.failed(ActionUpdate, err)
			out.Fields = customerSection
			return out
		}

		written := customer.Merge(updated, address)
		o.form.SetFields(written)
		return Outcome{Action: ActionUpdate, Success: true, Message: MessageSuccess, Fields: written}
	})
}

// Retrieve loads a customer by id. A failed lookup clears the whole form.
func (o *Orchestrator) Retrieve(ctx context.Context) Outcome {
	return o.run(ctx, ActionRetrieve, func(ctx context.Context) Outcome {
		id, res := o.requireID(ActionRetrieve)
		if !res.OK() {
			return o.rejected(ActionRetrieve, res)
		}

		found, err := o.gateway.GetCustomer(ctx, id)
		if err != nil {
			o.form.Clear()
			out := o.failed(ActionRetrieve, err)
			out.Fields = customer.ClearedFields()
			return out
		}

		written := customer.FromCustomer(found)
		o.form.SetFields(written)
		return Outcome{Action: ActionRetrieve, Success: true, Message: MessageSuccess, Fields: written}
	})
}

// Delete removes a customer. Failures always read MessageServerError.
func (o *Orchestrator) Delete(ctx context.Context) Outcome {
	return o.run(ctx, ActionDelete, func(ctx context.Context) Outcome {
		id, res := o.requireID(ActionDelete)
		if !res.OK() {
			return o.rejected(ActionDelete, res)
		}

		if err := o.gateway.DeleteCustomer(ctx, id); err != nil {
			out := o.failed(ActionDelete, err)
			out.Message = MessageServerError
			return out
		}

		o.form.Clear()
		return Outcome{Action: ActionDelete, Success: true, Message: MessageDeleted, Fields: customer.ClearedFields()}
	})
}

// Activate marks the customer active.
func (o *Orchestrator) Activate(ctx context.Context) Outcome {
	return o.toggle(ctx, ActionActivate, o.gateway.ActivateCustomer, MessageActivated)
}

// Deactivate marks the customer inactive.
func (o *Orchestrator) Deactivate(ctx context.Context) Outcome {
	return o.toggle(ctx, ActionDeactivate, o.gateway.DeactivateCustomer, MessageDeactivated)
}

func (o *Orchestrator) toggle(
	ctx context.Context,
	action Action,
	call func(context.Context, int64) (customer.Customer, error),
	message string,
) Outcome {
	return o.run(ctx, action, func(ctx context.Context) Outcome {
		id, res := o.requireID(action)
		if !res.OK() {
			return o.rejected(action, res)
		}

		c, err := call(ctx, id)
		if err != nil {
			return o.failed(action, err)
		}

		written := customer.FromCustomer(c)
		o.form.SetFields(written)
		return Outcome{Action: action, Success: true, Message: message, Fields: written}
	})
}

// Search lists customers matching the single highest-precedence filter,
// renders one row per address and previews the first customer in the form.
func (o *Orchestrator) Search(ctx context.Context) Outcome {
	return o.run(ctx, ActionSearch, func(ctx context.Context) Outcome {
		query := o.search.Build(o.form.Fields())

		customers, err := o.gateway.ListCustomers(ctx, query)
		if err != nil {
			return o.failed(ActionSearch, err)
		}

		rows := customer.Rows(customers)
		o.renderer.RenderRows(rows)

		out := Outcome{Action: ActionSearch, Success: true, Message: MessageSuccess, Rows: rows}
		if len(customers) > 0 {
			out.Fields = customer.FromCustomer(customers[0])
			o.form.SetFields(out.Fields)
		}
		return out
	})
}

// Clear resets the form and every field indicator.
func (o *Orchestrator) Clear(ctx context.Context) Outcome {
	return o.run(ctx, ActionClear, func(context.Context) Outcome {
		o.form.Clear()
		o.notifier.ClearViolations()
		return Outcome{Action: ActionClear, Success: true, Message: MessageCleared, Fields: customer.ClearedFields()}
	})
}

// run holds the busy flag for the duration of fn and reports the outcome
// through the status line, the logger, the tracer and the recorder.
func (o *Orchestrator) run(ctx context.Context, action Action, fn func(context.Context) Outcome) Outcome {
	if !o.busy.CompareAndSwap(false, true) {
		o.logger.Info("Action rejected, another action is in flight", zap.String("action", string(action)))
		o.notifier.Flash(MessageBusy)
		out := Outcome{Action: action, Message: MessageBusy, Err: ErrBusy}
		o.observe(action, out, 0)
		return out
	}
	defer o.busy.Store(false)

	ctx, span := o.tracer.Start(ctx, "console."+string(action),
		trace.WithAttributes(attribute.String("console.action", string(action))))
	defer span.End()

	log := o.logger
	if o.enrich != nil {
		log = o.enrich(ctx, log)
	}

	start := o.nowFunc()
	out := fn(ctx)
	elapsed := o.nowFunc().Sub(start)

	o.notifier.Flash(out.Message)

	span.SetAttributes(attribute.String("console.outcome", out.Label()))
	if out.Err != nil {
		span.RecordError(out.Err)
		span.SetStatus(codes.Error, out.Message)
	}

	fields := []zap.Field{
		zap.String("action", string(action)),
		zap.String("outcome", out.Label()),
		zap.Duration("duration", elapsed),
	}
	switch {
	case out.Success:
		log.Info("Action completed", fields...)
	case out.Violations != nil:
		log.Info("Action rejected by validation", append(fields, zap.Any("violations", out.Violations))...)
	default:
		log.Warn("Action failed", append(fields, zap.String("message", out.Message), zap.Error(out.Err))...)
	}

	o.observe(action, out, elapsed)
	return out
}

func (o *Orchestrator) observe(action Action, out Outcome, elapsed time.Duration) {
	if o.recorder != nil {
		o.recorder.ObserveAction(string(action), out.Label(), elapsed)
	}
}

func (o *Orchestrator) requireID(action Action) (int64, customer.ValidationResult) {
	fields := o.form.Fields()
	res := o.validator.Validate(action, fields)
	if !res.OK() {
		return 0, res
	}
	id, err := customer.ParseID(fields.Get(customer.FieldID))
	if err != nil {
		return 0, customer.ValidationResult{customer.FieldID: customer.ViolationBadFormat}
	}
	return id, res
}

func (o *Orchestrator) rejected(action Action, res customer.ValidationResult) Outcome {
	o.notifier.ShowViolations(res)
	return Outcome{
		Action:     action,
		Message:    MessageFormErrors,
		Violations: res,
		Err:        ErrValidation,
	}
}

func (o *Orchestrator) failed(action Action, err error) Outcome {
	return Outcome{Action: action, Message: failureMessage(err), Err: err}
}

// failureMessage prefers the backend's own message and falls back to a
// generic description of the failure.
func failureMessage(err error) string {
	var reqErr *customer.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.UserMessage()
	}
	return "Request failed: " + err.Error()
}
