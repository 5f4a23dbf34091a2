package terminal

import (
	"context"
	"errors"
	"fmt"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/CSCI-GA-2820-SP23-003/customers/internal/application/console"
	"github.com/CSCI-GA-2820-SP23-003/customers/internal/domain/customer"
	"github.com/CSCI-GA-2820-SP23-003/customers/internal/infrastructure/logger"
)

// Runner executes console actions.
type Runner interface {
	Run(ctx context.Context, action console.Action) console.Outcome
}

// SessionConfig wires a Session.
type SessionConfig struct {
	Driver    PromptDriver
	Form      *FormState
	Presenter *Presenter
	Runner    Runner
	Logger    *zap.Logger
	// Faker generates sample data. Default: randomly seeded.
	Faker *gofakeit.Faker
	// SnapshotPath is offered as the default file for save and load.
	SnapshotPath string
}

// Session is the interactive console loop.
type Session struct {
	driver       PromptDriver
	form         *FormState
	presenter    *Presenter
	runner       Runner
	logger       *zap.Logger
	faker        *gofakeit.Faker
	snapshotPath string
}

// NewSession creates a Session.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Form == nil || cfg.Presenter == nil || cfg.Runner == nil {
		return nil, fmt.Errorf("terminal: form, presenter and runner are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Faker == nil {
		cfg.Faker = gofakeit.New(0)
	}
	if cfg.SnapshotPath == "" {
		cfg.SnapshotPath = "customer.yaml"
	}
	return &Session{
		driver:       cfg.Driver,
		form:         cfg.Form,
		presenter:    cfg.Presenter,
		runner:       cfg.Runner,
		logger:       cfg.Logger,
		faker:        cfg.Faker,
		snapshotPath: cfg.SnapshotPath,
	}, nil
}

// Dispatch runs one action under a fresh request id. The id travels in ctx
// to the backend client and the action logs.
func (s *Session) Dispatch(ctx context.Context, action console.Action) console.Outcome {
	ctx, log := logger.WithRequestID(ctx, s.logger, uuid.NewString())
	ctx = logger.WithAction(ctx, string(action))
	log.Debug("Dispatching action", zap.String("action", string(action)))
	return s.runner.Run(ctx, action)
}

// FillFake replaces the submission fields with generated data.
func (s *Session) FillFake() customer.Fields {
	fields := FakeFields(s.faker)
	s.form.SetFields(fields)
	return fields
}

const (
	menuEdit   = "Edit fields"
	menuShow   = "Show form"
	menuAction = "Run action"
	menuFake   = "Fill with sample data"
	menuSave   = "Save form"
	menuLoad   = "Load form"
	menuQuit   = "Quit"
)

var menu = []string{menuEdit, menuShow, menuAction, menuFake, menuSave, menuLoad, menuQuit}

// Run loops over the main menu until the operator quits or aborts.
func (s *Session) Run(ctx context.Context) error {
	if s.driver == nil {
		return fmt.Errorf("terminal: prompt driver is required")
	}
	for {
		idx, err := s.driver.Select(ctx, SelectConfig{Message: "Customer console", Options: menu})
		if err != nil {
			return quietAbort(err)
		}
		if idx < 0 || idx >= len(menu) {
			continue
		}

		switch menu[idx] {
		case menuEdit:
			err = s.editFields(ctx)
		case menuShow:
			s.presenter.RenderForm(s.form.Fields())
		case menuAction:
			err = s.runAction(ctx)
		case menuFake:
			s.FillFake()
			s.presenter.RenderForm(s.form.Fields())
		case menuSave:
			err = s.save(ctx)
		case menuLoad:
			err = s.load(ctx)
		case menuQuit:
			return nil
		}
		if err != nil {
			return quietAbort(err)
		}
	}
}

func (s *Session) runAction(ctx context.Context) error {
	options := make([]string, len(console.Actions))
	for i, a := range console.Actions {
		options[i] = string(a)
	}
	idx, err := s.driver.Select(ctx, SelectConfig{Message: "Action", Options: options})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(console.Actions) {
		return nil
	}

	action := console.Actions[idx]
	if action == console.ActionDelete {
		ok, err := s.driver.Confirm(ctx, ConfirmConfig{
			Message: fmt.Sprintf("Delete customer %q?", s.form.Get(customer.FieldID)),
			Help:    "The customer and all of its addresses are removed from the backend.",
		})
		if err != nil {
			return err
		}
		if !ok {
			return s.driver.Info(ctx, "Delete cancelled")
		}
	}

	s.Dispatch(ctx, action)
	s.presenter.RenderForm(s.form.Fields())
	return nil
}

const editDone = "(done)"

func (s *Session) editFields(ctx context.Context) error {
	for {
		current := s.form.Fields()
		options := make([]string, 0, len(customer.AllFields)+1)
		for _, f := range customer.AllFields {
			value := current.Get(f)
			if f == customer.FieldPassword && value != "" {
				value = "****"
			}
			options = append(options, fmt.Sprintf("%s: %s", f, value))
		}
		options = append(options, editDone)

		idx, err := s.driver.Select(ctx, SelectConfig{Message: "Field", Options: options, PageSize: len(options)})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(customer.AllFields) {
			return nil
		}

		f := customer.AllFields[idx]
		value, err := s.promptField(ctx, f, current.Get(f))
		if err != nil {
			return err
		}
		s.form.Set(f, value)
	}
}

var activeOptions = []string{"", customer.ActiveTrue, customer.ActiveFalse}

var fieldHelp = map[customer.Field]string{
	customer.FieldID:        "Numeric customer id. Needed by every action except create, search and clear.",
	customer.FieldAddressID: "Numeric id of the address to update.",
	customer.FieldEmail:     "Checked as you type. Leave empty to clear.",
	customer.FieldActive:    "Sent on create and update. Also a search filter when nothing else is set.",
}

// checkEmail accepts an empty value so the field can be cleared; the action
// itself reports it as missing.
func checkEmail(v string) error {
	if v == "" || console.ValidEmail(v) {
		return nil
	}
	return fmt.Errorf("%q is not a valid email address", v)
}

func (s *Session) promptField(ctx context.Context, f customer.Field, current string) (string, error) {
	switch f {
	case customer.FieldPassword:
		return s.driver.Password(ctx, InputConfig{Message: string(f)})
	case customer.FieldEmail:
		return s.driver.Input(ctx, InputConfig{
			Message:   string(f),
			Default:   current,
			Help:      fieldHelp[f],
			Validator: checkEmail,
		})
	case customer.FieldActive:
		def := 0
		for i, o := range activeOptions {
			if o == current {
				def = i
			}
		}
		idx, err := s.driver.Select(ctx, SelectConfig{
			Message:      string(f),
			Options:      activeOptions,
			DefaultIndex: def,
			Help:         fieldHelp[f],
		})
		if err != nil {
			return "", err
		}
		if idx < 0 {
			return current, nil
		}
		return activeOptions[idx], nil
	default:
		return s.driver.Input(ctx, InputConfig{Message: string(f), Default: current, Help: fieldHelp[f]})
	}
}

func (s *Session) save(ctx context.Context) error {
	path, err := s.driver.Input(ctx, InputConfig{Message: "Save to", Default: s.snapshotPath})
	if err != nil {
		return err
	}
	if err := SaveSnapshot(path, s.form.Fields()); err != nil {
		s.logger.Warn("Saving form failed", zap.String("path", path), zap.Error(err))
		return s.driver.Info(ctx, err.Error())
	}
	s.snapshotPath = path
	return s.driver.Info(ctx, "Saved "+path)
}

func (s *Session) load(ctx context.Context) error {
	path, err := s.driver.Input(ctx, InputConfig{Message: "Load from", Default: s.snapshotPath})
	if err != nil {
		return err
	}
	fields, err := LoadSnapshot(path)
	if err != nil {
		s.logger.Warn("Loading form failed", zap.String("path", path), zap.Error(err))
		return s.driver.Info(ctx, err.Error())
	}
	s.form.Clear()
	s.form.SetFields(fields)
	s.presenter.ClearViolations()
	s.snapshotPath = path
	s.presenter.RenderForm(s.form.Fields())
	return s.driver.Info(ctx, "Loaded "+path)
}

func quietAbort(err error) error {
	if errors.Is(err, ErrAborted) {
		return nil
	}
	return err
}
