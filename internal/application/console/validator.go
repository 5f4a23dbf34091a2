package console

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/CSCI-GA-2820-SP23-003/customers/internal/domain/customer"
)

// Custom validator tags.
const (
	emailTag = "console_email"
	idTag    = "console_id"
)

// emailPattern accepts a quoted or dot-atom local part and either a bracketed
// IPv4 literal or a dotted hostname whose last label is at least two letters.
// Unicode spaces count as whitespace in the local part.
var emailPattern = regexp.MustCompile(`^(([^<>()\[\]\\.,;:\s\p{Z}\x{FEFF}@"]+(\.[^<>()\[\]\\.,;:\s\p{Z}\x{FEFF}@"]+)*)|(".+"))@((\[[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}])|(([a-zA-Z\-0-9]+\.)+[a-zA-Z]{2,}))$`)

// submissionForm is the trimmed form as checked before create and update.
type submissionForm struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,console_email"`
	Password  string `json:"password" validate:"required"`
	Street    string `json:"street" validate:"required"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state" validate:"required"`
	Country   string `json:"country" validate:"required"`
	PinCode   string `json:"pin_code" validate:"required"`
	Active    string `json:"active" validate:"required,oneof=true false"`
}

// identityForm carries the identifiers an update or single-record action
// needs before anything else is looked at.
type identityForm struct {
	ID        string `json:"id" validate:"required,number,console_id"`
	AddressID string `json:"address_id" validate:"required,number,console_id"`
}

// Validator applies the console's required-field and format rules.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator with the console's custom rules
// registered.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report violations under the form field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Both tags are non-empty and the functions non-nil, registration cannot fail.
	_ = v.RegisterValidation(emailTag, func(fl validator.FieldLevel) bool {
		return ValidEmail(fl.Field().String())
	})
	// Digits alone are not enough, the id must also fit the backend's int64.
	_ = v.RegisterValidation(idTag, func(fl validator.FieldLevel) bool {
		_, err := customer.ParseID(fl.Field().String())
		return err == nil
	})

	return &Validator{validate: v}
}

// ValidEmail reports whether v, ignoring surrounding whitespace, is an
// acceptable email address.
func ValidEmail(v string) bool {
	return emailPattern.MatchString(strings.TrimSpace(v))
}

// Validate checks fields for the given action. Update checks the customer
// id, then the address id, and stops at the first one that is absent or not
// numeric; the remaining rules only run once both are present. Actions that
// submit nothing return an empty result.
func (v *Validator) Validate(action Action, fields customer.Fields) customer.ValidationResult {
	switch action {
	case ActionCreate:
		return v.validateSubmission(fields)
	case ActionUpdate:
		ids := identityForm{
			ID:        fields.Trimmed(customer.FieldID),
			AddressID: fields.Trimmed(customer.FieldAddressID),
		}
		if res := v.checkField(ids, "ID"); !res.OK() {
			return res
		}
		if res := v.checkField(ids, "AddressID"); !res.OK() {
			return res
		}
		return v.validateSubmission(fields)
	case ActionRetrieve, ActionDelete, ActionActivate, ActionDeactivate:
		return v.RequireID(fields)
	default:
		return customer.ValidationResult{}
	}
}

// RequireID checks only that the customer id is present and numeric.
func (v *Validator) RequireID(fields customer.Fields) customer.ValidationResult {
	ids := identityForm{ID: fields.Trimmed(customer.FieldID)}
	return v.checkField(ids, "ID")
}

func (v *Validator) validateSubmission(fields customer.Fields) customer.ValidationResult {
	form := submissionForm{
		FirstName: fields.Trimmed(customer.FieldFirstName),
		LastName:  fields.Trimmed(customer.FieldLastName),
		Email:     fields.Trimmed(customer.FieldEmail),
		Password:  fields.Trimmed(customer.FieldPassword),
		Street:    fields.Trimmed(customer.FieldStreet),
		City:      fields.Trimmed(customer.FieldCity),
		State:     fields.Trimmed(customer.FieldState),
		Country:   fields.Trimmed(customer.FieldCountry),
		PinCode:   fields.Trimmed(customer.FieldPinCode),
		Active:    strings.ToLower(fields.Trimmed(customer.FieldActive)),
	}
	return toResult(v.validate.Struct(form))
}

// checkField validates a single identityForm field. structField is the Go
// field name, which is what StructPartial matches on.
func (v *Validator) checkField(form identityForm, structField string) customer.ValidationResult {
	return toResult(v.validate.StructPartial(form, structField))
}

// toResult maps validator errors onto violation kinds: a failed required
// tag is a missing value, anything else is a malformed one.
func toResult(err error) customer.ValidationResult {
	res := customer.ValidationResult{}
	if err == nil {
		return res
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return res
	}
	for _, fe := range errs {
		kind := customer.ViolationBadFormat
		if fe.Tag() == "required" {
			kind = customer.ViolationMissing
		}
		res[customer.Field(fe.Field())] = kind
	}
	return res
}
