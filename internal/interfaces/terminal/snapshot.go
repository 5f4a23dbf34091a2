package terminal

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/CSCI-GA-2820-SP23-003/customers/internal/domain/customer"
)

// snapshot is the on-disk form layout, in display order.
type snapshot struct {
	ID        string `yaml:"id"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	Email     string `yaml:"email"`
	Password  string `yaml:"password"`
	AddressID string `yaml:"address_id"`
	Street    string `yaml:"street"`
	City      string `yaml:"city"`
	State     string `yaml:"state"`
	Country   string `yaml:"country"`
	PinCode   string `yaml:"pin_code"`
	Active    string `yaml:"active"`
}

func toSnapshot(fs customer.Fields) snapshot {
	return snapshot{
		ID:        fs.Get(customer.FieldID),
		FirstName: fs.Get(customer.FieldFirstName),
		LastName:  fs.Get(customer.FieldLastName),
		Email:     fs.Get(customer.FieldEmail),
		Password:  fs.Get(customer.FieldPassword),
		AddressID: fs.Get(customer.FieldAddressID),
		Street:    fs.Get(customer.FieldStreet),
		City:      fs.Get(customer.FieldCity),
		State:     fs.Get(customer.FieldState),
		Country:   fs.Get(customer.FieldCountry),
		PinCode:   fs.Get(customer.FieldPinCode),
		Active:    fs.Get(customer.FieldActive),
	}
}

func (s snapshot) fields() customer.Fields {
	return customer.Fields{
		customer.FieldID:        s.ID,
		customer.FieldFirstName: s.FirstName,
		customer.FieldLastName:  s.LastName,
		customer.FieldEmail:     s.Email,
		customer.FieldPassword:  s.Password,
		customer.FieldAddressID: s.AddressID,
		customer.FieldStreet:    s.Street,
		customer.FieldCity:      s.City,
		customer.FieldState:     s.State,
		customer.FieldCountry:   s.Country,
		customer.FieldPinCode:   s.PinCode,
		customer.FieldActive:    s.Active,
	}
}

// WriteSnapshot encodes fs as YAML.
func WriteSnapshot(w io.Writer, fs customer.Fields) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(toSnapshot(fs)); err != nil {
		return fmt.Errorf("encoding form snapshot: %w", err)
	}
	return enc.Close()
}

// ReadSnapshot decodes a YAML form. Unknown keys are rejected; absent keys
// read as blank.
func ReadSnapshot(r io.Reader) (customer.Fields, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s snapshot
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding form snapshot: %w", err)
	}
	return s.fields(), nil
}

// SaveSnapshot writes fs to path.
func SaveSnapshot(path string, fs customer.Fields) error {
	var buf bytes.Buffer
	if err := WriteSnapshot(&buf, fs); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing form snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads a form from path.
func LoadSnapshot(path string) (customer.Fields, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening form snapshot: %w", err)
	}
	defer f.Close()
	return ReadSnapshot(f)
}
