package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidCustomer is returned when customer details fail validation.
var ErrInvalidCustomer = errors.New("invalid customer")

// Customer holds the passenger details captured at booking time.  First
// and last name and e-mail are required; the passport number is optional
// but must look like a passport number when present.
type Customer struct {
	FirstName      string `json:"first_name" validate:"required,max=64"`
	LastName       string `json:"last_name" validate:"required,max=64"`
	Email          string `json:"email" validate:"required,email,max=254"`
	PassportNumber string `json:"passport_number,omitempty" validate:"omitempty,alphanum,min=6,max=9"`
}

// Booking is the ledger record that ties a seat to its booking reference.
// There is at most one Booking per seat label.
//
// Fields:
//  SeatLabel – canonical seat label, unique within the ledger.
//  Reference – 8 character capability token required to cancel.
//  Customer  – passenger details.
//  BookedAt  – UTC time the booking was created.
type Booking struct {
	SeatLabel string    `json:"seat_label"`
	Reference string    `json:"reference"`
	Customer  Customer  `json:"customer"`
	BookedAt  time.Time `json:"booked_at"`
}

// Reservation is a Booking joined with the current status of its seat, as
// shown to the operator when listing bookings.
type Reservation struct {
	Booking
	Status SeatStatus
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json names so messages match the stored field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// NewCustomer trims its inputs and returns a validated Customer.  The
// passport number is upper-cased.
func NewCustomer(firstName, lastName, email, passportNumber string) (Customer, error) {
	c := Customer{
		FirstName:      strings.TrimSpace(firstName),
		LastName:       strings.TrimSpace(lastName),
		Email:          strings.TrimSpace(email),
		PassportNumber: strings.ToUpper(strings.TrimSpace(passportNumber)),
	}
	if err := c.Validate(); err != nil {
		return Customer{}, err
	}
	return c, nil
}

// Validate checks the struct tags and wraps failures in ErrInvalidCustomer.
func (c Customer) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidCustomer, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidCustomer, strings.Join(msgs, "; "))
}

// FullName joins first and last name for display.
func (c Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid e-mail address"
	case "alphanum":
		return fe.Field() + " must contain only letters and digits"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	}
	return fe.Field() + " is invalid"
}
