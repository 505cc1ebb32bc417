// Package repository holds the two passive stores of the reservation
// system: the seat map (a tabular projection of seat status) and the
// booking ledger (the authoritative set of booking records).  The sentinel
// values below let higher layers tell failure scenarios apart with
// errors.Is, and LoadError/PersistError carry I/O failures with errors.As.
package repository

import (
	"errors"
	"fmt"
)

// ErrUnknownSeat is returned when a label is not present in the seat map.
var ErrUnknownSeat = errors.New("unknown seat")

// ErrSeatUnavailable is returned when a seat is not Free (already reserved,
// aisle or storage).
var ErrSeatUnavailable = errors.New("seat unavailable")

// ErrDuplicateBooking is returned when the ledger already has a record for
// the seat label.
var ErrDuplicateBooking = errors.New("duplicate booking")

// ErrReferenceMismatch is returned when a cancellation presents a reference
// that does not match the stored one.
var ErrReferenceMismatch = errors.New("booking reference mismatch")

// ErrBookingNotFound is returned by ledgers when no record exists for the
// seat label.
var ErrBookingNotFound = errors.New("booking not found")

// LoadError reports a failure to read a store.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string { return fmt.Sprintf("load %s: %v", e.Source, e.Err) }

func (e *LoadError) Unwrap() error { return e.Err }

// PersistError reports a failure to write a store.
type PersistError struct {
	Sink string
	Err  error
}

func (e *PersistError) Error() string { return fmt.Sprintf("persist %s: %v", e.Sink, e.Err) }

func (e *PersistError) Unwrap() error { return e.Err }
