// Package queue defines message payloads exchanged over the message broker.
package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/EthanKenzo12/FC723-Final-Project/internal/model"
)

// Event types.
const (
	BookingConfirmed = "booking.confirmed"
	BookingCancelled = "booking.cancelled"
)

// BookingEvent is published after a seat is booked or freed.  It carries
// enough for downstream consumers to log or notify without reading the
// ledger.  The booking reference is deliberately absent: it is the only
// credential needed to cancel.
type BookingEvent struct {
	EventID       string    `json:"event_id"`
	Type          string    `json:"type"`
	SeatLabel     string    `json:"seat_label"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// NewBookingEvent builds an event of the given type for b.
func NewBookingEvent(eventType string, b model.Booking, at time.Time) BookingEvent {
	return BookingEvent{
		EventID:       uuid.NewString(),
		Type:          eventType,
		SeatLabel:     b.SeatLabel,
		CustomerName:  b.Customer.FullName(),
		CustomerEmail: b.Customer.Email,
		OccurredAt:    at.UTC(),
	}
}
