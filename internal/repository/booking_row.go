package repository

import (
	"time"

	"github.com/EthanKenzo12/FC723-Final-Project/internal/model"
)

// bookingStatusConfirmed is the only status a stored row carries: cancelled
// bookings are deleted, not flagged.
const bookingStatusConfirmed = "CONFIRMED"

// bookingRow mirrors the bookings table shared by the SQL ledgers.  Row and
// column are stored separately so listings can be ordered numerically.
type bookingRow struct {
	SeatLabel      string    `gorm:"primaryKey;size:8"`
	SeatRow        int       `gorm:"not null;index:idx_bookings_position,priority:1"`
	SeatCol        string    `gorm:"size:1;not null;index:idx_bookings_position,priority:2"`
	Reference      string    `gorm:"size:8;not null;uniqueIndex"`
	FirstName      string    `gorm:"size:64;not null"`
	LastName       string    `gorm:"size:64;not null"`
	Email          string    `gorm:"size:254;not null"`
	PassportNumber *string   `gorm:"size:9"`
	Status         string    `gorm:"size:16;not null"`
	BookedAt       time.Time `gorm:"not null"`
}

func (bookingRow) TableName() string { return "bookings" }

func newBookingRow(b model.Booking) bookingRow {
	label := model.NormalizeLabel(b.SeatLabel)
	r := bookingRow{
		SeatLabel: label,
		Reference: b.Reference,
		FirstName: b.Customer.FirstName,
		LastName:  b.Customer.LastName,
		Email:     b.Customer.Email,
		Status:    bookingStatusConfirmed,
		BookedAt:  b.BookedAt.UTC(),
	}
	if row, col, ok := model.ParseLabel(label); ok {
		r.SeatRow = row
		r.SeatCol = string(col)
	}
	if b.Customer.PassportNumber != "" {
		p := b.Customer.PassportNumber
		r.PassportNumber = &p
	}
	return r
}

func (r bookingRow) booking() model.Booking {
	b := model.Booking{
		SeatLabel: r.SeatLabel,
		Reference: r.Reference,
		Customer: model.Customer{
			FirstName: r.FirstName,
			LastName:  r.LastName,
			Email:     r.Email,
		},
		BookedAt: r.BookedAt.UTC(),
	}
	if r.PassportNumber != nil {
		b.Customer.PassportNumber = *r.PassportNumber
	}
	return b
}
