package repository

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/EthanKenzo12/FC723-Final-Project/internal/model"
)

// PostgresLedger stores bookings through GORM.  The *gorm.DB must be opened
// with TranslateError so unique violations surface as gorm.ErrDuplicatedKey.
type PostgresLedger struct {
	db *gorm.DB
}

// NewPostgresLedger returns a ledger bound to db.
func NewPostgresLedger(db *gorm.DB) *PostgresLedger { return &PostgresLedger{db: db} }

// Load migrates the bookings table.
func (l *PostgresLedger) Load(ctx context.Context) error {
	if err := l.db.WithContext(ctx).AutoMigrate(&bookingRow{}); err != nil {
		return &LoadError{Source: "postgres ledger", Err: err}
	}
	return nil
}

func (l *PostgresLedger) Put(ctx context.Context, b model.Booking) error {
	r := newBookingRow(b)
	if err := l.db.WithContext(ctx).Create(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("seat %s: %w", r.SeatLabel, ErrDuplicateBooking)
		}
		return &PersistError{Sink: "postgres ledger", Err: err}
	}
	return nil
}

func (l *PostgresLedger) Get(ctx context.Context, label string) (*model.Booking, error) {
	var r bookingRow
	err := l.db.WithContext(ctx).Where("seat_label = ?", model.NormalizeLabel(label)).Take(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	b := r.booking()
	return &b, nil
}

func (l *PostgresLedger) Remove(ctx context.Context, label, reference string) error {
	label = model.NormalizeLabel(label)
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var r bookingRow
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("reference").
			Where("seat_label = ?", label).
			Take(&r).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("seat %s: %w", label, ErrBookingNotFound)
		}
		if err != nil {
			return err
		}
		if !referencesEqual(r.Reference, reference) {
			return fmt.Errorf("seat %s: %w", label, ErrReferenceMismatch)
		}
		if err := tx.Where("seat_label = ?", label).Delete(&bookingRow{}).Error; err != nil {
			return &PersistError{Sink: "postgres ledger", Err: err}
		}
		return nil
	})
}

func (l *PostgresLedger) ListActive(ctx context.Context) iter.Seq2[model.Booking, error] {
	return func(yield func(model.Booking, error) bool) {
		rows, err := l.db.WithContext(ctx).Model(&bookingRow{}).
			Order("seat_row, seat_col, seat_label").
			Rows()
		if err != nil {
			yield(model.Booking{}, err)
			return
		}
		defer rows.Close()
		for rows.Next() {
			var r bookingRow
			if err := l.db.ScanRows(rows, &r); err != nil {
				yield(model.Booking{}, err)
				return
			}
			if !yield(r.booking(), nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(model.Booking{}, err)
		}
	}
}

func (l *PostgresLedger) Persist(ctx context.Context) error { return nil }

func (l *PostgresLedger) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
