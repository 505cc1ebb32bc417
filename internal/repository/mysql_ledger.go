package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"

	"github.com/go-sql-driver/mysql"

	"github.com/EthanKenzo12/FC723-Final-Project/internal/model"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

const createBookingsTable = `CREATE TABLE IF NOT EXISTS bookings (
    seat_label      VARCHAR(8)   NOT NULL PRIMARY KEY,
    seat_row        INT          NOT NULL,
    seat_col        CHAR(1)      NOT NULL,
    reference       CHAR(8)      NOT NULL UNIQUE,
    first_name      VARCHAR(64)  NOT NULL,
    last_name       VARCHAR(64)  NOT NULL,
    email           VARCHAR(254) NOT NULL,
    passport_number VARCHAR(9)   NULL,
    status          VARCHAR(16)  NOT NULL,
    booked_at       DATETIME     NOT NULL,
    INDEX idx_bookings_position (seat_row, seat_col)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin`

const selectBookingColumns = `SELECT seat_label, seat_row, seat_col, reference, first_name, last_name, email, passport_number, status, booked_at FROM bookings`

// MySQLLedger stores bookings in the bookings table.  Every write goes
// straight to the database, so Persist has nothing to do.
type MySQLLedger struct {
	db *sql.DB
}

// NewMySQLLedger returns a ledger bound to db.  The ledger owns db and
// closes it on Close.
func NewMySQLLedger(db *sql.DB) *MySQLLedger { return &MySQLLedger{db: db} }

// Load creates the bookings table when it does not exist yet.
func (l *MySQLLedger) Load(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, createBookingsTable); err != nil {
		return &LoadError{Source: "mysql ledger", Err: err}
	}
	return nil
}

func (l *MySQLLedger) Put(ctx context.Context, b model.Booking) error {
	r := newBookingRow(b)
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO bookings (seat_label, seat_row, seat_col, reference, first_name, last_name, email, passport_number, status, booked_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.SeatLabel, r.SeatRow, r.SeatCol, r.Reference, r.FirstName, r.LastName, r.Email,
		r.PassportNumber, r.Status, r.BookedAt)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
			return fmt.Errorf("seat %s: %w", r.SeatLabel, ErrDuplicateBooking)
		}
		return &PersistError{Sink: "mysql ledger", Err: err}
	}
	return nil
}

func (l *MySQLLedger) Get(ctx context.Context, label string) (*model.Booking, error) {
	row := l.db.QueryRowContext(ctx, selectBookingColumns+` WHERE seat_label = ?`, model.NormalizeLabel(label))
	r, err := scanBookingRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	b := r.booking()
	return &b, nil
}

// Remove locks the row, checks the reference and deletes it in a single
// transaction.
func (l *MySQLLedger) Remove(ctx context.Context, label, reference string) error {
	label = model.NormalizeLabel(label)
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var stored string
	err = tx.QueryRowContext(ctx, `SELECT reference FROM bookings WHERE seat_label = ? FOR UPDATE`, label).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("seat %s: %w", label, ErrBookingNotFound)
	}
	if err != nil {
		return err
	}
	if !referencesEqual(stored, reference) {
		return fmt.Errorf("seat %s: %w", label, ErrReferenceMismatch)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE seat_label = ?`, label); err != nil {
		return &PersistError{Sink: "mysql ledger", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &PersistError{Sink: "mysql ledger", Err: err}
	}
	return nil
}

// ListActive streams rows ordered by seat position.
func (l *MySQLLedger) ListActive(ctx context.Context) iter.Seq2[model.Booking, error] {
	return func(yield func(model.Booking, error) bool) {
		rows, err := l.db.QueryContext(ctx, selectBookingColumns+` ORDER BY seat_row, seat_col, seat_label`)
		if err != nil {
			yield(model.Booking{}, err)
			return
		}
		defer rows.Close()
		for rows.Next() {
			r, err := scanBookingRow(rows)
			if err != nil {
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

func (l *MySQLLedger) Persist(ctx context.Context) error { return nil }

func (l *MySQLLedger) Close() error { return l.db.Close() }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBookingRow(s rowScanner) (bookingRow, error) {
	var r bookingRow
	err := s.Scan(&r.SeatLabel, &r.SeatRow, &r.SeatCol, &r.Reference, &r.FirstName, &r.LastName,
		&r.Email, &r.PassportNumber, &r.Status, &r.BookedAt)
	return r, err
}
