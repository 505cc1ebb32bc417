package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/EthanKenzo12/FC723-Final-Project/internal/model"
)

func sampleBooking(label, ref string) model.Booking {
	return model.Booking{
		SeatLabel: label,
		Reference: ref,
		Customer: model.Customer{
			FirstName:      "Ada",
			LastName:       "Lovelace",
			Email:          "ada@example.com",
			PassportNumber: "K1234567",
		},
		BookedAt: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
	}
}

func newRedisLedger(t *testing.T) Ledger {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewRedisLedger(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "seatbook")
}

func TestLedgerContract(t *testing.T) {
	backends := []struct {
		name string
		open func(t *testing.T) Ledger
	}{
		{"Memory", func(t *testing.T) Ledger { return NewMemoryLedger() }},
		{"File", func(t *testing.T) Ledger { return NewFileLedger(filepath.Join(t.TempDir(), "ledger.json")) }},
		{"Redis", newRedisLedger},
	}

	for _, be := range backends {
		t.Run(be.name, func(t *testing.T) {
			ctx := context.Background()
			l := be.open(t)
			t.Cleanup(func() { l.Close() })
			if err := l.Load(ctx); err != nil {
				t.Fatalf("Load() on empty storage error: %v", err)
			}

			if err := l.Put(ctx, sampleBooking("10A", "REF10AAA")); err != nil {
				t.Fatalf("Put(10A) error: %v", err)
			}
			if err := l.Put(ctx, sampleBooking("2c", "REF2CCCC")); err != nil {
				t.Fatalf("Put(2c) error: %v", err)
			}
			if err := l.Put(ctx, sampleBooking("2C", "OTHERREF")); !errors.Is(err, ErrDuplicateBooking) {
				t.Fatalf("second Put(2C) error = %v, want ErrDuplicateBooking", err)
			}

			got, err := l.Get(ctx, "2C")
			if err != nil || got == nil {
				t.Fatalf("Get(2C) = %v, %v", got, err)
			}
			if got.Reference != "REF2CCCC" || got.Customer.Email != "ada@example.com" || got.Customer.PassportNumber != "K1234567" {
				t.Errorf("Get(2C) = %+v", got)
			}
			if !got.BookedAt.Equal(sampleBooking("", "").BookedAt) {
				t.Errorf("BookedAt = %v", got.BookedAt)
			}
			if missing, err := l.Get(ctx, "3F"); err != nil || missing != nil {
				t.Errorf("Get(3F) = %v, %v, want nil, nil", missing, err)
			}

			// ordered by row number, and restartable
			for range 2 {
				var labels []string
				for b, err := range l.ListActive(ctx) {
					if err != nil {
						t.Fatalf("ListActive() error: %v", err)
					}
					labels = append(labels, b.SeatLabel)
				}
				if len(labels) != 2 || labels[0] != "2C" || labels[1] != "10A" {
					t.Errorf("ListActive() labels = %v, want [2C 10A]", labels)
				}
			}

			if err := l.Remove(ctx, "2C", "ref2cccc"); !errors.Is(err, ErrReferenceMismatch) {
				t.Errorf("Remove with lower-case reference error = %v, want ErrReferenceMismatch", err)
			}
			if b, _ := l.Get(ctx, "2C"); b == nil {
				t.Error("record deleted after a mismatched reference")
			}
			if err := l.Remove(ctx, "4D", "REF2CCCC"); !errors.Is(err, ErrBookingNotFound) {
				t.Errorf("Remove(4D) error = %v, want ErrBookingNotFound", err)
			}
			if err := l.Remove(ctx, "2c", "REF2CCCC"); err != nil {
				t.Fatalf("Remove(2c) error: %v", err)
			}
			if b, _ := l.Get(ctx, "2C"); b != nil {
				t.Errorf("Get(2C) after Remove = %+v", b)
			}
			if err := l.Put(ctx, sampleBooking("2C", "NEWREF22")); err != nil {
				t.Errorf("rebooking 2C error: %v", err)
			}
			if err := l.Persist(ctx); err != nil {
				t.Errorf("Persist() error: %v", err)
			}
		})
	}
}

func TestFileLedgerSurvivesReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.json")

	l := NewFileLedger(path)
	if err := l.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if err := l.Put(ctx, sampleBooking("1A", "ABCD1234")); err != nil {
		t.Fatal(err)
	}
	if err := l.Persist(ctx); err != nil {
		t.Fatalf("Persist() error: %v", err)
	}

	reopened := NewFileLedger(path)
	if err := reopened.Load(ctx); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	b, err := reopened.Get(ctx, "1a")
	if err != nil || b == nil {
		t.Fatalf("Get(1a) = %v, %v", b, err)
	}
	if b.Reference != "ABCD1234" || b.Customer.FullName() != "Ada Lovelace" {
		t.Errorf("reloaded booking = %+v", b)
	}
}

func TestFileLedgerLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"Malformed JSON", `{"version":1,"bookings":[`},
		{"Unknown version", `{"version":7,"bookings":[]}`},
		{"Duplicate seat", `{"version":1,"bookings":[{"seat_label":"1A","reference":"AAAA1111"},{"seat_label":"1a","reference":"BBBB2222"}]}`},
		{"Missing reference", `{"version":1,"bookings":[{"seat_label":"1A"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "ledger.json")
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}
			var le *LoadError
			if err := NewFileLedger(path).Load(context.Background()); !errors.As(err, &le) {
				t.Errorf("Load() error = %v, want *LoadError", err)
			}
		})
	}
}

func TestFileLedgerPersistFailure(t *testing.T) {
	ctx := context.Background()
	l := NewFileLedger(filepath.Join(t.TempDir(), "missing-dir", "ledger.json"))
	if err := l.Put(ctx, sampleBooking("1A", "ABCD1234")); err != nil {
		t.Fatal(err)
	}
	var pe *PersistError
	if err := l.Persist(ctx); !errors.As(err, &pe) {
		t.Errorf("Persist() error = %v, want *PersistError", err)
	}
}

func TestRedisLedgerUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	l := NewRedisLedger(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "seatbook")
	mr.Close()

	var le *LoadError
	if err := l.Load(context.Background()); !errors.As(err, &le) {
		t.Errorf("Load() error = %v, want *LoadError", err)
	}
}

func TestRedisLedgerRemove(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	l := NewRedisLedger(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "seatbook")
	if err := l.Put(ctx, sampleBooking("3C", "REDIS3CC")); err != nil {
		t.Fatal(err)
	}

	if err := l.Remove(ctx, "3C", "REDIS3CX"); !errors.Is(err, ErrReferenceMismatch) {
		t.Errorf("Remove(wrong) error = %v, want ErrReferenceMismatch", err)
	}
	if got := mr.HGet("seatbook:references", "3C"); got != "REDIS3CC" {
		t.Errorf("reference after wrong Remove = %q", got)
	}
	if mr.HGet("seatbook:bookings", "3C") == "" {
		t.Error("record deleted by wrong reference")
	}

	// another client rebooks the seat under a new reference
	mr.HSet("seatbook:references", "3C", "OTHER3CC")
	if err := l.Remove(ctx, "3C", "REDIS3CC"); !errors.Is(err, ErrReferenceMismatch) {
		t.Errorf("Remove(stale) error = %v, want ErrReferenceMismatch", err)
	}

	if err := l.Remove(ctx, "3c", "OTHER3CC"); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	if mr.HGet("seatbook:bookings", "3C") != "" || mr.HGet("seatbook:references", "3C") != "" {
		t.Error("hash fields kept after Remove")
	}
	if err := l.Remove(ctx, "3C", "OTHER3CC"); !errors.Is(err, ErrBookingNotFound) {
		t.Errorf("second Remove() error = %v, want ErrBookingNotFound", err)
	}

	mr.Close()
	var pe *PersistError
	if err := l.Remove(ctx, "3C", "OTHER3CC"); !errors.As(err, &pe) {
		t.Errorf("Remove() on closed server error = %v, want *PersistError", err)
	}
}
