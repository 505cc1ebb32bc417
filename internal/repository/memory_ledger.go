package repository

import (
	"context"
	"fmt"
	"iter"
	"slices"

	"github.com/EthanKenzo12/FC723-Final-Project/internal/model"
)

// MemoryLedger keeps bookings in process memory only.  Persist is a no-op,
// so everything is lost on exit.  It also serves as the working set of
// FileLedger.
type MemoryLedger struct {
	bookings   map[string]model.Booking
	references map[string]string // reference -> seat label
}

// NewMemoryLedger returns an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		bookings:   make(map[string]model.Booking),
		references: make(map[string]string),
	}
}

func (l *MemoryLedger) Load(ctx context.Context) error { return nil }

func (l *MemoryLedger) Put(ctx context.Context, b model.Booking) error {
	b.SeatLabel = model.NormalizeLabel(b.SeatLabel)
	if _, ok := l.bookings[b.SeatLabel]; ok {
		return fmt.Errorf("seat %s: %w", b.SeatLabel, ErrDuplicateBooking)
	}
	if other, ok := l.references[b.Reference]; ok {
		return fmt.Errorf("reference already used by seat %s: %w", other, ErrDuplicateBooking)
	}
	l.bookings[b.SeatLabel] = b
	l.references[b.Reference] = b.SeatLabel
	return nil
}

func (l *MemoryLedger) Get(ctx context.Context, label string) (*model.Booking, error) {
	b, ok := l.bookings[model.NormalizeLabel(label)]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (l *MemoryLedger) Remove(ctx context.Context, label, reference string) error {
	label = model.NormalizeLabel(label)
	b, ok := l.bookings[label]
	if !ok {
		return fmt.Errorf("seat %s: %w", label, ErrBookingNotFound)
	}
	if !referencesEqual(b.Reference, reference) {
		return fmt.Errorf("seat %s: %w", label, ErrReferenceMismatch)
	}
	delete(l.bookings, label)
	delete(l.references, b.Reference)
	return nil
}

// ListActive takes a snapshot of the labels each time it is ranged over.
func (l *MemoryLedger) ListActive(ctx context.Context) iter.Seq2[model.Booking, error] {
	return func(yield func(model.Booking, error) bool) {
		labels := make([]string, 0, len(l.bookings))
		for label := range l.bookings {
			labels = append(labels, label)
		}
		slices.SortFunc(labels, model.CompareLabels)
		for _, label := range labels {
			b, ok := l.bookings[label]
			if !ok {
				continue
			}
			if !yield(b, nil) {
				return
			}
		}
	}
}

func (l *MemoryLedger) Persist(ctx context.Context) error { return nil }

func (l *MemoryLedger) Close() error { return nil }

// Len returns the number of records.
func (l *MemoryLedger) Len() int { return len(l.bookings) }

func (l *MemoryLedger) reset() {
	l.bookings = make(map[string]model.Booking)
	l.references = make(map[string]string)
}
