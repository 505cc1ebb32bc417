package repository

import (
	"context"
	"crypto/subtle"
	"iter"

	"github.com/EthanKenzo12/FC723-Final-Project/internal/model"
)

// Ledger is the authoritative store of booking records, keyed by seat label.
// Implementations hold at most one record per label and never delete a
// record when the presented reference does not match.
type Ledger interface {
	// Load reads existing records.  Missing storage yields an empty ledger.
	Load(ctx context.Context) error
	// Put inserts a record, or returns ErrDuplicateBooking.
	Put(ctx context.Context, b model.Booking) error
	// Get returns the record for label, or nil when there is none.
	Get(ctx context.Context, label string) (*model.Booking, error)
	// Remove deletes the record for label if reference matches.  It returns
	// ErrBookingNotFound or ErrReferenceMismatch otherwise.
	Remove(ctx context.Context, label, reference string) error
	// ListActive yields every record in seat label order.  The sequence is
	// lazy and may be ranged over more than once.
	ListActive(ctx context.Context) iter.Seq2[model.Booking, error]
	// Persist makes pending changes durable.
	Persist(ctx context.Context) error
	Close() error
}

// referencesEqual compares two references in constant time.  References
// are case-sensitive.
func referencesEqual(stored, presented string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}
