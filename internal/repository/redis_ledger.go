package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"slices"

	"github.com/redis/go-redis/v9"

	"github.com/EthanKenzo12/FC723-Final-Project/internal/model"
)

// putBookingScript inserts a record only when the seat has none.
// KEYS[1] records hash, KEYS[2] references hash.
// ARGV[1] seat label, ARGV[2] reference, ARGV[3] encoded record.
// Returns 1 on insert, 0 when the seat is already booked.
var putBookingScript = redis.NewScript(`
local label = ARGV[1]
if redis.call('HEXISTS', KEYS[1], label) == 1 then
    return 0
end
redis.call('HSET', KEYS[1], label, ARGV[3])
redis.call('HSET', KEYS[2], label, ARGV[2])
return 1
`)

// RedisLedger keeps records in two hashes under a key prefix: one with the
// JSON encoded bookings and one with just the references.  Inserts run as
// a Lua script.  Removal reads the stored reference under WATCH, compares
// it in constant time and deletes in MULTI/EXEC, retrying when another
// client changes the references hash in between.
type RedisLedger struct {
	rdb           *redis.Client
	bookingsKey   string
	referencesKey string
}

// NewRedisLedger returns a ledger using keys under prefix (for example
// "seatbook" gives "seatbook:bookings" and "seatbook:references").
func NewRedisLedger(rdb *redis.Client, prefix string) *RedisLedger {
	return &RedisLedger{
		rdb:           rdb,
		bookingsKey:   prefix + ":bookings",
		referencesKey: prefix + ":references",
	}
}

// Load checks that the server is reachable.  Records are read on demand.
func (l *RedisLedger) Load(ctx context.Context) error {
	if err := l.rdb.Ping(ctx).Err(); err != nil {
		return &LoadError{Source: "redis ledger", Err: err}
	}
	return nil
}

func (l *RedisLedger) Put(ctx context.Context, b model.Booking) error {
	b.SeatLabel = model.NormalizeLabel(b.SeatLabel)
	b.BookedAt = b.BookedAt.UTC()
	data, err := json.Marshal(b)
	if err != nil {
		return &PersistError{Sink: "redis ledger", Err: err}
	}
	n, err := putBookingScript.Run(ctx, l.rdb,
		[]string{l.bookingsKey, l.referencesKey},
		b.SeatLabel, b.Reference, data).Int()
	if err != nil {
		return &PersistError{Sink: "redis ledger", Err: err}
	}
	if n == 0 {
		return fmt.Errorf("seat %s: %w", b.SeatLabel, ErrDuplicateBooking)
	}
	return nil
}

func (l *RedisLedger) Get(ctx context.Context, label string) (*model.Booking, error) {
	data, err := l.rdb.HGet(ctx, l.bookingsKey, model.NormalizeLabel(label)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var b model.Booking
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode booking %s: %w", label, err)
	}
	return &b, nil
}

// removeAttempts bounds the optimistic retries of Remove.
const removeAttempts = 3

func (l *RedisLedger) Remove(ctx context.Context, label, reference string) error {
	label = model.NormalizeLabel(label)
	remove := func(tx *redis.Tx) error {
		stored, err := tx.HGet(ctx, l.referencesKey, label).Result()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("seat %s: %w", label, ErrBookingNotFound)
		}
		if err != nil {
			return err
		}
		if !referencesEqual(stored, reference) {
			return fmt.Errorf("seat %s: %w", label, ErrReferenceMismatch)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HDel(ctx, l.bookingsKey, label)
			pipe.HDel(ctx, l.referencesKey, label)
			return nil
		})
		return err
	}

	var err error
	for range removeAttempts {
		err = l.rdb.Watch(ctx, remove, l.referencesKey)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrBookingNotFound), errors.Is(err, ErrReferenceMismatch):
		return err
	}
	return &PersistError{Sink: "redis ledger", Err: err}
}

// ListActive reads the whole hash on each range and yields it sorted.
func (l *RedisLedger) ListActive(ctx context.Context) iter.Seq2[model.Booking, error] {
	return func(yield func(model.Booking, error) bool) {
		all, err := l.rdb.HGetAll(ctx, l.bookingsKey).Result()
		if err != nil {
			yield(model.Booking{}, err)
			return
		}
		bookings := make([]model.Booking, 0, len(all))
		for label, data := range all {
			var b model.Booking
			if err := json.Unmarshal([]byte(data), &b); err != nil {
				yield(model.Booking{}, fmt.Errorf("decode booking %s: %w", label, err))
				return
			}
			bookings = append(bookings, b)
		}
		slices.SortFunc(bookings, func(a, b model.Booking) int {
			return model.CompareLabels(a.SeatLabel, b.SeatLabel)
		})
		for _, b := range bookings {
			if !yield(b, nil) {
				return
			}
		}
	}
}

func (l *RedisLedger) Persist(ctx context.Context) error { return nil }

func (l *RedisLedger) Close() error { return l.rdb.Close() }
