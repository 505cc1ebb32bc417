// Package service implements the reservation workflow on top of the seat
// map, the booking ledger and the reference generator, and publishes
// booking events.
package service

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/EthanKenzo12/FC723-Final-Project/internal/model"
	"github.com/EthanKenzo12/FC723-Final-Project/internal/queue"
	"github.com/EthanKenzo12/FC723-Final-Project/internal/repository"
	"github.com/EthanKenzo12/FC723-Final-Project/internal/utils"
)

// ErrNotOpen is returned by every operation called before Open succeeds.
var ErrNotOpen = errors.New("reservation service not opened")

// SeatStore loads and saves the seat table.  *repository.SeatTable is the
// production implementation.
type SeatStore interface {
	Load() (*repository.SeatMap, error)
	Save(*repository.SeatMap) error
}

// ReservationService books and frees seats.  The ledger is authoritative:
// a seat is Reserved exactly when the ledger holds a record for it, and the
// seat table is kept as a projection of that.  It is not safe for
// concurrent use.
type ReservationService struct {
	store  SeatStore
	seats  *repository.SeatMap
	ledger repository.Ledger
	refs   *utils.ReferenceGenerator
	events EventPublisher
	log    *log.Helper
	now    func() time.Time
}

// NewReservationService wires the service.  refs may be nil for a fresh
// generator and events may be nil to disable publishing.
func NewReservationService(store SeatStore, ledger repository.Ledger, refs *utils.ReferenceGenerator, events EventPublisher, logger log.Logger) *ReservationService {
	if refs == nil {
		refs = utils.NewReferenceGenerator()
	}
	return &ReservationService{
		store:  store,
		ledger: ledger,
		refs:   refs,
		events: events,
		log:    log.NewHelper(log.With(logger, "module", "service/reservation")),
		now:    time.Now,
	}
}

// Open loads the seat table and the ledger, seeds the reference generator
// with every stored reference and reconciles seat statuses with the
// ledger.  Seats that disagree are corrected and the table is saved.  A
// ledger record for a seat that is unknown, an aisle or storage is a
// *repository.LoadError.
func (s *ReservationService) Open(ctx context.Context) error {
	seats, err := s.store.Load()
	if err != nil {
		return err
	}
	if err := s.ledger.Load(ctx); err != nil {
		return err
	}

	booked := make(map[string]bool)
	for b, err := range s.ledger.ListActive(ctx) {
		if err != nil {
			return &repository.LoadError{Source: "ledger", Err: err}
		}
		st, err := seats.Status(b.SeatLabel)
		if err != nil {
			return &repository.LoadError{Source: "ledger", Err: fmt.Errorf("booking %s: %w", b.SeatLabel, err)}
		}
		if st == model.StatusAisle || st == model.StatusStorage {
			return &repository.LoadError{Source: "ledger", Err: fmt.Errorf("booking %s: seat is %s", b.SeatLabel, st)}
		}
		s.refs.Track(b.Reference)
		booked[model.NormalizeLabel(b.SeatLabel)] = true
	}

	repaired := 0
	for _, label := range seats.Labels() {
		st, _ := seats.Status(label)
		switch {
		case booked[label] && st != model.StatusReserved:
			_ = seats.SetStatus(label, model.StatusReserved)
			repaired++
		case !booked[label] && st == model.StatusReserved:
			_ = seats.SetStatus(label, model.StatusFree)
			repaired++
		}
	}
	if repaired > 0 {
		s.log.Warnf("seat table disagreed with ledger on %d seats; repairing", repaired)
		if err := s.store.Save(seats); err != nil {
			return err
		}
	}

	s.seats = seats
	s.log.Infof("opened: %d seats, %d bookings", seats.Len(), len(booked))
	return nil
}

// CheckAvailability reports whether the seat can be booked.  Aisle and
// storage cells are never available.
func (s *ReservationService) CheckAvailability(ctx context.Context, label string) (bool, error) {
	if s.seats == nil {
		return false, ErrNotOpen
	}
	st, err := s.seats.Status(label)
	if err != nil {
		return false, err
	}
	return st.Bookable(), nil
}

// BookSeat reserves a Free seat for customer and returns the new booking
// reference.  The ledger is written before the seat table.  When either
// write fails the error is a *repository.PersistError; the booking is
// still held in memory and its reference is returned alongside the error
// so the caller can pass it on.
func (s *ReservationService) BookSeat(ctx context.Context, label string, customer model.Customer) (string, error) {
	if s.seats == nil {
		return "", ErrNotOpen
	}
	label = model.NormalizeLabel(label)
	st, err := s.seats.Status(label)
	if err != nil {
		return "", err
	}
	if !st.Bookable() {
		return "", fmt.Errorf("seat %s is %s: %w", label, st, repository.ErrSeatUnavailable)
	}
	existing, err := s.ledger.Get(ctx, label)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "", fmt.Errorf("seat %s: %w", label, repository.ErrDuplicateBooking)
	}
	if err := customer.Validate(); err != nil {
		return "", err
	}

	ref, err := s.refs.Next()
	if err != nil {
		return "", err
	}
	booking := model.Booking{
		SeatLabel: label,
		Reference: ref,
		Customer:  customer,
		BookedAt:  s.now().UTC(),
	}

	if err := s.seats.SetStatus(label, model.StatusReserved); err != nil {
		return "", err
	}
	if err := s.ledger.Put(ctx, booking); err != nil {
		_ = s.seats.SetStatus(label, st)
		return "", err
	}
	if err := s.persist(ctx); err != nil {
		s.log.Errorf("booking %s kept in memory only: %v", label, err)
		return ref, err
	}

	s.log.Infof("seat %s booked", label)
	s.publish(ctx, queue.NewBookingEvent(queue.BookingConfirmed, booking, booking.BookedAt))
	return ref, nil
}

// FreeSeat cancels the booking on label when reference matches the stored
// one.  A missing booking and a wrong reference both yield
// repository.ErrReferenceMismatch, so the error does not reveal whether a
// seat is booked.
func (s *ReservationService) FreeSeat(ctx context.Context, label, reference string) error {
	if s.seats == nil {
		return ErrNotOpen
	}
	label = model.NormalizeLabel(label)
	if _, err := s.seats.Status(label); err != nil {
		return err
	}
	booking, err := s.ledger.Get(ctx, label)
	if err != nil {
		return err
	}
	if booking == nil {
		return fmt.Errorf("seat %s: %w", label, repository.ErrReferenceMismatch)
	}
	if err := s.ledger.Remove(ctx, label, reference); err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) || errors.Is(err, repository.ErrReferenceMismatch) {
			return fmt.Errorf("seat %s: %w", label, repository.ErrReferenceMismatch)
		}
		return err
	}

	if err := s.seats.SetStatus(label, model.StatusFree); err != nil {
		return err
	}
	if err := s.persist(ctx); err != nil {
		s.log.Errorf("cancellation of %s kept in memory only: %v", label, err)
		return err
	}

	s.log.Infof("seat %s freed", label)
	s.publish(ctx, queue.NewBookingEvent(queue.BookingCancelled, *booking, s.now()))
	return nil
}

// ListReservations yields every booking in seat order together with the
// seat's current status.
func (s *ReservationService) ListReservations(ctx context.Context) iter.Seq2[model.Reservation, error] {
	return func(yield func(model.Reservation, error) bool) {
		if s.seats == nil {
			yield(model.Reservation{}, ErrNotOpen)
			return
		}
		for b, err := range s.ledger.ListActive(ctx) {
			if err != nil {
				yield(model.Reservation{}, err)
				return
			}
			st, _ := s.seats.Status(b.SeatLabel)
			if !yield(model.Reservation{Booking: b, Status: st}, nil) {
				return
			}
		}
	}
}

// AvailableSeatsInRow returns the bookable labels among columns A-F of row,
// in column order.  Labels missing from the table are skipped.
func (s *ReservationService) AvailableSeatsInRow(ctx context.Context, row int) ([]string, error) {
	if s.seats == nil {
		return nil, ErrNotOpen
	}
	out := []string{}
	if row <= 0 {
		return out, nil
	}
	for i := 0; i < len(model.SeatColumns); i++ {
		label := model.SeatLabel(row, model.SeatColumns[i])
		if s.seats.IsBookable(label) {
			out = append(out, label)
		}
	}
	return out, nil
}

// Close releases the ledger and the event publisher.
func (s *ReservationService) Close() error {
	var errs []error
	if s.events != nil {
		errs = append(errs, s.events.Close())
	}
	errs = append(errs, s.ledger.Close())
	return errors.Join(errs...)
}

func (s *ReservationService) persist(ctx context.Context) error {
	if err := s.ledger.Persist(ctx); err != nil {
		return err
	}
	return s.store.Save(s.seats)
}

func (s *ReservationService) publish(ctx context.Context, ev queue.BookingEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warnf("publish %s for seat %s failed: %v", ev.Type, ev.SeatLabel, err)
	}
}
