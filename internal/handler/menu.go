// Package handler contains the interactive front end of the reservation
// service: a numbered menu read from an input stream.
package handler

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/EthanKenzo12/FC723-Final-Project/internal/model"
	"github.com/EthanKenzo12/FC723-Final-Project/internal/repository"
)

// Reservations is the part of service.ReservationService the menu drives.
type Reservations interface {
	CheckAvailability(ctx context.Context, label string) (bool, error)
	AvailableSeatsInRow(ctx context.Context, row int) ([]string, error)
	BookSeat(ctx context.Context, label string, customer model.Customer) (string, error)
	FreeSeat(ctx context.Context, label, reference string) error
	ListReservations(ctx context.Context) iter.Seq2[model.Reservation, error]
}

// Menu reads numbered choices from in and writes prompts and results to
// out.  Errors from the service are turned into messages; Run only fails
// when the input itself cannot be read.
type Menu struct {
	svc Reservations
	in  *bufio.Scanner
	out io.Writer
	log *log.Helper
}

// NewMenu returns a menu over the given streams.
func NewMenu(svc Reservations, in io.Reader, out io.Writer, logger log.Logger) *Menu {
	return &Menu{
		svc: svc,
		in:  bufio.NewScanner(in),
		out: out,
		log: log.NewHelper(log.With(logger, "module", "handler/menu")),
	}
}

// Run shows the menu until the user exits, the input ends or ctx is done.
func (m *Menu) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.printMenu()
		choice, ok := m.prompt("Choose an option: ")
		if !ok {
			m.println()
			m.println("Thank you for using our system!")
			return m.in.Err()
		}
		switch choice {
		case "1":
			m.checkSeat(ctx)
		case "2":
			m.checkRow(ctx)
		case "3":
			m.bookSeat(ctx)
		case "4":
			m.freeSeat(ctx)
		case "5":
			m.showBookings(ctx)
		case "6":
			m.println("Thank you for using our system!")
			return nil
		default:
			m.println("Invalid option. Please choose 1-6.")
		}
	}
}

func (m *Menu) printMenu() {
	m.println()
	m.println("Menu:")
	m.println("1. Check availability of a seat")
	m.println("2. Check available seats in a row")
	m.println("3. Book a seat")
	m.println("4. Free a seat")
	m.println("5. Show booking state")
	m.println("6. Exit")
}

func (m *Menu) checkSeat(ctx context.Context) {
	label, ok := m.promptLabel()
	if !ok {
		return
	}
	available, err := m.svc.CheckAvailability(ctx, label)
	if err != nil {
		m.reportError(label, err)
		return
	}
	if available {
		m.printf("Seat %s is available.\n", label)
	} else {
		m.printf("Sorry, seat %s is not available.\n", label)
	}
}

func (m *Menu) checkRow(ctx context.Context) {
	raw, ok := m.prompt("Enter row number: ")
	if !ok {
		return
	}
	row, err := strconv.Atoi(raw)
	if err != nil || row <= 0 {
		m.printf("Invalid row number %q.\n", raw)
		return
	}
	seats, err := m.svc.AvailableSeatsInRow(ctx, row)
	if err != nil {
		m.reportError("", err)
		return
	}
	if len(seats) == 0 {
		m.printf("No available seats in row %d.\n", row)
		return
	}
	m.printf("Available seats in row %d: %s\n", row, strings.Join(seats, ", "))
}

func (m *Menu) bookSeat(ctx context.Context) {
	label, ok := m.promptLabel()
	if !ok {
		return
	}
	available, err := m.svc.CheckAvailability(ctx, label)
	if err != nil {
		m.reportError(label, err)
		return
	}
	if !available {
		m.printf("Sorry, seat %s is not available.\n", label)
		return
	}

	var fields [4]string
	for i, p := range []string{"First name: ", "Last name: ", "Passport number (optional): ", "E-mail: "} {
		if fields[i], ok = m.prompt(p); !ok {
			return
		}
	}
	customer, err := model.NewCustomer(fields[0], fields[1], fields[3], fields[2])
	if err != nil {
		m.reportError(label, err)
		return
	}

	ref, err := m.svc.BookSeat(ctx, label, customer)
	if err != nil {
		if ref != "" {
			m.printf("Booking reference: %s\n", ref)
		}
		m.reportError(label, err)
		return
	}
	m.printf("Booking complete. Reference: %s\n", ref)
}

func (m *Menu) freeSeat(ctx context.Context) {
	label, ok := m.promptLabel()
	if !ok {
		return
	}
	ref, ok := m.prompt("Booking reference: ")
	if !ok {
		return
	}
	if err := m.svc.FreeSeat(ctx, label, ref); err != nil {
		m.reportError(label, err)
		return
	}
	m.printf("Seat %s has been freed.\n", label)
}

func (m *Menu) showBookings(ctx context.Context) {
	n := 0
	for r, err := range m.svc.ListReservations(ctx) {
		if err != nil {
			m.reportError("", err)
			return
		}
		n++
		m.printf("Seat %s is %s. Booking reference: %s. Passenger: %s <%s>\n",
			r.SeatLabel, r.Status, r.Reference, r.Customer.FullName(), r.Customer.Email)
	}
	if n == 0 {
		m.println("No booked seats.")
	}
}

// reportError maps service failures onto user-facing messages.
func (m *Menu) reportError(label string, err error) {
	var pe *repository.PersistError
	switch {
	case errors.Is(err, repository.ErrUnknownSeat):
		m.printf("Seat %s does not exist.\n", label)
	case errors.Is(err, repository.ErrSeatUnavailable):
		m.printf("Sorry, seat %s cannot be booked.\n", label)
	case errors.Is(err, repository.ErrDuplicateBooking):
		m.printf("A booking for seat %s already exists.\n", label)
	case errors.Is(err, repository.ErrReferenceMismatch):
		m.printf("No booking on seat %s matches that reference.\n", label)
	case errors.Is(err, model.ErrInvalidCustomer):
		detail := strings.TrimPrefix(err.Error(), model.ErrInvalidCustomer.Error()+": ")
		m.printf("Invalid passenger details: %s.\n", detail)
	case errors.As(err, &pe):
		m.log.Errorf("persist failed: %v", err)
		m.println("Warning: the change was applied but could not be saved. Please contact support.")
	default:
		m.log.Errorf("operation on %q failed: %v", label, err)
		m.printf("Error: %v\n", err)
	}
}

func (m *Menu) promptLabel() (string, bool) {
	label, ok := m.prompt("Enter seat number (e.g. 1A): ")
	return model.NormalizeLabel(label), ok
}

// prompt writes p and returns the next trimmed line.  ok is false at end of
// input.
func (m *Menu) prompt(p string) (string, bool) {
	fmt.Fprint(m.out, p)
	if !m.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(m.in.Text()), true
}

func (m *Menu) printf(format string, args ...any) { fmt.Fprintf(m.out, format, args...) }

func (m *Menu) println(args ...any) { fmt.Fprintln(m.out, args...) }
