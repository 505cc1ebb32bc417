package handler

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/EthanKenzo12/FC723-Final-Project/internal/repository"
	"github.com/EthanKenzo12/FC723-Final-Project/internal/service"
)

var referencePattern = regexp.MustCompile(`Booking complete\. Reference: ([A-Z0-9]{8})`)

func newTestService(t *testing.T) *service.ReservationService {
	t.Helper()
	dir := t.TempDir()
	seatPath := filepath.Join(dir, "seatplan.csv")
	table := "Seat,Status\n1A,Free\n1B,Free\n1X,X\n1C,Free\n2A,Free\n2F,S\n"
	if err := os.WriteFile(seatPath, []byte(table), 0o644); err != nil {
		t.Fatal(err)
	}
	svc := service.NewReservationService(
		repository.NewSeatTable(seatPath),
		repository.NewFileLedger(filepath.Join(dir, "bookings.json")),
		nil, nil, log.NewStdLogger(io.Discard),
	)
	if err := svc.Open(context.Background()); err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	return svc
}

func runMenu(t *testing.T, svc Reservations, input string) string {
	t.Helper()
	var out strings.Builder
	m := NewMenu(svc, strings.NewReader(input), &out, log.NewStdLogger(io.Discard))
	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	return out.String()
}

func TestMenuBookAndFree(t *testing.T) {
	svc := newTestService(t)

	out := runMenu(t, svc, "3\n1a\nAda\nLovelace\nk1234567\nada@example.com\n1\n1A\n6\n")
	match := referencePattern.FindStringSubmatch(out)
	if match == nil {
		t.Fatalf("no booking reference in output:\n%s", out)
	}
	ref := match[1]
	if !strings.Contains(out, "Sorry, seat 1A is not available.") {
		t.Errorf("seat still reported available after booking:\n%s", out)
	}

	out = runMenu(t, svc, "5\n4\n1A\nWRONGREF\n4\n1A\n"+ref+"\n5\n6\n")
	for _, want := range []string{
		"Seat 1A is Reserved. Booking reference: " + ref + ". Passenger: Ada Lovelace <ada@example.com>",
		"No booking on seat 1A matches that reference.",
		"Seat 1A has been freed.",
		"No booked seats.",
		"Thank you for using our system!",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestMenuMessages(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"Available seat", "1\n1b\n6\n", []string{"Seat 1B is available."}},
		{"Unknown seat", "1\n9Z\n6\n", []string{"Seat 9Z does not exist."}},
		{"Aisle", "3\n1X\n6\n", []string{"Sorry, seat 1X is not available."}},
		{"Row listing", "2\n1\n6\n", []string{"Available seats in row 1: 1A, 1B, 1C"}},
		{"Row with storage", "2\n2\n6\n", []string{"Available seats in row 2: 2A"}},
		{"Empty row", "2\n40\n6\n", []string{"No available seats in row 40."}},
		{"Bad row", "2\nabc\n6\n", []string{`Invalid row number "abc".`}},
		{"Bad option", "9\n6\n", []string{"Invalid option. Please choose 1-6."}},
		{"Invalid e-mail", "3\n1C\nAda\nLovelace\n\nnot-an-email\n6\n", []string{"Invalid passenger details: email must be a valid e-mail address."}},
		{"Free unbooked seat", "4\n2A\nABCD1234\n6\n", []string{"No booking on seat 2A matches that reference."}},
		{"EOF exits", "1\n1A\n", []string{"Seat 1A is available.", "Thank you for using our system!"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := runMenu(t, newTestService(t), tt.input)
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestMenuStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := NewMenu(newTestService(t), strings.NewReader("1\n1A\n"), io.Discard, log.NewStdLogger(io.Discard))
	if err := m.Run(ctx); err != context.Canceled {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}
