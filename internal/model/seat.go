package model

import (
	"fmt"
	"strconv"
	"strings"
)

// SeatStatus is the occupancy state of a single cell of the seating chart.
// The underlying values are the codes stored in the seat table file.
//
// Values:
//  StatusFree     – seat can be booked.
//  StatusReserved – seat is held by exactly one booking record.
//  StatusAisle    – aisle cell (X), never bookable.
//  StatusStorage  – storage cell (S), never bookable.
type SeatStatus string

const (
	StatusFree     SeatStatus = "Free"
	StatusReserved SeatStatus = "Reserved"
	StatusAisle    SeatStatus = "X"
	StatusStorage  SeatStatus = "S"
)

// SeatColumns lists the bookable columns of every row, in display order.
const SeatColumns = "ABCDEF"

// ParseSeatStatus converts a seat table cell into a SeatStatus.  The four
// file codes are accepted case-insensitively, as are the words Aisle and
// Storage.
func ParseSeatStatus(s string) (SeatStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FREE":
		return StatusFree, nil
	case "RESERVED":
		return StatusReserved, nil
	case "X", "AISLE":
		return StatusAisle, nil
	case "S", "STORAGE":
		return StatusStorage, nil
	}
	return "", fmt.Errorf("unknown seat status %q", s)
}

// Bookable reports whether a seat in this state may transition to Reserved.
func (s SeatStatus) Bookable() bool { return s == StatusFree }

// String returns the human readable name of the status.
func (s SeatStatus) String() string {
	switch s {
	case StatusAisle:
		return "Aisle"
	case StatusStorage:
		return "Storage"
	}
	return string(s)
}

// NormalizeLabel returns the canonical form of a seat label: trimmed,
// upper-cased and, for row/column labels, without leading zeros on the
// row, so "1a", " 1A" and "01A" address the same seat.
func NormalizeLabel(label string) string {
	if row, col, ok := ParseLabel(label); ok {
		return SeatLabel(row, col)
	}
	return strings.ToUpper(strings.TrimSpace(label))
}

// ParseLabel splits a label such as "12C" into its row number and column
// letter.  ok is false when the label is not digits followed by one letter.
func ParseLabel(label string) (row int, col byte, ok bool) {
	s := strings.ToUpper(strings.TrimSpace(label))
	if len(s) < 2 {
		return 0, 0, false
	}
	col = s[len(s)-1]
	if col < 'A' || col > 'Z' {
		return 0, 0, false
	}
	digits := s[:len(s)-1]
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n <= 0 {
		return 0, 0, false
	}
	return n, col, true
}

// SeatLabel builds the canonical label for a row and column.
func SeatLabel(row int, col byte) string {
	return strconv.Itoa(row) + string(col)
}

// CompareLabels orders seat labels by row number and then by column, so
// that 2A sorts before 10A.  Labels that do not parse fall back to plain
// string comparison after every well formed label.
func CompareLabels(a, b string) int {
	ra, ca, okA := ParseLabel(a)
	rb, cb, okB := ParseLabel(b)
	switch {
	case okA && okB:
		if ra != rb {
			if ra < rb {
				return -1
			}
			return 1
		}
		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
		return 0
	case okA:
		return -1
	case okB:
		return 1
	}
	return strings.Compare(NormalizeLabel(a), NormalizeLabel(b))
}
