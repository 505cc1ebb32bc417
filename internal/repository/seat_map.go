package repository

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/EthanKenzo12/FC723-Final-Project/internal/model"
)

const (
	seatColumn   = "Seat"
	statusColumn = "Status"
)

// SeatMap is the in-memory seat table.  It keeps every row of the source in
// its original order, including columns it does not interpret, so that a
// load/persist round trip only changes the Status cells.  SetStatus never
// performs I/O; callers flush with Persist.
type SeatMap struct {
	header    []string
	rows      [][]string
	seatCol   int
	statusCol int
	index     map[string]int // canonical label -> row position
	status    map[string]model.SeatStatus
}

// NewSeatMap returns an empty seat map.
func NewSeatMap() *SeatMap {
	return &SeatMap{
		index:  make(map[string]int),
		status: make(map[string]model.SeatStatus),
	}
}

// Load replaces the contents of the map with the table read from r.  The
// first record is the header and must contain Seat and Status columns.
// Any malformed input yields a *LoadError and leaves the map unchanged.
func (m *SeatMap) Load(r io.Reader) error {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &LoadError{Source: "seat table", Err: errors.New("empty input, header row missing")}
		}
		return &LoadError{Source: "seat table", Err: err}
	}
	seatCol, statusCol := -1, -1
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		header[i] = name
		switch {
		case strings.EqualFold(name, seatColumn):
			seatCol = i
		case strings.EqualFold(name, statusColumn):
			statusCol = i
		}
	}
	if seatCol < 0 || statusCol < 0 {
		return &LoadError{Source: "seat table", Err: fmt.Errorf("header %v must contain %q and %q columns", header, seatColumn, statusColumn)}
	}

	var rows [][]string
	index := make(map[string]int)
	status := make(map[string]model.SeatStatus)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return &LoadError{Source: "seat table", Err: err}
		}
		line, _ := cr.FieldPos(0)
		label := model.NormalizeLabel(rec[seatCol])
		if label == "" {
			return &LoadError{Source: "seat table", Err: fmt.Errorf("line %d: empty seat label", line)}
		}
		if _, dup := index[label]; dup {
			return &LoadError{Source: "seat table", Err: fmt.Errorf("line %d: duplicate seat %s", line, label)}
		}
		st, err := model.ParseSeatStatus(rec[statusCol])
		if err != nil {
			return &LoadError{Source: "seat table", Err: fmt.Errorf("line %d: seat %s: %w", line, label, err)}
		}
		rec[seatCol] = label
		rec[statusCol] = string(st)
		index[label] = len(rows)
		status[label] = st
		rows = append(rows, rec)
	}

	m.header = header
	m.rows = rows
	m.seatCol = seatCol
	m.statusCol = statusCol
	m.index = index
	m.status = status
	return nil
}

// Persist writes the full table, header first, with current statuses.
func (m *SeatMap) Persist(w io.Writer) error {
	if m.header == nil {
		return &PersistError{Sink: "seat table", Err: errors.New("seat map was never loaded")}
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(m.header); err != nil {
		return &PersistError{Sink: "seat table", Err: err}
	}
	for _, rec := range m.rows {
		rec[m.statusCol] = string(m.status[rec[m.seatCol]])
		if err := cw.Write(rec); err != nil {
			return &PersistError{Sink: "seat table", Err: err}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return &PersistError{Sink: "seat table", Err: err}
	}
	return nil
}

// Status returns the status of a seat, or ErrUnknownSeat.
func (m *SeatMap) Status(label string) (model.SeatStatus, error) {
	label = model.NormalizeLabel(label)
	st, ok := m.status[label]
	if !ok {
		return "", fmt.Errorf("seat %s: %w", label, ErrUnknownSeat)
	}
	return st, nil
}

// SetStatus updates a seat in memory.  It returns ErrUnknownSeat for labels
// that are not in the table.
func (m *SeatMap) SetStatus(label string, st model.SeatStatus) error {
	label = model.NormalizeLabel(label)
	if _, ok := m.status[label]; !ok {
		return fmt.Errorf("seat %s: %w", label, ErrUnknownSeat)
	}
	m.status[label] = st
	return nil
}

// IsBookable reports whether the seat exists and is Free.
func (m *SeatMap) IsBookable(label string) bool {
	st, ok := m.status[model.NormalizeLabel(label)]
	return ok && st.Bookable()
}

// Has reports whether the label exists in the table.
func (m *SeatMap) Has(label string) bool {
	_, ok := m.index[model.NormalizeLabel(label)]
	return ok
}

// Labels returns every seat label in table order.
func (m *SeatMap) Labels() []string {
	out := make([]string, 0, len(m.rows))
	for _, rec := range m.rows {
		out = append(out, rec[m.seatCol])
	}
	return out
}

// Len returns the number of seats in the table.
func (m *SeatMap) Len() int { return len(m.rows) }
