package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/EthanKenzo12/FC723-Final-Project/internal/model"
)

const ledgerFileVersion = 1

type ledgerFile struct {
	Version  int             `json:"version"`
	Bookings []model.Booking `json:"bookings"`
}

// FileLedger stores the whole ledger as one JSON document.  Changes are
// held in memory until Persist, which replaces the file atomically.
type FileLedger struct {
	*MemoryLedger
	path string
}

// NewFileLedger returns a ledger bound to path.  Call Load before use.
func NewFileLedger(path string) *FileLedger {
	return &FileLedger{MemoryLedger: NewMemoryLedger(), path: path}
}

// Load replaces the in-memory records with the file contents.  A missing
// file is an empty ledger.
func (l *FileLedger) Load(ctx context.Context) error {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		l.reset()
		return nil
	}
	if err != nil {
		return &LoadError{Source: "ledger " + l.path, Err: err}
	}

	var doc ledgerFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return &LoadError{Source: "ledger " + l.path, Err: err}
	}
	if doc.Version != ledgerFileVersion {
		return &LoadError{Source: "ledger " + l.path, Err: fmt.Errorf("unsupported version %d", doc.Version)}
	}

	fresh := NewMemoryLedger()
	for i, b := range doc.Bookings {
		if model.NormalizeLabel(b.SeatLabel) == "" || b.Reference == "" {
			return &LoadError{Source: "ledger " + l.path, Err: fmt.Errorf("record %d: seat label and reference are required", i)}
		}
		if err := fresh.Put(ctx, b); err != nil {
			return &LoadError{Source: "ledger " + l.path, Err: fmt.Errorf("record %d: %w", i, err)}
		}
	}
	l.MemoryLedger = fresh
	return nil
}

// Persist writes every record in seat label order.
func (l *FileLedger) Persist(ctx context.Context) error {
	doc := ledgerFile{Version: ledgerFileVersion, Bookings: make([]model.Booking, 0, l.Len())}
	for b, err := range l.ListActive(ctx) {
		if err != nil {
			return &PersistError{Sink: "ledger " + l.path, Err: err}
		}
		doc.Bookings = append(doc.Bookings, b)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &PersistError{Sink: "ledger " + l.path, Err: err}
	}
	if err := writeFileAtomic(l.path, append(data, '\n'), 0o600); err != nil {
		return &PersistError{Sink: "ledger " + l.path, Err: err}
	}
	return nil
}

// Path returns the file path of the ledger.
func (l *FileLedger) Path() string { return l.path }
