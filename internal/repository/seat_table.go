package repository

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

// SeatTable is the file that backs the seat map.
type SeatTable struct {
	path string
}

// NewSeatTable returns a SeatTable bound to path.
func NewSeatTable(path string) *SeatTable { return &SeatTable{path: path} }

// Path returns the file path of the table.
func (t *SeatTable) Path() string { return t.path }

// Load reads the file into a new SeatMap.  A missing file is a *LoadError:
// the layout of the aircraft cannot be derived from anywhere else.
func (t *SeatTable) Load() (*SeatMap, error) {
	f, err := os.Open(t.path)
	if err != nil {
		return nil, &LoadError{Source: "seat table " + t.path, Err: err}
	}
	defer f.Close()

	m := NewSeatMap()
	if err := m.Load(f); err != nil {
		if le, ok := err.(*LoadError); ok {
			le.Source = "seat table " + t.path
		}
		return nil, err
	}
	return m, nil
}

// Save replaces the file with the current contents of m.
func (t *SeatTable) Save(m *SeatMap) error {
	var buf bytes.Buffer
	if err := m.Persist(&buf); err != nil {
		return err
	}
	if err := writeFileAtomic(t.path, buf.Bytes(), 0o644); err != nil {
		return &PersistError{Sink: "seat table " + t.path, Err: err}
	}
	return nil
}

// writeFileAtomic writes data to a temporary file in the target directory
// and renames it over path, so readers never observe a half-written file.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
