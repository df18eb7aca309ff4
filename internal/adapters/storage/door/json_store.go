package door

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	domain "advent/internal/domain/door"
)

// JSONStore keeps the door table in a single indented JSON file.
type JSONStore struct {
	path string
	mu   sync.Mutex // serializes writers; readers see either the old or new file
}

// NewJSONStore creates a store backed by the file at path.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Path returns the backing file path.
func (s *JSONStore) Path() string {
	return s.path
}

// Load reads the file fresh on every call.
// PRE: none
// POST: Returns normalized records, or an empty slice with ErrNotFound / *ParseError
func (s *JSONStore) Load(ctx context.Context) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return []domain.Record{}, err
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.Record{}, fmt.Errorf("%w: %s", ErrNotFound, s.path)
	}
	if err != nil {
		return []domain.Record{}, fmt.Errorf("failed to read message data: %w", err)
	}

	records, err := Decode(data)
	if err != nil {
		return []domain.Record{}, &ParseError{Path: s.path, Err: err}
	}
	return records, nil
}

// Save validates, sorts and writes the records. The write goes to a temp
// file in the same directory which is then renamed over the target.
// PRE: records come from the admin editor, import, or CLI
// POST: File replaced with the sorted records, or untouched on any error
func (s *JSONStore) Save(ctx context.Context, records []domain.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sorted := make([]domain.Record, len(records))
	copy(sorted, records)
	for i := range sorted {
		sorted[i].Normalize()
	}
	if err := domain.ValidateAll(sorted); err != nil {
		return err
	}
	domain.SortByDate(sorted)

	data, err := Encode(sorted)
	if err != nil {
		return fmt.Errorf("failed to serialize message data: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return writeFileAtomic(s.path, data, 0o644)
}

// Decode parses the JSON array and trims every date.
func Decode(data []byte) ([]domain.Record, error) {
	var records []domain.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []domain.Record{}
	}
	for i := range records {
		records[i].Normalize()
	}
	return records, nil
}

// Encode renders records as indented JSON, keeping non-ASCII text readable.
func Encode(records []domain.Record) ([]byte, error) {
	if records == nil {
		records = []domain.Record{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write message data: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write message data: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write message data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write message data: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace message data: %w", err)
	}
	return nil
}
