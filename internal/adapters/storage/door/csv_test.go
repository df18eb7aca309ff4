package door

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	domain "advent/internal/domain/door"
)

// TestWriteCSV_ThenReadCSV verifies the exported table can be imported again.
func TestWriteCSV_ThenReadCSV(t *testing.T) {
	in := []domain.Record{
		{Date: "2025-12-01", MessageKid1: "Hello, world", MessageKid2: "line one\nline two", IsActive: true},
		{Date: "2025-12-02", MessageKid1: `She said "hi"`},
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, in); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	if !strings.HasPrefix(buf.String(), "Date,Message_Kid1,Message_Kid2,Is_Active\n") {
		t.Errorf("unexpected header: %q", buf.String())
	}

	got, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if len(got) != len(in) {
		t.Fatalf("ReadCSV() returned %d records, want %d", len(got), len(in))
	}
	for i := range in {
		if got[i] != in[i] {
			t.Errorf("record %d = %+v, want %+v", i, got[i], in[i])
		}
	}
}

// TestReadCSV_FlexibleColumns verifies header matching and defaults.
func TestReadCSV_FlexibleColumns(t *testing.T) {
	input := "\ufeffis_active, date ,message_kid1,Notes\n" +
		"yes, 2025-12-03 ,Tres,ignored\n" +
		"no,2025-12-04\n"

	got, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ReadCSV() returned %d records, want 2", len(got))
	}
	if got[0].Date != "2025-12-03" || !got[0].IsActive || got[0].MessageKid1 != "Tres" {
		t.Errorf("row 1 = %+v", got[0])
	}
	if got[1].Date != "2025-12-04" || got[1].IsActive || got[1].MessageKid1 != "" {
		t.Errorf("row 2 = %+v", got[1])
	}
}

// TestReadCSV_MissingDateColumn verifies the required column check.
func TestReadCSV_MissingDateColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("Message_Kid1\nhello\n"))
	if !errors.Is(err, ErrMissingDateColumn) {
		t.Errorf("ReadCSV() error = %v, want ErrMissingDateColumn", err)
	}
}

// TestReadCSV_Empty verifies an empty upload is an error rather than an empty table.
func TestReadCSV_Empty(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader("")); err == nil {
		t.Error("expected error for empty input")
	}
}
