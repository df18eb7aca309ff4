package door

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	domain "advent/internal/domain/door"
)

// CSV column names, matching the JSON keys.
const (
	ColDate     = "Date"
	ColMessage1 = "Message_Kid1"
	ColMessage2 = "Message_Kid2"
	ColIsActive = "Is_Active"
)

// CSVHeader is the header row written by WriteCSV.
var CSVHeader = []string{ColDate, ColMessage1, ColMessage2, ColIsActive}

// ErrMissingDateColumn is returned when an imported CSV has no Date column.
var ErrMissingDateColumn = errors.New("CSV missing required column: Date")

// WriteCSV writes the records with a header row.
// POST: One line per record in the given order
func WriteCSV(w io.Writer, records []domain.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range records {
		active := "false"
		if r.IsActive {
			active = "true"
		}
		if err := cw.Write([]string{r.Date, r.MessageKid1, r.MessageKid2, active}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a CSV table with a header row. Column names are matched
// case-insensitively; unknown columns are ignored. Rows are returned in file
// order with dates trimmed. Validation is left to Save.
// PRE: r is a CSV stream with a header row
// POST: Returns the parsed records, or an error for unreadable input
func ReadCSV(r io.Reader) ([]domain.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	colIdx := make(map[string]int, len(header))
	for i, h := range header {
		colIdx[strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	if _, ok := colIdx[strings.ToUpper(ColDate)]; !ok {
		return nil, ErrMissingDateColumn
	}

	getCol := func(row []string, col string) string {
		i, ok := colIdx[strings.ToUpper(col)]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	records := []domain.Record{}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", len(records)+2, err)
		}
		rec := domain.Record{
			Date:        getCol(row, ColDate),
			MessageKid1: getCol(row, ColMessage1),
			MessageKid2: getCol(row, ColMessage2),
			IsActive:    parseActive(getCol(row, ColIsActive)),
		}
		rec.Normalize()
		records = append(records, rec)
	}
	return records, nil
}

func parseActive(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "t", "yes", "y", "x":
		return true
	}
	return false
}
