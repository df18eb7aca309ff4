package door

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"advent/internal/domain/gate"
)

// MessageUnavailable is shown when a door has no text for the requested kid.
const MessageUnavailable = "Message not available."

// KidID identifies one of the two children.
type KidID int

// Kid constants
const (
	Kid1 KidID = 1
	Kid2 KidID = 2
)

// Kids lists the recognized kid ids in ascending order.
var Kids = []KidID{Kid1, Kid2}

// Domain errors
var (
	ErrMissingDate  = errors.New("date parameter is missing")
	ErrInvalidDay   = errors.New("day parameter must be a door number within the calendar")
	ErrInvalidKid   = errors.New("invalid child id")
	ErrDoorNotFound = errors.New("door does not exist")
)

// ParseKidID parses the kid query value. Only "1" and "2" are accepted.
// PRE: none
// POST: Returns Kid1/Kid2, or ErrInvalidKid
func ParseKidID(raw string) (KidID, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, ErrInvalidKid
	}
	id := KidID(n)
	if id != Kid1 && id != Kid2 {
		return 0, ErrInvalidKid
	}
	return id, nil
}

// Record is one door of the calendar: the messages for each kid on a given date.
type Record struct {
	Date        string `json:"Date"`
	MessageKid1 string `json:"Message_Kid1"`
	MessageKid2 string `json:"Message_Kid2"`
	IsActive    bool   `json:"Is_Active"`
}

// MessageFor returns the text for the kid, or the placeholder when empty.
// INVARIANT: Record fields are not mutated
func (r Record) MessageFor(kid KidID) string {
	var msg string
	switch kid {
	case Kid1:
		msg = r.MessageKid1
	case Kid2:
		msg = r.MessageKid2
	}
	if strings.TrimSpace(msg) == "" {
		return MessageUnavailable
	}
	return msg
}

// Day returns the day-of-month component of the date, or 0 if it cannot be read.
// Display only.
func (r Record) Day() int {
	parts := strings.Split(r.Date, "-")
	if len(parts) != 3 {
		return 0
	}
	d, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0
	}
	return d
}

// Normalize trims whitespace around the date.
// POST: Date has no leading or trailing whitespace
func (r *Record) Normalize() {
	r.Date = strings.TrimSpace(r.Date)
}

// Validate checks the date field of a single record.
// PRE: Record struct is populated
// POST: Returns nil if valid, a reason otherwise
func (r *Record) Validate() error {
	if r.Date == "" {
		return errors.New("'Date' field is empty")
	}
	if _, err := time.Parse(gate.DateLayout, r.Date); err != nil {
		return fmt.Errorf("'Date' value '%s' is not in YYYY-MM-DD format", r.Date)
	}
	return nil
}

// ValidationError identifies the first record that blocks a save.
type ValidationError struct {
	Row    int // 1-based position in the submitted sequence
	Date   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Validation failed on row %d: %s", e.Row, e.Reason)
}

// ValidateAll checks every record and rejects duplicate dates.
// PRE: records are normalized
// POST: Returns nil, or a *ValidationError for the first failing row
func ValidateAll(records []Record) error {
	seen := make(map[string]int, len(records))
	for i := range records {
		row := i + 1
		if err := records[i].Validate(); err != nil {
			return &ValidationError{Row: row, Date: records[i].Date, Reason: err.Error()}
		}
		if prev, dup := seen[records[i].Date]; dup {
			return &ValidationError{
				Row:    row,
				Date:   records[i].Date,
				Reason: fmt.Sprintf("'Date' value '%s' duplicates row %d", records[i].Date, prev),
			}
		}
		seen[records[i].Date] = row
	}
	return nil
}

// SortByDate orders records by date ascending. For the fixed-width date
// layout, string order is chronological order.
func SortByDate(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date < records[j].Date
	})
}

// Find returns the record with the given date.
func Find(records []Record, date string) (Record, bool) {
	for _, r := range records {
		if r.Date == date {
			return r, true
		}
	}
	return Record{}, false
}
