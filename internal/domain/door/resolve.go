package door

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"advent/internal/domain/gate"
)

// OutcomeKind is the terminal state of a door request.
type OutcomeKind int

const (
	OutcomeInvalidParams OutcomeKind = iota
	OutcomeMissingDoor
	OutcomeDisabled
	OutcomeDenied
	OutcomeRevealed
)

// String returns a short label used in logs and templates.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeInvalidParams:
		return "invalid_params"
	case OutcomeMissingDoor:
		return "missing_door"
	case OutcomeDisabled:
		return "disabled"
	case OutcomeDenied:
		return "denied"
	case OutcomeRevealed:
		return "revealed"
	}
	return "unknown"
}

// Request carries the raw query parameters of a door view.
type Request struct {
	Date string
	Day  string // legacy integer door number, used only when Date is empty
	Kid  string
}

// Environment is everything Resolve needs besides the records.
type Environment struct {
	Today    time.Time
	Calendar gate.Calendar
	MaxDay   int
	KidNames map[KidID]string
}

// KidName returns the configured display name for the kid.
func (e Environment) KidName(kid KidID) string {
	if name, ok := e.KidNames[kid]; ok && name != "" {
		return name
	}
	return fmt.Sprintf("Kid %d", kid)
}

// Outcome is the result of resolving a door request.
type Outcome struct {
	Kind     OutcomeKind
	Err      error // set for InvalidParams and MissingDoor
	Date     string
	Kid      KidID
	KidName  string
	Day      int
	Message  string // set for Revealed
	Reason   string // set for Denied
	Override bool   // the debug override opened this door
}

// Resolve maps a door request onto the records, applying the active flag and
// the gate. It performs no I/O.
// PRE: records are normalized (dates trimmed)
// POST: Returns exactly one of the five outcome kinds
func Resolve(records []Record, req Request, env Environment) Outcome {
	date, err := requestedDate(req, env)
	if err != nil {
		return Outcome{Kind: OutcomeInvalidParams, Err: err}
	}

	kid, err := ParseKidID(req.Kid)
	if err != nil {
		return Outcome{Kind: OutcomeInvalidParams, Err: err, Date: date}
	}

	out := Outcome{Date: date, Kid: kid, KidName: env.KidName(kid)}

	rec, ok := Find(records, date)
	if !ok {
		out.Kind = OutcomeMissingDoor
		out.Err = ErrDoorNotFound
		return out
	}
	out.Day = rec.Day()

	if !rec.IsActive {
		out.Kind = OutcomeDisabled
		return out
	}

	decision := gate.Decide(env.Today, env.Calendar, date)
	if !decision.Allowed {
		out.Kind = OutcomeDenied
		out.Reason = decision.Reason
		return out
	}

	out.Kind = OutcomeRevealed
	out.Message = rec.MessageFor(kid)
	out.Override = env.Calendar.Override
	return out
}

// requestedDate picks the date parameter, falling back to the legacy day number.
func requestedDate(req Request, env Environment) (string, error) {
	if date := strings.TrimSpace(req.Date); date != "" {
		return date, nil
	}
	raw := strings.TrimSpace(req.Day)
	if raw == "" {
		return "", ErrMissingDate
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || (env.MaxDay > 0 && n > env.MaxDay) {
		return "", ErrInvalidDay
	}
	return LegacyDate(env.Calendar, n), nil
}

// LegacyDate converts a door number into a date inside the configured month.
func LegacyDate(cal gate.Calendar, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", cal.Year, int(cal.Month), day)
}
