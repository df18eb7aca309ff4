package audit

import (
	"time"

	"github.com/google/uuid"
)

// Category groups audit events by the area they touch.
type Category string

const (
	CategorySecurity Category = "security"
	CategoryMessages Category = "messages"
	CategoryQRCodes  Category = "qrcodes"
)

// Action is what happened.
type Action string

const (
	ActionLogin       Action = "login"
	ActionLoginFailed Action = "login_failed"
	ActionLocked      Action = "locked"
	ActionLogout      Action = "logout"
	ActionSave        Action = "save"
	ActionImport      Action = "import"
	ActionExport      Action = "export"
	ActionDownload    Action = "download"
)

// Severity of an event.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Event is a single admin audit log entry.
type Event struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Category    Category  `json:"category"`
	Action      Action    `json:"action"`
	Severity    Severity  `json:"severity"`
	SessionID   string    `json:"session_id"`
	Resource    string    `json:"resource"`
	Description string    `json:"description"`
	IPAddress   string    `json:"ip_address"`
	UserAgent   string    `json:"user_agent"`
}

// NewEvent creates an info-level event stamped with the given time.
// PRE: category and action are non-empty
// POST: Returns an Event with a fresh UUID
func NewEvent(now time.Time, category Category, action Action) Event {
	return Event{
		ID:        uuid.NewString(),
		Timestamp: now,
		Category:  category,
		Action:    action,
		Severity:  SeverityInfo,
	}
}

// WithSeverity sets the severity level.
func (e Event) WithSeverity(s Severity) Event {
	e.Severity = s
	return e
}

// WithSession ties the event to an admin session.
func (e Event) WithSession(id string) Event {
	e.SessionID = id
	return e
}

// WithResource names what the event touched, e.g. a door date or file name.
func (e Event) WithResource(resource string) Event {
	e.Resource = resource
	return e
}

// WithDescription sets the event description.
func (e Event) WithDescription(desc string) Event {
	e.Description = desc
	return e
}

// WithRequest sets IP address and user agent from the HTTP request.
func (e Event) WithRequest(ipAddress, userAgent string) Event {
	e.IPAddress = ipAddress
	e.UserAgent = userAgent
	return e
}
