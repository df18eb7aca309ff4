package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"advent/internal/domain/audit"
	"advent/internal/domain/door"
)

// DoorStoreForWrite defines the store interface needed to replace the door table.
type DoorStoreForWrite interface {
	Save(ctx context.Context, records []door.Record) error
}

// AuditContext identifies who triggered a change.
type AuditContext struct {
	SessionID string
	IPAddress string
	UserAgent string
	Now       time.Time
}

func (a AuditContext) event(category audit.Category, action audit.Action) audit.Event {
	now := a.Now
	if now.IsZero() {
		now = time.Now()
	}
	return audit.NewEvent(now, category, action).
		WithSession(a.SessionID).
		WithRequest(a.IPAddress, a.UserAgent)
}

// SaveMessagesInput carries input for the save messages orchestrator.
type SaveMessagesInput struct {
	Records []door.Record
	Audit   AuditContext
}

// SaveMessagesDeps holds dependencies for SaveMessages.
type SaveMessagesDeps struct {
	DoorStore DoorStoreForWrite
	Audit     AuditRecorder
}

// ExecuteSaveMessages replaces the whole door table.
// PRE: Records come from the admin editor
// POST: Table persisted sorted by date, or unchanged on *door.ValidationError
func ExecuteSaveMessages(ctx context.Context, input SaveMessagesInput, deps SaveMessagesDeps) error {
	if err := deps.DoorStore.Save(ctx, input.Records); err != nil {
		slog.Info("messages_event", "event", "save_rejected", "error", err.Error())
		return err
	}

	slog.Info("messages_event", "event", "saved", "records", len(input.Records))
	RecordAudit(ctx, deps.Audit, input.Audit.event(audit.CategoryMessages, audit.ActionSave).
		WithDescription(fmt.Sprintf("saved %d doors", len(input.Records))))
	return nil
}
