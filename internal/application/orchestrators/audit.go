package orchestrators

import (
	"context"
	"log/slog"

	"advent/internal/domain/audit"
)

// AuditRecorder persists audit events.
type AuditRecorder interface {
	Save(ctx context.Context, event audit.Event) error
}

// RecordAudit saves an audit event. Failures are logged and never returned:
// the audit trail must not break the request it describes.
// PRE: event has an ID
// POST: Event persisted, or a warning logged
func RecordAudit(ctx context.Context, recorder AuditRecorder, event audit.Event) {
	if recorder == nil {
		return
	}
	if err := recorder.Save(ctx, event); err != nil {
		slog.Warn("audit_event_failed",
			"category", string(event.Category),
			"action", string(event.Action),
			"error", err.Error())
	}
}
