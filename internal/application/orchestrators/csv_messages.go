package orchestrators

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	doorstore "advent/internal/adapters/storage/door"
	"advent/internal/domain/audit"
)

// ExportMessagesInput carries input for the CSV export orchestrator.
type ExportMessagesInput struct {
	Writer io.Writer
	Audit  AuditContext
}

// ExportMessagesDeps holds dependencies for ExportMessages.
type ExportMessagesDeps struct {
	DoorStore DoorStoreForRead
	Audit     AuditRecorder
}

// ExecuteExportMessages writes the door table as CSV.
// PRE: Writer is non-nil
// POST: Header row plus one row per record in stored order
func ExecuteExportMessages(ctx context.Context, input ExportMessagesInput, deps ExportMessagesDeps) (int, error) {
	records, err := deps.DoorStore.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load door table: %w", err)
	}
	if err := doorstore.WriteCSV(input.Writer, records); err != nil {
		return 0, fmt.Errorf("write csv: %w", err)
	}

	RecordAudit(ctx, deps.Audit, input.Audit.event(audit.CategoryMessages, audit.ActionExport).
		WithDescription(fmt.Sprintf("exported %d doors", len(records))))
	return len(records), nil
}

// ImportMessagesInput carries input for the CSV import orchestrator.
type ImportMessagesInput struct {
	Reader   io.Reader
	Filename string
	Audit    AuditContext
}

// ImportMessagesDeps holds dependencies for ImportMessages.
type ImportMessagesDeps struct {
	DoorStore DoorStoreForWrite
	Audit     AuditRecorder
}

// ExecuteImportMessages replaces the door table with the rows of a CSV upload.
// PRE: Reader yields a CSV with a Date column
// POST: Table replaced through the same validation as the editor, or unchanged on error
func ExecuteImportMessages(ctx context.Context, input ImportMessagesInput, deps ImportMessagesDeps) (int, error) {
	records, err := doorstore.ReadCSV(input.Reader)
	if err != nil {
		return 0, err
	}
	if err := deps.DoorStore.Save(ctx, records); err != nil {
		slog.Info("messages_event", "event", "import_rejected", "file", input.Filename, "error", err.Error())
		return 0, err
	}

	slog.Info("messages_event", "event", "imported", "file", input.Filename, "records", len(records))
	RecordAudit(ctx, deps.Audit, input.Audit.event(audit.CategoryMessages, audit.ActionImport).
		WithResource(input.Filename).
		WithDescription(fmt.Sprintf("imported %d doors", len(records))))
	return len(records), nil
}
