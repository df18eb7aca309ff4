package orchestrators

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"advent/internal/domain/audit"
	"advent/internal/domain/door"
	"advent/internal/domain/gate"
	"advent/internal/domain/link"
)

// QREncoder renders link text as a PNG.
type QREncoder interface {
	Encode(content string, size int) ([]byte, error)
}

// ManifestName is the name of the link list inside the archive.
const ManifestName = "links.csv"

// ErrInvalidDoorDate is returned when a QR code is requested for a malformed date.
var ErrInvalidDoorDate = errors.New("date must be YYYY-MM-DD")

// QRFileName is the archive entry name for one door and kid.
func QRFileName(date string, kid door.KidID) string {
	return fmt.Sprintf("door-%s-kid%d.png", date, int(kid))
}

// RenderQRCodeInput carries input for the single QR code orchestrator.
type RenderQRCodeInput struct {
	BaseURL string
	Date    string
	Kid     string
	Size    int
	Audit   AuditContext
}

// RenderQRCodeDeps holds dependencies for RenderQRCode.
type RenderQRCodeDeps struct {
	Encoder QREncoder
	Audit   AuditRecorder
}

// RenderQRCodeResult carries the PNG plus the link it encodes.
type RenderQRCodeResult struct {
	PNG      []byte
	Link     string
	Filename string
}

// ExecuteRenderQRCode encodes the deep link for one door and kid.
// PRE: Date is YYYY-MM-DD; Kid is 1 or 2
// POST: Returns PNG bytes, or a parameter error
func ExecuteRenderQRCode(ctx context.Context, input RenderQRCodeInput, deps RenderQRCodeDeps) (RenderQRCodeResult, error) {
	if _, err := time.Parse(gate.DateLayout, input.Date); err != nil {
		return RenderQRCodeResult{}, ErrInvalidDoorDate
	}
	kid, err := door.ParseKidID(input.Kid)
	if err != nil {
		return RenderQRCodeResult{}, err
	}

	target, err := link.Build(input.BaseURL, input.Date, int(kid))
	if err != nil {
		return RenderQRCodeResult{}, err
	}
	png, err := deps.Encoder.Encode(target, input.Size)
	if err != nil {
		return RenderQRCodeResult{}, err
	}

	name := QRFileName(input.Date, kid)
	RecordAudit(ctx, deps.Audit, input.Audit.event(audit.CategoryQRCodes, audit.ActionDownload).
		WithResource(name))
	return RenderQRCodeResult{PNG: png, Link: target, Filename: name}, nil
}

// BuildQRArchiveInput carries input for the QR archive orchestrator.
type BuildQRArchiveInput struct {
	BaseURL  string
	Size     int
	KidNames map[door.KidID]string
	Writer   io.Writer
	Audit    AuditContext
}

// BuildQRArchiveDeps holds dependencies for BuildQRArchive.
type BuildQRArchiveDeps struct {
	DoorStore DoorStoreForRead
	Encoder   QREncoder
	Audit     AuditRecorder
}

// ExecuteBuildQRArchive writes a zip with one PNG per active door and kid,
// ordered by date then kid, followed by a links.csv manifest.
// PRE: BaseURL is absolute; Writer is non-nil
// POST: Returns the number of PNG entries written
func ExecuteBuildQRArchive(ctx context.Context, input BuildQRArchiveInput, deps BuildQRArchiveDeps) (int, error) {
	records, err := deps.DoorStore.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load door table: %w", err)
	}
	sorted := make([]door.Record, len(records))
	copy(sorted, records)
	door.SortByDate(sorted)

	zw := zip.NewWriter(input.Writer)
	manifest := [][]string{{"date", "kid", "kid_name", "file", "link"}}
	env := door.Environment{KidNames: input.KidNames}

	count := 0
	for _, rec := range sorted {
		if !rec.IsActive {
			continue
		}
		for _, kid := range door.Kids {
			if err := ctx.Err(); err != nil {
				return count, err
			}
			target, err := link.Build(input.BaseURL, rec.Date, int(kid))
			if err != nil {
				return count, err
			}
			png, err := deps.Encoder.Encode(target, input.Size)
			if err != nil {
				return count, fmt.Errorf("encode %s kid %d: %w", rec.Date, kid, err)
			}

			name := QRFileName(rec.Date, kid)
			w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store, Modified: input.Audit.Now})
			if err != nil {
				return count, err
			}
			if _, err := w.Write(png); err != nil {
				return count, err
			}
			manifest = append(manifest, []string{rec.Date, strconv.Itoa(int(kid)), env.KidName(kid), name, target})
			count++
		}
	}

	w, err := zw.CreateHeader(&zip.FileHeader{Name: ManifestName, Method: zip.Deflate, Modified: input.Audit.Now})
	if err != nil {
		return count, err
	}
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(manifest); err != nil {
		return count, err
	}
	if err := zw.Close(); err != nil {
		return count, err
	}

	slog.Info("qrcodes_event", "event", "archive_built", "images", count)
	RecordAudit(ctx, deps.Audit, input.Audit.event(audit.CategoryQRCodes, audit.ActionDownload).
		WithResource("qr.zip").
		WithDescription(fmt.Sprintf("%d QR codes", count)))
	return count, nil
}
