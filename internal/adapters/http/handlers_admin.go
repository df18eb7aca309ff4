package web

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"advent/internal/adapters/http/middleware"
	auditStore "advent/internal/adapters/storage/audit"
	doorStore "advent/internal/adapters/storage/door"
	"advent/internal/application/orchestrators"
	"advent/internal/domain/admin"
	"advent/internal/domain/audit"
	"advent/internal/domain/door"
	"advent/internal/domain/link"
)

const (
	// blankEditorRows is how many empty rows the editor offers for new doors.
	blankEditorRows = 3
	// maxEditorRows caps the rows accepted from one form submission.
	maxEditorRows = 500
	// maxUploadBytes caps every request body, form and CSV uploads included.
	maxUploadBytes = 2 << 20
	// recentAuditEvents is how many audit events the admin page lists.
	recentAuditEvents = 15
)

// editorRow is one row of the bulk editor.
type editorRow struct {
	Index    int
	Number   int
	Record   door.Record
	New      bool
	DoorURLs []string
	QRURLs   []string
}

// adminPage is the data behind admin.html.
type adminPage struct {
	CalendarLabel string
	Kid1Name      string
	Kid2Name      string
	Rows          []editorRow
	RowCount      int
	Flash         string
	Warning       string
	Error         string
	AuditEvents   []audit.Event
}

func buildEditorRows(records []door.Record, blanks int) []editorRow {
	rows := make([]editorRow, 0, len(records)+blanks)
	for i, rec := range records {
		row := editorRow{Index: i, Number: i + 1, Record: rec}
		for _, kid := range door.Kids {
			if u, err := link.Build(appConfig.BaseURL, rec.Date, int(kid)); err == nil {
				row.DoorURLs = append(row.DoorURLs, u)
			}
			q := url.Values{"date": {rec.Date}, "kid": {strconv.Itoa(int(kid))}}
			row.QRURLs = append(row.QRURLs, "/admin/qr?"+q.Encode())
		}
		rows = append(rows, row)
	}
	for i := 0; i < blanks; i++ {
		idx := len(records) + i
		rows = append(rows, editorRow{
			Index:  idx,
			Number: idx + 1,
			Record: door.Record{IsActive: true},
			New:    true,
		})
	}
	return rows
}

func recentEvents(ctx context.Context) []audit.Event {
	if stores.AuditStore == nil {
		return nil
	}
	events, err := stores.AuditStore.List(ctx, auditStore.Filter{}, recentAuditEvents)
	if err != nil {
		slog.Warn("audit_list_failed", "error", err.Error())
		return nil
	}
	return events
}

func renderAdmin(w http.ResponseWriter, r *http.Request, status int, records []door.Record, page adminPage) {
	cal := appConfig.Calendar()
	page.CalendarLabel = fmt.Sprintf("%s %d", cal.MonthName(), cal.Year)
	page.Kid1Name = appConfig.Kid1Name
	page.Kid2Name = appConfig.Kid2Name
	page.Rows = buildEditorRows(records, blankEditorRows)
	page.RowCount = len(page.Rows)
	page.AuditEvents = recentEvents(r.Context())
	renderTemplateStatus(w, r, status, "admin.html", page)
}

// handleAdmin renders the message editor at /admin.
func handleAdmin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var page adminPage
	q := r.URL.Query()
	if q.Get("saved") == "1" {
		page.Flash = "Message data saved successfully!"
	}
	if n := q.Get("imported"); n != "" {
		if count, err := strconv.Atoi(n); err == nil {
			page.Flash = fmt.Sprintf("Imported %d doors from CSV.", count)
		}
	}

	records, err := stores.DoorStore.Load(r.Context())
	var perr *doorStore.ParseError
	switch {
	case err == nil:
	case errors.Is(err, doorStore.ErrNotFound):
		page.Warning = "Advent messages JSON file not found. Starting with empty data."
	case errors.As(err, &perr):
		slog.Error("data_unavailable", "reason", "parse_error", "path", perr.Path, "error", perr.Err.Error())
		page.Error = "Error loading JSON data. Saving will replace the unreadable file."
	default:
		internalError(w, err)
		return
	}

	renderAdmin(w, r, http.StatusOK, records, page)
}

// parseEditorForm reads the bulk editor rows. Deleted rows and rows with no
// date and no messages are dropped.
func parseEditorForm(r *http.Request) ([]door.Record, error) {
	n, err := strconv.Atoi(r.PostFormValue("rows"))
	if err != nil || n < 0 {
		return nil, errors.New("missing row count")
	}
	if n > maxEditorRows {
		return nil, fmt.Errorf("too many rows (max %d)", maxEditorRows)
	}

	records := []door.Record{}
	for i := 0; i < n; i++ {
		field := func(name string) string { return r.PostFormValue(name + "_" + strconv.Itoa(i)) }
		if field("delete") == "on" {
			continue
		}
		rec := door.Record{
			Date:        field("date"),
			MessageKid1: normalizeNewlines(field("kid1")),
			MessageKid2: normalizeNewlines(field("kid2")),
			IsActive:    field("active") == "on",
		}
		if strings.TrimSpace(rec.Date) == "" && strings.TrimSpace(rec.MessageKid1) == "" && strings.TrimSpace(rec.MessageKid2) == "" {
			continue
		}
		rec.Normalize()
		records = append(records, rec)
	}
	return records, nil
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

// handleSaveMessages handles POST /admin/messages (bulk replace from the editor).
func handleSaveMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	records, err := parseEditorForm(r)
	if err != nil {
		http.Error(w, "Invalid form submission: "+err.Error(), http.StatusBadRequest)
		return
	}

	input := orchestrators.SaveMessagesInput{Records: records, Audit: auditContext(r)}
	deps := orchestrators.SaveMessagesDeps{DoorStore: stores.DoorStore, Audit: stores.AuditStore}

	if err := orchestrators.ExecuteSaveMessages(r.Context(), input, deps); err != nil {
		var verr *door.ValidationError
		if errors.As(err, &verr) {
			renderAdmin(w, r, http.StatusUnprocessableEntity, records, adminPage{
				Error: verr.Error() + ". Data save canceled due to validation errors. Please check the 'Date' column.",
			})
			return
		}
		internalError(w, err)
		return
	}

	http.Redirect(w, r, "/admin?saved=1", http.StatusSeeOther)
}

// handleExportMessages handles GET /admin/messages.csv.
func handleExportMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var buf bytes.Buffer
	input := orchestrators.ExportMessagesInput{Writer: &buf, Audit: auditContext(r)}
	deps := orchestrators.ExportMessagesDeps{DoorStore: stores.DoorStore, Audit: stores.AuditStore}
	if _, err := orchestrators.ExecuteExportMessages(r.Context(), input, deps); err != nil {
		dataUnavailable(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="advent_messages.csv"`)
	buf.WriteTo(w)
}

// isImportInputError reports whether err was caused by the uploaded file.
func isImportInputError(err error) bool {
	var verr *door.ValidationError
	var perr *csv.ParseError
	return errors.As(err, &verr) ||
		errors.As(err, &perr) ||
		errors.Is(err, doorStore.ErrMissingDateColumn) ||
		errors.Is(err, io.EOF)
}

// handleImportMessages handles POST /admin/messages/import (CSV bulk replace).
func handleImportMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing CSV file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	input := orchestrators.ImportMessagesInput{Reader: file, Filename: header.Filename, Audit: auditContext(r)}
	deps := orchestrators.ImportMessagesDeps{DoorStore: stores.DoorStore, Audit: stores.AuditStore}

	n, err := orchestrators.ExecuteImportMessages(r.Context(), input, deps)
	if err != nil {
		if !isImportInputError(err) {
			internalError(w, err)
			return
		}
		page := adminPage{Error: "Import canceled: " + err.Error()}
		current, loadErr := stores.DoorStore.Load(r.Context())
		if loadErr != nil {
			slog.Error("data_unavailable", "reason", "reload_after_import", "error", loadErr.Error())
			page.Warning = "Current message data could not be loaded. The editor below is empty."
		}
		renderAdmin(w, r, http.StatusUnprocessableEntity, current, page)
		return
	}

	http.Redirect(w, r, "/admin?imported="+strconv.Itoa(n), http.StatusSeeOther)
}

// handleQRCode handles GET /admin/qr?date=YYYY-MM-DD&kid=N.
func handleQRCode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	input := orchestrators.RenderQRCodeInput{
		BaseURL: appConfig.BaseURL,
		Date:    strings.TrimSpace(q.Get("date")),
		Kid:     q.Get("kid"),
		Size:    appConfig.QRSize,
		Audit:   auditContext(r),
	}
	deps := orchestrators.RenderQRCodeDeps{Encoder: qrEncoder, Audit: stores.AuditStore}

	result, err := orchestrators.ExecuteRenderQRCode(r.Context(), input, deps)
	if err != nil {
		if errors.Is(err, orchestrators.ErrInvalidDoorDate) || errors.Is(err, door.ErrInvalidKid) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		internalError(w, err)
		return
	}

	disposition := "inline"
	if q.Get("download") == "1" {
		disposition = "attachment"
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`%s; filename="%s"`, disposition, result.Filename))
	w.Write(result.PNG)
}

// handleQRArchive handles GET /admin/qr.zip.
func handleQRArchive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var buf bytes.Buffer
	input := orchestrators.BuildQRArchiveInput{
		BaseURL:  appConfig.BaseURL,
		Size:     appConfig.QRSize,
		KidNames: appConfig.KidNames(),
		Writer:   &buf,
		Audit:    auditContext(r),
	}
	deps := orchestrators.BuildQRArchiveDeps{DoorStore: stores.DoorStore, Encoder: qrEncoder, Audit: stores.AuditStore}

	if _, err := orchestrators.ExecuteBuildQRArchive(r.Context(), input, deps); err != nil {
		var perr *doorStore.ParseError
		if errors.Is(err, doorStore.ErrNotFound) || errors.As(err, &perr) {
			dataUnavailable(w, r, err)
			return
		}
		internalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="advent-qr-codes.zip"`)
	buf.WriteTo(w)
}

// handleAdminLogin handles GET (form) and POST (authenticate) for /admin/login.
func handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if _, ok := middleware.GetSessionFromContext(r.Context()); ok {
			http.Redirect(w, r, "/admin", http.StatusSeeOther)
			return
		}
		data := map[string]any{}
		if cred, err := stores.CredentialStore.Get(r.Context()); err == nil && !cred.IsConfigured() {
			data["Error"] = "ADMIN_PASSWORD not set in .env file."
			data["Disabled"] = true
		}
		renderTemplate(w, r, "login.html", data)

	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}

		input := orchestrators.LoginInput{Password: r.PostFormValue("password"), Audit: auditContext(r)}
		deps := orchestrators.LoginDeps{Credentials: stores.CredentialStore, Audit: stores.AuditStore}

		if err := orchestrators.ExecuteLogin(r.Context(), input, deps); err != nil {
			data := map[string]any{"Error": loginErrorMessage(err)}
			if errors.Is(err, admin.ErrNotConfigured) {
				data["Disabled"] = true
			}
			renderTemplateStatus(w, r, http.StatusUnauthorized, "login.html", data)
			return
		}

		token, err := sessions.Create(middleware.ClientIP(r))
		if err != nil {
			internalError(w, err)
			return
		}
		middleware.SetSessionCookie(w, token)
		http.Redirect(w, r, "/admin", http.StatusSeeOther)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func loginErrorMessage(err error) string {
	switch {
	case errors.Is(err, admin.ErrNotConfigured):
		return "ADMIN_PASSWORD not set in .env file."
	case errors.Is(err, orchestrators.ErrLoginLocked):
		return fmt.Sprintf("Too many failed attempts. Try again in %d minutes.", int(admin.LockoutDuration.Minutes()))
	}
	return "Incorrect password"
}

// handleAdminLogout handles POST /admin/logout.
func handleAdminLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	orchestrators.ExecuteLogout(r.Context(), orchestrators.LogoutInput{Audit: auditContext(r)},
		orchestrators.LogoutDeps{Audit: stores.AuditStore})

	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		sessions.Delete(cookie.Value)
	}
	middleware.ClearSessionCookie(w)
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}
