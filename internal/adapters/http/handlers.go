package web

import (
	"bytes"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"advent/internal/adapters/http/middleware"
	doorStore "advent/internal/adapters/storage/door"
	"advent/internal/application/orchestrators"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set).
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// dataUnavailable renders the halting page shown when the message file
// cannot be loaded. Parse details go to the log only.
func dataUnavailable(w http.ResponseWriter, r *http.Request, err error) {
	msg := "Something went wrong loading the calendar."
	var perr *doorStore.ParseError
	switch {
	case errors.Is(err, doorStore.ErrNotFound):
		msg = "Error: Advent messages JSON file not found!"
		slog.Error("data_unavailable", "reason", "not_found", "error", err.Error())
	case errors.As(err, &perr):
		msg = "Error reading JSON data. The message file is malformed."
		slog.Error("data_unavailable", "reason", "parse_error", "path", perr.Path, "error", perr.Err.Error())
	default:
		internalError(w, err)
		return
	}
	renderTemplateStatus(w, r, http.StatusServiceUnavailable, "error.html", map[string]any{"Message": msg})
}

// auditContext collects who is making the request.
func auditContext(r *http.Request) orchestrators.AuditContext {
	ac := orchestrators.AuditContext{
		IPAddress: middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
		Now:       timeNow(),
	}
	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		ac.SessionID = shortToken(sess.Token)
	}
	return ac
}

// shortToken keeps session tokens out of the audit table.
func shortToken(token string) string {
	if len(token) > 8 {
		return token[:8]
	}
	return token
}

func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// renderTemplate executes layout.html together with the named page.
func renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) {
	renderTemplateStatus(w, r, http.StatusOK, templateName, data)
}

// renderTemplateStatus renders into a buffer so a failed execution never
// leaves a half-written page behind the status line.
func renderTemplateStatus(w http.ResponseWriter, r *http.Request, status int, templateName string, data any) {
	_, isAdmin := middleware.GetSessionFromContext(r.Context())

	funcMap := template.FuncMap{
		"csrfField":      func() template.HTML { return csrf.TemplateField(r) },
		"isAdmin":        func() bool { return isAdmin },
		"debugMode":      func() bool { return appConfig.Debug },
		"renderMarkdown": renderMarkdown,
		"add":            func(a, b int) int { return a + b },
		"upper":          strings.ToUpper,
	}

	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(assets,
		"templates/layout.html", "templates/"+templateName)
	if err != nil {
		http.Error(w, "Template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
