package web

import (
	"context"
	"crypto/rand"
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"advent/internal/adapters/http/middleware"
	"advent/internal/adapters/qrcode"
	adminStore "advent/internal/adapters/storage/admin"
	auditStore "advent/internal/adapters/storage/audit"
	doorStore "advent/internal/adapters/storage/door"
	"advent/internal/config"
)

//go:embed templates static
var assets embed.FS

// Stores holds all storage dependencies.
type Stores struct {
	DoorStore       doorStore.Store
	AuditStore      auditStore.Store
	CredentialStore adminStore.Store
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global session store instance
var sessions *middleware.SessionStore

// Global configuration (set by NewMux)
var appConfig config.Config

// Global QR encoder (set by NewMux)
var qrEncoder qrcode.Encoder

// LoginAttemptsPerMinute controls the per-IP login rate limit. Tests can increase this.
var LoginAttemptsPerMinute = 10

// csrfKey returns the configured CSRF secret, or a random one for development.
func csrfKey(cfg config.Config) ([]byte, error) {
	if len(cfg.CSRFKey) > 0 {
		return cfg.CSRFKey, nil
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	slog.Warn("using random CSRF key (admin forms won't survive restart), set ADVENT_CSRF_KEY for production")
	return key, nil
}

// trustedOrigins allows form posts from the host the QR links point at.
func trustedOrigins(baseURL string) []string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return nil
	}
	return []string{u.Host}
}

// NewMux wires HTTP handlers for the app.
// Background work started here stops when ctx is done.
// PRE: s has all stores set; enc is non-nil
// POST: Returns the full handler chain
func NewMux(ctx context.Context, cfg config.Config, s *Stores, enc qrcode.Encoder) (http.Handler, error) {
	stores = s
	appConfig = cfg
	qrEncoder = enc
	sessions = middleware.NewSessionStore()
	middleware.SecureCookies = cfg.IsProduction()

	mux := http.NewServeMux()
	static, err := fs.Sub(assets, "static")
	if err != nil {
		return nil, err
	}
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	registerRoutes(mux)

	key, err := csrfKey(cfg)
	if err != nil {
		return nil, err
	}

	limiter := middleware.NewRateLimiter(ctx, LoginAttemptsPerMinute, time.Minute)
	isLoginPost := func(r *http.Request) bool {
		return r.Method == http.MethodPost && r.URL.Path == "/admin/login"
	}

	// Apply middleware: Timing -> SecurityHeaders -> RateLimit -> MaxBody -> CSRF -> Auth -> Mux
	return middleware.Chain(mux,
		middleware.Auth(sessions),
		middleware.CSRF(key, cfg.IsProduction(), trustedOrigins(cfg.BaseURL)),
		middleware.MaxBody(maxUploadBytes),
		middleware.RateLimit(limiter, isLoginPost),
		middleware.SecurityHeaders,
		middleware.Timing(middleware.SlowRequestThreshold()),
	), nil
}

// registerRoutes maps every path to its handler.
func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", handleHome)
	mux.HandleFunc("/door", handleDoor)

	mux.HandleFunc("/admin/login", handleAdminLogin)
	mux.Handle("/admin/logout", middleware.RequireAdmin(http.HandlerFunc(handleAdminLogout)))
	mux.Handle("/admin", middleware.RequireAdmin(http.HandlerFunc(handleAdmin)))
	mux.Handle("/admin/messages", middleware.RequireAdmin(http.HandlerFunc(handleSaveMessages)))
	mux.Handle("/admin/messages.csv", middleware.RequireAdmin(http.HandlerFunc(handleExportMessages)))
	mux.Handle("/admin/messages/import", middleware.RequireAdmin(http.HandlerFunc(handleImportMessages)))
	mux.Handle("/admin/qr", middleware.RequireAdmin(http.HandlerFunc(handleQRCode)))
	mux.Handle("/admin/qr.zip", middleware.RequireAdmin(http.HandlerFunc(handleQRArchive)))
}
