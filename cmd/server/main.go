package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	web "advent/internal/adapters/http"
	"advent/internal/adapters/qrcode"
	"advent/internal/adapters/storage"
	adminStore "advent/internal/adapters/storage/admin"
	auditStore "advent/internal/adapters/storage/audit"
	doorStore "advent/internal/adapters/storage/door"
	"advent/internal/config"
	"advent/internal/domain/admin"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("failed to read .env: %v", err)
	}
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	setupLogging(cfg)

	// Audit log database with WAL mode and busy timeout
	db, err := sql.Open("sqlite", storage.DSN(cfg.AuditDB))
	if err != nil {
		log.Fatalf("failed to open audit database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		log.Fatalf("audit database unreachable: %v", err)
	}

	timedDB := storage.NewTimedDB(db, storage.SlowQueryThreshold())
	if err := storage.InitDB(context.Background(), timedDB); err != nil {
		log.Fatalf("failed to initialize audit database: %v", err)
	}

	cred, err := admin.NewCredential(cfg.AdminPasswordHash, cfg.AdminPassword, admin.DefaultCost)
	if err != nil {
		log.Fatalf("failed to prepare admin credential: %v", err)
	}
	if !cred.IsConfigured() {
		slog.Warn("ADMIN_PASSWORD not set, admin panel login is disabled")
	}

	stores := &web.Stores{
		DoorStore:       doorStore.NewJSONStore(cfg.DataFile),
		AuditStore:      auditStore.NewSQLiteStore(timedDB),
		CredentialStore: adminStore.NewMemoryStore(cred),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler, err := web.NewMux(ctx, cfg, stores, qrcode.NewPNGEncoder())
	if err != nil {
		log.Fatalf("failed to build HTTP handler: %v", err)
	}

	if cfg.Debug {
		slog.Warn("DEBUG_MODE is on: every door is open and the debug panel is shown")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("server_start", "version", version, "addr", cfg.Addr, "env", cfg.Env,
			"calendar", cfg.Calendar().MonthName(), "year", cfg.Year, "data_file", cfg.DataFile)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("server_shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown_failed", "error", err.Error())
	}
}

// setupLogging installs the default slog handler: text for development,
// JSON in production, debug level when DEBUG_MODE is on.
func setupLogging(cfg config.Config) {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
