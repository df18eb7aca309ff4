package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"advent/internal/domain/admin"
	"advent/internal/domain/audit"
)

// CredentialStoreForLogin defines the store interface needed by Login.
type CredentialStoreForLogin interface {
	Update(ctx context.Context, fn func(*admin.Credential) error) error
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Password string
	Audit    AuditContext
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	Credentials CredentialStoreForLogin
	Audit       AuditRecorder
}

var (
	ErrInvalidPassword = errors.New("incorrect password")
	ErrLoginLocked     = errors.New("login is locked due to too many failed attempts")
)

// ExecuteLogin checks the admin password and maintains the lockout counter.
// POST: nil on success with the counter reset; otherwise one of
// admin.ErrNotConfigured, ErrLoginLocked, ErrInvalidPassword
// INVARIANT: A locked credential rejects even the correct password
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) error {
	if input.Audit.Now.IsZero() {
		input.Audit.Now = time.Now()
	}
	now := input.Audit.Now
	var outcome audit.Event
	err := deps.Credentials.Update(ctx, func(c *admin.Credential) error {
		if !c.IsConfigured() {
			return admin.ErrNotConfigured
		}

		if c.IsLocked(now) {
			slog.Info("auth_event", "event", "login_blocked", "ip", input.Audit.IPAddress, "reason", "locked")
			outcome = input.Audit.event(audit.CategorySecurity, audit.ActionLoginFailed).
				WithSeverity(audit.SeverityWarning).
				WithDescription("login attempt while locked")
			return ErrLoginLocked
		}

		if input.Password == "" || c.CheckPassword(input.Password) != nil {
			c.RecordFailedLogin(now)
			slog.Info("auth_event", "event", "login_failed", "ip", input.Audit.IPAddress, "reason", "wrong_password", "failed_logins", c.FailedLogins)
			if c.IsLocked(now) {
				slog.Warn("auth_event", "event", "login_locked", "ip", input.Audit.IPAddress, "until", c.LockedUntil)
				outcome = input.Audit.event(audit.CategorySecurity, audit.ActionLocked).
					WithSeverity(audit.SeverityWarning).
					WithDescription(fmt.Sprintf("locked after %d failed attempts", c.FailedLogins))
				return ErrLoginLocked
			}
			outcome = input.Audit.event(audit.CategorySecurity, audit.ActionLoginFailed).
				WithSeverity(audit.SeverityWarning).
				WithDescription(fmt.Sprintf("failed attempt %d of %d", c.FailedLogins, admin.MaxFailedLogins))
			return ErrInvalidPassword
		}

		c.ResetFailedLogins()
		slog.Info("auth_event", "event", "login_success", "ip", input.Audit.IPAddress)
		outcome = input.Audit.event(audit.CategorySecurity, audit.ActionLogin)
		return nil
	})

	if outcome.ID != "" {
		RecordAudit(ctx, deps.Audit, outcome)
	}
	return err
}

// LogoutInput carries input for the logout orchestrator.
type LogoutInput struct {
	Audit AuditContext
}

// LogoutDeps holds dependencies for Logout.
type LogoutDeps struct {
	Audit AuditRecorder
}

// ExecuteLogout records the end of an admin session. Session removal is the
// caller's job.
func ExecuteLogout(ctx context.Context, input LogoutInput, deps LogoutDeps) {
	slog.Info("auth_event", "event", "logout", "ip", input.Audit.IPAddress)
	RecordAudit(ctx, deps.Audit, input.Audit.event(audit.CategorySecurity, audit.ActionLogout))
}
