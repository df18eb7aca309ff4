package admin

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Lockout policy
const (
	MaxFailedLogins = 5
	LockoutDuration = 15 * time.Minute
)

// DefaultCost is the bcrypt cost used when hashing a plaintext password from config.
const DefaultCost = 12

// Domain errors
var (
	ErrNotConfigured = errors.New("ADMIN_PASSWORD not set")
	ErrEmptyPassword = errors.New("password cannot be empty")
	ErrWrongPassword = errors.New("incorrect password")
)

// Credential is the single admin password plus its failed-login state.
type Credential struct {
	PasswordHash string
	FailedLogins int
	LockedUntil  time.Time
}

// NewCredential builds a credential from a bcrypt hash, or hashes the plaintext
// when no hash is given. Both empty yields an unconfigured credential.
// PRE: hash, if set, is a bcrypt hash
// POST: Returns a credential; PasswordHash empty means not configured
func NewCredential(hash, plaintext string, cost int) (Credential, error) {
	if hash != "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return Credential{}, err
		}
		return Credential{PasswordHash: hash}, nil
	}
	if plaintext == "" {
		return Credential{}, nil
	}
	h, err := HashPassword(plaintext, cost)
	if err != nil {
		return Credential{}, err
	}
	return Credential{PasswordHash: h}, nil
}

// HashPassword hashes a plaintext password with bcrypt.
// PRE: plaintext is non-empty
// POST: Returns a bcrypt hash
func HashPassword(plaintext string, cost int) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// IsConfigured reports whether an admin password exists.
// INVARIANT: Credential fields are not mutated
func (c *Credential) IsConfigured() bool {
	return c.PasswordHash != ""
}

// CheckPassword verifies a plaintext password against the stored hash.
// PRE: PasswordHash is set
// INVARIANT: Credential fields are not mutated
func (c *Credential) CheckPassword(plaintext string) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(plaintext)); err != nil {
		return ErrWrongPassword
	}
	return nil
}

// IsLocked returns true if logins are currently locked out.
// INVARIANT: Credential fields are not mutated
func (c *Credential) IsLocked(now time.Time) bool {
	if c.LockedUntil.IsZero() {
		return false
	}
	return now.Before(c.LockedUntil)
}

// RecordFailedLogin increments the failure counter and locks after MaxFailedLogins.
// POST: FailedLogins incremented; LockedUntil set once the limit is reached
func (c *Credential) RecordFailedLogin(now time.Time) {
	c.FailedLogins++
	if c.FailedLogins >= MaxFailedLogins {
		c.LockedUntil = now.Add(LockoutDuration)
	}
}

// ResetFailedLogins clears the failure counter and lock.
// POST: FailedLogins is 0, LockedUntil is zero
func (c *Credential) ResetFailedLogins() {
	c.FailedLogins = 0
	c.LockedUntil = time.Time{}
}
