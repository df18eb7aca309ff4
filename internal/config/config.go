package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"advent/internal/domain/door"
	"advent/internal/domain/gate"
)

// Defaults
const (
	DefaultMonth    = 12
	DefaultMaxDay   = 24
	DefaultKid1Name = "Kid 1"
	DefaultKid2Name = "Kid 2"
	DefaultBaseURL  = "http://localhost:8080/door"
	DefaultDataFile = "advent_messages.json"
	DefaultAuditDB  = "advent_audit.db"
	DefaultAddr     = ":8080"
	DefaultEnv      = "development"
	DefaultQRSize   = 256
)

// EnvProduction is the ADVENT_ENV value that enables strict settings.
const EnvProduction = "production"

// Config is the app configuration, read from the environment.
type Config struct {
	Year   int
	Month  int
	MaxDay int

	AdminPassword     string
	AdminPasswordHash string

	Kid1Name string
	Kid2Name string

	BaseURL string
	// Debug opens every door and shows the request debug panel.
	Debug bool

	DataFile string
	AuditDB  string
	Addr     string
	Env      string
	CSRFKey  []byte
	QRSize   int
}

// LoadDotEnv loads variables from .env files without overriding the real environment.
// A missing default .env is not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
	}
	return godotenv.Load(files...)
}

// FromEnv reads the configuration from the process environment.
func FromEnv() (Config, error) {
	return Load(os.Getenv, time.Now())
}

// Load builds a Config from a lookup function. Integers that are missing or
// malformed fall back to their defaults.
// PRE: getenv is non-nil
// POST: Returns a validated Config, or an error for values that cannot be defaulted
func Load(getenv func(string) string, now time.Time) (Config, error) {
	cfg := Config{
		Year:              intOr(getenv("CALENDAR_YEAR"), now.Year()),
		Month:             intOr(getenv("CALENDAR_MONTH"), DefaultMonth),
		MaxDay:            intOr(getenv("MAX_DAY"), DefaultMaxDay),
		AdminPassword:     getenv("ADMIN_PASSWORD"),
		AdminPasswordHash: strings.TrimSpace(getenv("ADMIN_PASSWORD_HASH")),
		Kid1Name:          stringOr(getenv("KID_1_NAME"), DefaultKid1Name),
		Kid2Name:          stringOr(getenv("KID_2_NAME"), DefaultKid2Name),
		BaseURL:           stringOr(getenv("BASE_URL"), DefaultBaseURL),
		Debug:             parseBool(getenv("DEBUG_MODE")),
		DataFile:          stringOr(getenv("ADVENT_DATA_FILE"), DefaultDataFile),
		AuditDB:           stringOr(getenv("ADVENT_AUDIT_DB"), DefaultAuditDB),
		Addr:              stringOr(getenv("ADVENT_ADDR"), DefaultAddr),
		Env:               stringOr(getenv("ADVENT_ENV"), DefaultEnv),
		QRSize:            intOr(getenv("ADVENT_QR_SIZE"), DefaultQRSize),
	}

	if cfg.Month < 1 || cfg.Month > 12 {
		return Config{}, fmt.Errorf("CALENDAR_MONTH must be between 1 and 12, got %d", cfg.Month)
	}
	if cfg.MaxDay < 1 || cfg.MaxDay > 31 {
		return Config{}, fmt.Errorf("MAX_DAY must be between 1 and 31, got %d", cfg.MaxDay)
	}
	if cfg.QRSize < 64 {
		return Config{}, fmt.Errorf("ADVENT_QR_SIZE must be at least 64, got %d", cfg.QRSize)
	}

	if keyHex := strings.TrimSpace(getenv("ADVENT_CSRF_KEY")); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			return Config{}, errors.New("ADVENT_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		cfg.CSRFKey = key
	} else if cfg.IsProduction() {
		return Config{}, errors.New("ADVENT_CSRF_KEY is required in production")
	}

	return cfg, nil
}

// IsProduction reports whether the app runs with production settings.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Calendar returns the gate configuration.
func (c Config) Calendar() gate.Calendar {
	return gate.Calendar{Year: c.Year, Month: time.Month(c.Month), Override: c.Debug}
}

// KidNames returns the display names keyed by kid id.
func (c Config) KidNames() map[door.KidID]string {
	return map[door.KidID]string{door.Kid1: c.Kid1Name, door.Kid2: c.Kid2Name}
}

// DoorEnvironment returns the resolver environment for the given moment.
func (c Config) DoorEnvironment(today time.Time) door.Environment {
	return door.Environment{
		Today:    today,
		Calendar: c.Calendar(),
		MaxDay:   c.MaxDay,
		KidNames: c.KidNames(),
	}
}

func intOr(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return n
}

func stringOr(raw, fallback string) string {
	if v := strings.TrimSpace(raw); v != "" {
		return v
	}
	return fallback
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "t":
		return true
	}
	return false
}
