package cli

import (
	"io"
	"os"
	"time"

	"advent/internal/adapters/qrcode"
	doorStore "advent/internal/adapters/storage/door"
	"advent/internal/application/orchestrators"
	"advent/internal/config"
)

// Context is passed to every command's Run method.
type Context struct {
	Config  config.Config
	Store   doorStore.Store
	Encoder qrcode.Encoder
	Out     io.Writer
	Err     io.Writer // warnings; defaults to stderr
	Now     func() time.Time
}

func (c *Context) warnOut() io.Writer {
	if c.Err != nil {
		return c.Err
	}
	return os.Stderr
}

func (c *Context) auditContext() orchestrators.AuditContext {
	return orchestrators.AuditContext{SessionID: "cli", UserAgent: "adventctl", Now: c.now()}
}

func (c *Context) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}
