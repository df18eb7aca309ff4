package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"advent/internal/domain/admin"
)

type HashPasswordCmd struct {
	Password string `arg:"" optional:"" help:"Password to hash. Read from stdin when omitted."`
	Cost     int    `help:"bcrypt cost." default:"12"`

	stdin io.Reader
}

// Run prints an ADMIN_PASSWORD_HASH line for the password.
func (cmd *HashPasswordCmd) Run(ctx *Context) error {
	password := cmd.Password
	if password == "" {
		in := cmd.stdin
		if in == nil {
			in = os.Stdin
		}
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		password = strings.TrimRight(line, "\r\n")
	}

	hash, err := admin.HashPassword(password, cmd.Cost)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "ADMIN_PASSWORD_HASH=%s\n", hash)
	return nil
}
