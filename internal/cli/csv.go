package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"advent/internal/application/orchestrators"
)

type ExportCSVCmd struct {
	Output string `help:"CSV file to write, or - for stdout." short:"o" default:"-"`
}

// Run writes the door table as CSV.
func (cmd *ExportCSVCmd) Run(ctx *Context) error {
	var w io.Writer = ctx.Out
	if cmd.Output != "-" {
		f, err := os.Create(cmd.Output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	input := orchestrators.ExportMessagesInput{Writer: w, Audit: ctx.auditContext()}
	deps := orchestrators.ExportMessagesDeps{DoorStore: ctx.Store}
	n, err := orchestrators.ExecuteExportMessages(context.Background(), input, deps)
	if err != nil {
		return err
	}
	if cmd.Output != "-" {
		fmt.Fprintf(ctx.Out, "Exported %d doors to %s\n", n, cmd.Output)
	}
	return nil
}

type ImportCSVCmd struct {
	File string `arg:"" help:"CSV file to import. Replaces all messages." type:"existingfile"`
}

// Run replaces the door table with the CSV contents.
func (cmd *ImportCSVCmd) Run(ctx *Context) error {
	f, err := os.Open(cmd.File)
	if err != nil {
		return err
	}
	defer f.Close()

	input := orchestrators.ImportMessagesInput{Reader: f, Filename: filepath.Base(cmd.File), Audit: ctx.auditContext()}
	deps := orchestrators.ImportMessagesDeps{DoorStore: ctx.Store}
	n, err := orchestrators.ExecuteImportMessages(context.Background(), input, deps)
	if err != nil {
		return fmt.Errorf("import canceled: %w", err)
	}
	fmt.Fprintf(ctx.Out, "Imported %d doors\n", n)
	return nil
}
