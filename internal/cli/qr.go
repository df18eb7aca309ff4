package cli

import (
	"context"
	"fmt"
	"os"

	"advent/internal/application/orchestrators"
)

type QRCmd struct {
	Output string `help:"Zip file to write." short:"o" type:"path" default:"advent-qr-codes.zip"`
	Size   int    `help:"Image size in pixels (defaults to ADVENT_QR_SIZE)."`
}

// Run writes the QR archive for every active door.
func (cmd *QRCmd) Run(ctx *Context) error {
	size := cmd.Size
	if size == 0 {
		size = ctx.Config.QRSize
	}

	f, err := os.Create(cmd.Output)
	if err != nil {
		return err
	}

	input := orchestrators.BuildQRArchiveInput{
		BaseURL:  ctx.Config.BaseURL,
		Size:     size,
		KidNames: ctx.Config.KidNames(),
		Writer:   f,
		Audit:    ctx.auditContext(),
	}
	deps := orchestrators.BuildQRArchiveDeps{DoorStore: ctx.Store, Encoder: ctx.Encoder}

	n, err := orchestrators.ExecuteBuildQRArchive(context.Background(), input, deps)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(cmd.Output)
		return err
	}
	fmt.Fprintf(ctx.Out, "Wrote %d QR codes to %s\n", n, cmd.Output)
	return nil
}
