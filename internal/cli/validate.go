package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	doorStore "advent/internal/adapters/storage/door"
	"advent/internal/domain/door"
	"advent/internal/domain/gate"
)

// ErrInvalidData is returned by validate when the data file has problems.
var ErrInvalidData = errors.New("message data has problems")

type ValidateCmd struct{}

// Run loads the data file, reports blocking errors and warns about doors
// that fall outside the configured calendar.
func (cmd *ValidateCmd) Run(ctx *Context) error {
	records, err := ctx.Store.Load(context.Background())
	if err != nil {
		var perr *doorStore.ParseError
		if errors.As(err, &perr) {
			fmt.Fprintf(ctx.Out, "✗ %s is malformed: %v\n", perr.Path, perr.Err)
			return ErrInvalidData
		}
		return err
	}

	if err := door.ValidateAll(records); err != nil {
		fmt.Fprintf(ctx.Out, "✗ %v\n", err)
		return ErrInvalidData
	}

	cal := ctx.Config.Calendar()
	active := 0
	warnings := 0
	for _, rec := range records {
		if rec.IsActive {
			active++
		}
		d, _ := time.Parse(gate.DateLayout, rec.Date)
		if d.Year() != cal.Year || d.Month() != cal.Month {
			fmt.Fprintf(ctx.Out, "! %s is outside %s %d and will never open\n", rec.Date, cal.MonthName(), cal.Year)
			warnings++
		} else if d.Day() > ctx.Config.MaxDay {
			fmt.Fprintf(ctx.Out, "! %s is after door %d\n", rec.Date, ctx.Config.MaxDay)
			warnings++
		}
	}

	fmt.Fprintf(ctx.Out, "✓ %d doors (%d active, %d disabled), %d warnings\n",
		len(records), active, len(records)-active, warnings)
	return nil
}
