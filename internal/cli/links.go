package cli

import (
	"context"
	"fmt"

	"advent/internal/domain/door"
	"advent/internal/domain/link"
)

type LinksCmd struct {
	Legacy bool `help:"Print links using the day number instead of the date."`
	All    bool `help:"Include disabled doors."`
}

// Run prints one deep link per door and kid, tab separated.
func (cmd *LinksCmd) Run(ctx *Context) error {
	records, err := ctx.Store.Load(context.Background())
	if err != nil {
		return err
	}
	sorted := make([]door.Record, len(records))
	copy(sorted, records)
	door.SortByDate(sorted)

	env := ctx.Config.DoorEnvironment(ctx.now())
	for _, rec := range sorted {
		if !rec.IsActive && !cmd.All {
			continue
		}
		if cmd.Legacy && !legacyReachable(rec, env) {
			fmt.Fprintf(ctx.warnOut(), "! skipped %s: a day link only reaches doors 1-%d of %s %d\n",
				rec.Date, env.MaxDay, env.Calendar.MonthName(), env.Calendar.Year)
			continue
		}
		for _, kid := range door.Kids {
			var u string
			if cmd.Legacy {
				u, err = link.BuildLegacy(ctx.Config.BaseURL, rec.Day(), int(kid))
			} else {
				u, err = link.Build(ctx.Config.BaseURL, rec.Date, int(kid))
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(ctx.Out, "%s\t%s\t%s\n", rec.Date, env.KidName(kid), u)
		}
	}
	return nil
}

// legacyReachable reports whether a day=N link resolves back to rec's own date.
func legacyReachable(rec door.Record, env door.Environment) bool {
	day := rec.Day()
	return day >= 1 && day <= env.MaxDay && door.LegacyDate(env.Calendar, day) == rec.Date
}
