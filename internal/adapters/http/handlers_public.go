package web

import (
	"net/http"

	"advent/internal/application/orchestrators"
	"advent/internal/application/projections"
	"advent/internal/domain/door"
)

// handleHome renders the calendar overview at /.
func handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	query := projections.GetCalendarOverviewQuery{
		Today:    timeNow(),
		Calendar: appConfig.Calendar(),
	}
	deps := projections.GetCalendarOverviewDeps{DoorStore: stores.DoorStore}

	result, err := projections.QueryGetCalendarOverview(r.Context(), query, deps)
	if err != nil {
		dataUnavailable(w, r, err)
		return
	}

	renderTemplate(w, r, "home.html", map[string]any{
		"Overview": result,
		"Kids":     kidLinks(),
	})
}

type kidLink struct {
	ID   int
	Name string
}

func kidLinks() []kidLink {
	names := appConfig.KidNames()
	out := make([]kidLink, 0, len(door.Kids))
	for _, k := range door.Kids {
		out = append(out, kidLink{ID: int(k), Name: names[k]})
	}
	return out
}

// doorDebug is what the debug panel shows about a door request.
type doorDebug struct {
	RawQuery     string
	RawDate      string
	RawDay       string
	RawKid       string
	StrippedDate string
	LoadedDates  []string
	TotalDates   int
}

// doorStatus maps an outcome to the HTTP status of its page.
func doorStatus(kind door.OutcomeKind) int {
	switch kind {
	case door.OutcomeInvalidParams:
		return http.StatusBadRequest
	case door.OutcomeMissingDoor:
		return http.StatusNotFound
	case door.OutcomeDenied:
		return http.StatusForbidden
	}
	return http.StatusOK
}

// handleDoor renders one door for one kid at /door?date=YYYY-MM-DD&kid=N.
func handleDoor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	req := door.Request{Date: q.Get("date"), Day: q.Get("day"), Kid: q.Get("kid")}
	input := orchestrators.OpenDoorInput{
		Request: req,
		Env:     appConfig.DoorEnvironment(timeNow()),
	}
	deps := orchestrators.OpenDoorDeps{DoorStore: stores.DoorStore}

	result, err := orchestrators.ExecuteOpenDoor(r.Context(), input, deps)
	if err != nil {
		dataUnavailable(w, r, err)
		return
	}

	data := map[string]any{
		"Outcome":   result.Outcome,
		"Kind":      result.Outcome.Kind.String(),
		"MonthName": appConfig.Calendar().MonthName(),
	}
	if result.Outcome.Err != nil {
		data["Error"] = result.Outcome.Err.Error()
	}
	if appConfig.Debug {
		data["Debug"] = doorDebug{
			RawQuery:     r.URL.RawQuery,
			RawDate:      req.Date,
			RawDay:       req.Day,
			RawKid:       req.Kid,
			StrippedDate: result.Outcome.Date,
			LoadedDates:  result.LoadedDates,
			TotalDates:   result.TotalDates,
		}
	}
	renderTemplateStatus(w, r, doorStatus(result.Outcome.Kind), "door.html", data)
}
