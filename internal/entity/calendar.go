package entity

import (
	"fmt"
	"sort"
	"time"

	"github.com/finassist/bridge/internal/config"
	"github.com/finassist/bridge/internal/convert"
)

// Alternative key names seen across server builds for the same event fields.
var (
	startKeys       = []string{"start", "dtstart", "start_date", "date", "transaction_date", "due_date"}
	endKeys         = []string{"end", "dtend", "end_date"}
	summaryKeys     = []string{"summary", "title", "name"}
	descriptionKeys = []string{"description", "notes"}
	locationKeys    = []string{"location", "account_name"}
)

// Recurring occurrence generation never runs more than a year out.
const recurringHorizon = 365 * 24 * time.Hour

const defaultEventSpan = 24 * time.Hour

// Event is one normalized calendar entry.
type Event struct {
	UID         string    `json:"uid,omitempty"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// Calendars projects calendar views out of the snapshot.
type Calendars struct {
	src SnapshotSource
	cfg config.APIConfig
}

func NewCalendars(src SnapshotSource, cfg config.APIConfig) *Calendars {
	return &Calendars{src: src, cfg: cfg}
}

// NormalizeEvent turns a loosely-typed record into an Event. Records without
// a parseable start are dropped. A missing end defaults to start+1 day, and
// an inverted range is clamped the same way.
func NormalizeEvent(rec map[string]any) (Event, bool) {
	var start time.Time
	ok := false
	for _, key := range startKeys {
		if v, exists := rec[key]; exists {
			if t, parsed := convert.ToTime(v); parsed {
				start, ok = t, true
				break
			}
		}
	}
	if !ok {
		return Event{}, false
	}

	end := start.Add(defaultEventSpan)
	for _, key := range endKeys {
		if v, exists := rec[key]; exists {
			if t, parsed := convert.ToTime(v); parsed {
				end = t
				break
			}
		}
	}
	if end.Before(start) {
		end = start.Add(defaultEventSpan)
	}

	return Event{
		UID:         convert.FirstString(rec, "uid", "id"),
		Summary:     convert.FirstString(rec, summaryKeys...),
		Description: convert.FirstString(rec, descriptionKeys...),
		Location:    convert.FirstString(rec, locationKeys...),
		Start:       start,
		End:         end,
	}, true
}

// EventsBetween returns the normalized events of one calendar query that
// overlap [start, end], ordered by start time.
func (c *Calendars) EventsBetween(queryID string, start, end time.Time) []Event {
	snap := c.src.Snapshot()
	if snap == nil {
		return []Event{}
	}

	events := []Event{}
	for _, rec := range snap.Calendars[queryID] {
		ev, ok := NormalizeEvent(rec)
		if !ok || !overlaps(ev, start, end) {
			continue
		}
		events = append(events, ev)
	}
	sortEvents(events)
	return events
}

// PlannerEvents merges transaction events, generated recurring occurrences,
// and critical-expense events overlapping [start, end].
func (c *Calendars) PlannerEvents(start, end time.Time) []Event {
	snap := c.src.Snapshot()
	if snap == nil {
		return []Event{}
	}

	events := []Event{}
	for _, rec := range snap.Transactions {
		ev, ok := NormalizeEvent(rec)
		if !ok || !overlaps(ev, start, end) {
			continue
		}
		events = append(events, ev)
	}

	if c.cfg.EnableRecurringEvents {
		for _, rec := range snap.Recurring {
			events = append(events, RecurringEvents(rec, start, end)...)
		}
	}

	if c.cfg.EnableCriticalEvents {
		events = append(events, c.criticalEvents(snap.CriticalExpenses, start, end)...)
	}

	sortEvents(events)
	return events
}

// RecurringEvents expands one recurring transaction into its occurrences
// inside [rangeStart, rangeEnd]. Inactive records produce nothing.
func RecurringEvents(rec map[string]any, rangeStart, rangeEnd time.Time) []Event {
	if active, ok := rec["is_active"].(bool); ok && !active {
		return nil
	}
	first, ok := convert.ToTime(rec["start_date"])
	if !ok {
		return nil
	}
	until, hasUntil := convert.ToTime(rec["end_date"])

	frequency := convert.String(rec, "frequency", "monthly")
	amount := convert.ToFloat(rec["amount"])
	payee := convert.String(rec, "payee_name", "Unknown")
	category := convert.String(rec, "category_name", "Unknown")
	account := convert.String(rec, "account_name", "")
	id := convert.FirstString(rec, "id")

	var events []Event
	horizon := rangeEnd
	if capped := rangeStart.Add(recurringHorizon); capped.Before(horizon) {
		horizon = capped
	}
	for current := first; !current.After(horizon); {
		if hasUntil && current.After(until) {
			break
		}
		if !current.Before(rangeStart) {
			events = append(events, Event{
				UID:         fmt.Sprintf("fa_recurring_%s_%s", id, current.Format("2006-01-02")),
				Summary:     fmt.Sprintf("Recurring: %s - %s", payee, category),
				Description: fmt.Sprintf("Amount: $%.2f", amount),
				Location:    account,
				Start:       current,
				End:         current.Add(defaultEventSpan),
			})
		}
		next := nextOccurrence(current, frequency)
		if !next.After(current) {
			break
		}
		current = next
	}
	return events
}

// nextOccurrence advances a date by one period. Monthly increments preserve
// the day-of-month, clamping to the last day of shorter months. Unknown
// frequencies advance 30 days.
func nextOccurrence(t time.Time, frequency string) time.Time {
	switch frequency {
	case "daily":
		return t.AddDate(0, 0, 1)
	case "weekly":
		return t.AddDate(0, 0, 7)
	case "biweekly":
		return t.AddDate(0, 0, 14)
	case "monthly":
		return addMonthClamped(t)
	case "quarterly":
		return t.AddDate(0, 0, 90)
	case "yearly":
		return t.AddDate(0, 0, 365)
	default:
		return t.AddDate(0, 0, 30)
	}
}

func addMonthClamped(t time.Time) time.Time {
	year, month, day := t.Date()
	month++
	if month > 12 {
		month = 1
		year++
	}
	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), 0, t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (c *Calendars) criticalEvents(critical map[string]any, start, end time.Time) []Event {
	items, _ := convert.Nested(critical, "critical_expenses").([]any)
	if items == nil {
		items, _ = convert.Nested(critical, "expenses").([]any)
	}

	var events []Event
	for _, item := range items {
		rec, ok := item.(map[string]any)
		if !ok {
			continue
		}
		ev, ok := NormalizeEvent(rec)
		if !ok || !overlaps(ev, start, end) {
			continue
		}
		if ev.Summary == "" {
			ev.Summary = "Critical expense"
		}
		ev.Summary = "Critical: " + ev.Summary
		events = append(events, ev)
	}
	return events
}

func overlaps(ev Event, start, end time.Time) bool {
	return !ev.Start.After(end) && !ev.End.Before(start)
}

func sortEvents(events []Event) {
	sort.Slice(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
}
