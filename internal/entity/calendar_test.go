package entity

import (
	"testing"
	"time"

	"github.com/finassist/bridge/internal/config"
	"github.com/finassist/bridge/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNormalizeEvent_Defaults(t *testing.T) {
	ev, ok := NormalizeEvent(map[string]any{
		"dtstart": "2024-01-01",
		"title":   "Rent",
	})
	if !ok {
		t.Fatal("event dropped")
	}
	if ev.Summary != "Rent" {
		t.Errorf("summary = %q", ev.Summary)
	}
	if !ev.Start.Equal(day(2024, 1, 1)) {
		t.Errorf("start = %v", ev.Start)
	}
	// Missing end defaults to start+1 day.
	if !ev.End.Equal(day(2024, 1, 2)) {
		t.Errorf("end = %v, want start+1d", ev.End)
	}
}

func TestNormalizeEvent_InvertedRangeClamped(t *testing.T) {
	ev, ok := NormalizeEvent(map[string]any{
		"start": "2024-03-10",
		"end":   "2024-03-05",
	})
	if !ok {
		t.Fatal("event dropped")
	}
	if !ev.End.Equal(day(2024, 3, 11)) {
		t.Errorf("end = %v, want start+1d", ev.End)
	}
}

func TestNormalizeEvent_AlternativeKeys(t *testing.T) {
	ev, ok := NormalizeEvent(map[string]any{
		"due_date":     "2024-06-15",
		"name":         "Insurance",
		"notes":        "Quarterly premium",
		"account_name": "Checking",
	})
	if !ok {
		t.Fatal("event dropped")
	}
	if ev.Summary != "Insurance" || ev.Description != "Quarterly premium" || ev.Location != "Checking" {
		t.Errorf("event = %+v", ev)
	}
}

func TestNormalizeEvent_NoStartDropped(t *testing.T) {
	if _, ok := NormalizeEvent(map[string]any{"summary": "orphan"}); ok {
		t.Error("record without a start should be dropped")
	}
}

func TestEventsBetween(t *testing.T) {
	snap := &model.Snapshot{
		Calendars: map[string][]map[string]any{
			"9": {
				{"start": "2024-05-20", "summary": "Late"},
				{"start": "2024-05-02", "summary": "Early"},
				{"start": "2024-07-01", "summary": "Outside"},
			},
		},
	}
	c := NewCalendars(&stubSource{snap: snap, ok: true}, config.APIConfig{})

	events := c.EventsBetween("9", day(2024, 5, 1), day(2024, 5, 31))
	if len(events) != 2 {
		t.Fatalf("events = %v, want 2", events)
	}
	// Sorted by start.
	if events[0].Summary != "Early" || events[1].Summary != "Late" {
		t.Errorf("order = %v, %v", events[0].Summary, events[1].Summary)
	}

	if got := c.EventsBetween("missing", day(2024, 5, 1), day(2024, 5, 31)); len(got) != 0 {
		t.Errorf("unknown calendar events = %v", got)
	}
}

func TestEventsBetween_NilSnapshot(t *testing.T) {
	c := NewCalendars(&stubSource{}, config.APIConfig{})
	if got := c.EventsBetween("9", day(2024, 1, 1), day(2024, 12, 31)); len(got) != 0 {
		t.Errorf("events = %v, want none", got)
	}
}

func TestRecurringEvents_Monthly(t *testing.T) {
	rec := map[string]any{
		"id":            "42",
		"frequency":     "monthly",
		"start_date":    "2024-01-31",
		"amount":        99.5,
		"payee_name":    "Gym",
		"category_name": "Fitness",
		"is_active":     true,
	}
	events := RecurringEvents(rec, day(2024, 1, 1), day(2024, 4, 30))
	if len(events) != 4 {
		t.Fatalf("events = %d, want 4", len(events))
	}
	// Day-of-month clamps to shorter months and stays clamped after.
	wantStarts := []time.Time{
		day(2024, 1, 31), day(2024, 2, 29), day(2024, 3, 29), day(2024, 4, 29),
	}
	for i, want := range wantStarts {
		if !events[i].Start.Equal(want) {
			t.Errorf("occurrence %d = %v, want %v", i, events[i].Start, want)
		}
	}
	if events[0].Summary != "Recurring: Gym - Fitness" {
		t.Errorf("summary = %q", events[0].Summary)
	}
}

func TestRecurringEvents_Frequencies(t *testing.T) {
	cases := []struct {
		frequency string
		want      int
	}{
		{"daily", 31}, {"weekly", 5}, {"biweekly", 3},
		{"monthly", 1}, {"quarterly", 1}, {"yearly", 1},
		{"unknown", 2}, // 30-day fallback lands on the 1st and 31st
	}
	for _, c := range cases {
		rec := map[string]any{
			"frequency":  c.frequency,
			"start_date": "2024-05-01",
		}
		events := RecurringEvents(rec, day(2024, 5, 1), day(2024, 5, 31))
		if len(events) != c.want {
			t.Errorf("%s: events = %d, want %d", c.frequency, len(events), c.want)
		}
	}
}

func TestRecurringEvents_InactiveSkipped(t *testing.T) {
	rec := map[string]any{
		"frequency":  "daily",
		"start_date": "2024-05-01",
		"is_active":  false,
	}
	if events := RecurringEvents(rec, day(2024, 5, 1), day(2024, 5, 31)); len(events) != 0 {
		t.Errorf("inactive produced %d events", len(events))
	}
}

func TestRecurringEvents_EndDateRespected(t *testing.T) {
	rec := map[string]any{
		"frequency":  "weekly",
		"start_date": "2024-05-01",
		"end_date":   "2024-05-15",
	}
	events := RecurringEvents(rec, day(2024, 5, 1), day(2024, 6, 30))
	if len(events) != 3 {
		t.Errorf("events = %d, want 3 (1st, 8th, 15th)", len(events))
	}
}

func TestPlannerEvents_MergesSources(t *testing.T) {
	snap := &model.Snapshot{
		Transactions: []map[string]any{
			{"date": "2024-05-10", "name": "Groceries", "amount": 82.13},
		},
		Recurring: []map[string]any{
			{"frequency": "monthly", "start_date": "2024-05-05", "payee_name": "Landlord", "category_name": "Rent"},
		},
		CriticalExpenses: map[string]any{
			"critical_expenses": []any{
				map[string]any{"due_date": "2024-05-20", "name": "Car repair"},
			},
		},
	}
	cfg := config.APIConfig{EnableRecurringEvents: true, EnableCriticalEvents: true}
	c := NewCalendars(&stubSource{snap: snap, ok: true}, cfg)

	events := c.PlannerEvents(day(2024, 5, 1), day(2024, 5, 31))
	if len(events) != 3 {
		t.Fatalf("events = %v, want 3", events)
	}
	if events[0].Summary != "Recurring: Landlord - Rent" {
		t.Errorf("first = %q", events[0].Summary)
	}
	if events[2].Summary != "Critical: Car repair" {
		t.Errorf("last = %q", events[2].Summary)
	}

	// Toggles off: only the plain transaction remains.
	c = NewCalendars(&stubSource{snap: snap, ok: true}, config.APIConfig{})
	events = c.PlannerEvents(day(2024, 5, 1), day(2024, 5, 31))
	if len(events) != 1 || events[0].Summary != "Groceries" {
		t.Errorf("events = %v, want just the transaction", events)
	}
}
