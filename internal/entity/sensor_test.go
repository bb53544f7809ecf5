package entity

import (
	"testing"
	"time"

	"github.com/finassist/bridge/internal/model"
)

// stubSource serves a fixed snapshot.
type stubSource struct {
	snap *model.Snapshot
	ok   bool
}

func (s *stubSource) Snapshot() *model.Snapshot { return s.snap }

func (s *stubSource) LastSuccess() (time.Time, bool) {
	if !s.ok {
		return time.Time{}, false
	}
	return time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC), true
}

func TestSensors_NilSnapshot(t *testing.T) {
	s := NewSensors(&stubSource{})
	if s.Available() {
		t.Error("available before first refresh")
	}
	if views := s.All(); len(views) != 0 {
		t.Errorf("views = %v, want none", views)
	}
	if _, ok := s.Get("anything"); ok {
		t.Error("Get should miss on nil snapshot")
	}
}

func TestSensors_QueryProjection(t *testing.T) {
	snap := &model.Snapshot{
		Queries: []model.Query{
			{ID: "7", Name: "Checking", OutputType: model.OutputSensor, HAUnitOfMeasurement: "$"},
			{ID: "8", Name: "Bills", OutputType: model.OutputCalendar},
		},
		Sensors: map[string]any{
			"7": map[string]any{"value": "$1,234.56"},
		},
	}
	s := NewSensors(&stubSource{snap: snap, ok: true})

	views := s.All()
	if len(views) != 1 {
		t.Fatalf("views = %v, want one sensor query view", views)
	}
	v := views[0]
	if v.EntityID != "finance_assistant_7" {
		t.Errorf("entity id = %q", v.EntityID)
	}
	if v.State != 1234.56 {
		t.Errorf("state = %v, want 1234.56", v.State)
	}
	if v.Unit != "$" || !v.Available {
		t.Errorf("view = %+v", v)
	}
}

func TestSensors_MissingPayloadDegradesToZero(t *testing.T) {
	snap := &model.Snapshot{
		Queries: []model.Query{{ID: "7", Name: "Checking", OutputType: model.OutputSensor}},
		Sensors: map[string]any{},
	}
	s := NewSensors(&stubSource{snap: snap, ok: true})

	v, ok := s.Get("finance_assistant_7")
	if !ok {
		t.Fatal("view missing")
	}
	if v.State != 0 {
		t.Errorf("state = %v, want 0", v.State)
	}
}

func TestSensors_DerivedViews(t *testing.T) {
	health := model.FinancialHealth{OverallScore: 72.5, RiskLevel: model.RiskModerate}
	risk := model.RiskAssessment{OverallRiskScore: 45}
	snap := &model.Snapshot{
		AccountSummary: map[string]any{"total_balance": 9000.0},
		CashFlowForecast: map[string]any{
			"next_30_days": map[string]any{"net": -250.0},
		},
		FinancialHealth: &health,
		RiskAssessment:  &risk,
	}
	s := NewSensors(&stubSource{snap: snap, ok: true})

	expect := map[string]float64{
		"finance_assistant_total_balance":     9000,
		"finance_assistant_net_cash_flow_30d": -250,
		"finance_assistant_health_score":      72.5,
		"finance_assistant_risk_score":        45,
	}
	for id, want := range expect {
		v, ok := s.Get(id)
		if !ok {
			t.Errorf("missing derived view %s", id)
			continue
		}
		if v.State != want {
			t.Errorf("%s state = %v, want %v", id, v.State, want)
		}
	}

	// Absent aggregates produce no view.
	if _, ok := s.Get("finance_assistant_savings_rate"); ok {
		t.Error("savings rate view should be absent")
	}
}

func TestSensors_CustomEntityIDWins(t *testing.T) {
	snap := &model.Snapshot{
		Queries: []model.Query{
			{ID: "7", Name: "Checking", OutputType: model.OutputSensor, HAEntityID: "sensor.checking"},
		},
	}
	s := NewSensors(&stubSource{snap: snap, ok: true})
	if _, ok := s.Get("sensor.checking"); !ok {
		t.Error("ha_entity_id override ignored")
	}
}
