// Package entity projects read-only sensor and calendar views out of the
// coordinator's published snapshot. Adapters never mutate the snapshot and
// tolerate its complete absence before the first refresh.
package entity

import (
	"time"

	"github.com/finassist/bridge/internal/convert"
	"github.com/finassist/bridge/internal/model"
)

// SnapshotSource is the read contract adapters consume. The coordinator
// satisfies it.
type SnapshotSource interface {
	Snapshot() *model.Snapshot
	LastSuccess() (time.Time, bool)
}

// SensorView is one projected sensor state.
type SensorView struct {
	EntityID  string  `json:"entity_id"`
	Name      string  `json:"name"`
	Unit      string  `json:"unit,omitempty"`
	State     float64 `json:"state"`
	Raw       any     `json:"raw,omitempty"`
	Available bool    `json:"available"`
}

// Sensors projects per-query payloads and derived metrics as sensor states.
type Sensors struct {
	src SnapshotSource
}

func NewSensors(src SnapshotSource) *Sensors {
	return &Sensors{src: src}
}

// Available reports whether at least one refresh has succeeded.
func (s *Sensors) Available() bool {
	_, ok := s.src.LastSuccess()
	return ok
}

// All returns every sensor view: one per catalog query plus the derived
// metric sensors. Nil snapshot yields an empty slice.
func (s *Sensors) All() []SensorView {
	snap := s.src.Snapshot()
	if snap == nil {
		return []SensorView{}
	}
	avail := s.Available()

	views := make([]SensorView, 0, len(snap.Queries)+8)
	for _, q := range snap.SensorQueries() {
		views = append(views, s.queryView(snap, q, avail))
	}
	views = append(views, s.derivedViews(snap, avail)...)
	return views
}

// Get returns the view for one sensor entity id.
func (s *Sensors) Get(entityID string) (SensorView, bool) {
	for _, v := range s.All() {
		if v.EntityID == entityID {
			return v, true
		}
	}
	return SensorView{}, false
}

func (s *Sensors) queryView(snap *model.Snapshot, q model.Query, avail bool) SensorView {
	raw := snap.Sensors[q.ID.String()]
	return SensorView{
		EntityID:  q.EntityID(),
		Name:      q.FriendlyName(),
		Unit:      q.HAUnitOfMeasurement,
		State:     convert.ToFloat(raw),
		Raw:       raw,
		Available: avail,
	}
}

// derivedViews surfaces the enhanced aggregates and computed scores.
func (s *Sensors) derivedViews(snap *model.Snapshot, avail bool) []SensorView {
	var views []SensorView
	add := func(id, name, unit string, state float64) {
		views = append(views, SensorView{
			EntityID:  id,
			Name:      name,
			Unit:      unit,
			State:     state,
			Available: avail,
		})
	}

	if len(snap.AccountSummary) > 0 {
		balance, _ := convert.NestedFloat(snap.AccountSummary, "total_balance")
		add("finance_assistant_total_balance", "Total Balance", "$", balance)
	}
	if len(snap.CashFlowForecast) > 0 {
		net, _ := convert.NestedFloat(snap.CashFlowForecast, "next_30_days", "net")
		add("finance_assistant_net_cash_flow_30d", "30-Day Net Cash Flow", "$", net)
	}
	if len(snap.FinancialSummary) > 0 {
		rate, _ := convert.NestedFloat(snap.FinancialSummary, "current_month", "savings_rate")
		add("finance_assistant_savings_rate", "Savings Rate", "%", rate)
	}
	if len(snap.CriticalExpenses) > 0 {
		total, _ := convert.NestedFloat(snap.CriticalExpenses, "total_critical_amount")
		add("finance_assistant_critical_expenses", "Critical Expenses", "$", total)
	}
	if len(snap.RecurringSummary) > 0 {
		ratio, _ := convert.NestedFloat(snap.RecurringSummary, "obligation_ratio")
		add("finance_assistant_obligation_ratio", "Obligation Ratio", "%", ratio)
	}
	if snap.FinancialHealth != nil {
		add("finance_assistant_health_score", "Financial Health Score", "", snap.FinancialHealth.OverallScore)
	}
	if snap.RiskAssessment != nil {
		add("finance_assistant_risk_score", "Financial Risk Score", "", snap.RiskAssessment.OverallRiskScore)
	}
	return views
}
