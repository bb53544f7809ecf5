package model

import "time"

// Snapshot is one immutable, fully-assembled result of a refresh cycle.
// The coordinator builds a fresh Snapshot every cycle and swaps it in
// atomically; readers never observe partial state. All fields tolerate
// absence - a degraded upstream endpoint leaves its field empty.
type Snapshot struct {
	Queries          []Query                     `json:"queries"`
	Sensors          map[string]any              `json:"sensors"`
	Calendars        map[string][]map[string]any `json:"calendars"`
	Dashboard        map[string]any              `json:"dashboard"`
	CashFlowForecast map[string]any              `json:"cash_flow_forecast"`
	FinancialSummary map[string]any              `json:"financial_summary"`
	CriticalExpenses map[string]any              `json:"critical_expenses"`
	RecurringSummary map[string]any              `json:"recurring_summary"`
	AccountSummary   map[string]any              `json:"account_summary"`
	Transactions     []map[string]any            `json:"enhanced_transactions"`
	Recurring        []map[string]any            `json:"recurring_transactions"`
	FinancialHealth  *FinancialHealth            `json:"financial_health,omitempty"`
	RiskAssessment   *RiskAssessment             `json:"risk_assessment,omitempty"`
	LastUpdated      time.Time                   `json:"last_updated"`
}

// SensorQueries returns the catalog entries that feed sensor entities.
func (s *Snapshot) SensorQueries() []Query {
	return s.queriesOf(OutputSensor)
}

// CalendarQueries returns the catalog entries that feed calendar entities.
func (s *Snapshot) CalendarQueries() []Query {
	return s.queriesOf(OutputCalendar)
}

func (s *Snapshot) queriesOf(t OutputType) []Query {
	var out []Query
	for _, q := range s.Queries {
		if q.OutputType == t {
			out = append(out, q)
		}
	}
	return out
}
