package model

import "time"

// RiskLevel buckets an overall health score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskVeryHigh RiskLevel = "very_high"
	RiskCritical RiskLevel = "critical"
	RiskUnknown  RiskLevel = "unknown"
)

// Trends is a placeholder block; historical trend computation is out of
// scope, so every cycle reports "stable".
type Trends struct {
	CashFlow string `json:"cash_flow_trend"`
	Expense  string `json:"expense_trend"`
	Savings  string `json:"savings_trend"`
}

// StableTrends returns the fixed placeholder trend block.
func StableTrends() Trends {
	return Trends{CashFlow: "stable", Expense: "stable", Savings: "stable"}
}

// FinancialHealth is the derived health entity, recomputed wholly on every
// refresh cycle. Component scores are in [0,100].
type FinancialHealth struct {
	BalanceScore    float64   `json:"balance_score"`
	CashFlowScore   float64   `json:"cash_flow_score"`
	ExpenseScore    float64   `json:"expense_score"`
	RecurringScore  float64   `json:"recurring_score"`
	OverallScore    float64   `json:"overall_score"`
	RiskLevel       RiskLevel `json:"risk_level"`
	Recommendations []string  `json:"recommendations"`
	Alerts          []string  `json:"alerts"`
	Trends          Trends    `json:"trends"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// RiskFactor describes one identified financial risk.
type RiskFactor struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Impact      string `json:"impact"`
}

// RiskAssessment is the derived risk entity, recomputed wholly on every
// refresh cycle.
type RiskAssessment struct {
	OverallRiskScore     float64      `json:"overall_risk_score"`
	RiskFactors          []RiskFactor `json:"risk_factors"`
	HighRiskItems        []string     `json:"high_risk_items"`
	MediumRiskItems      []string     `json:"medium_risk_items"`
	MitigationStrategies []string     `json:"mitigation_strategies"`
	GeneratedAt          time.Time    `json:"generated_at"`
}
