// Package analysis derives composite financial metrics from a snapshot.
// Everything here is pure and deterministic: same snapshot in, same scores
// out, no I/O. A failure during computation never propagates; callers get a
// zeroed "unknown" structure instead.
package analysis

import (
	"time"

	"github.com/finassist/bridge/internal/convert"
	"github.com/finassist/bridge/internal/model"
)

// Component weights of the overall health score. Fixed constants; they sum
// to 1.0.
const (
	weightBalance   = 0.25
	weightCashFlow  = 0.30
	weightExpense   = 0.25
	weightRecurring = 0.20
)

// Alert thresholds.
const (
	criticalExpenseAlertLimit = 5000
	netCashFlowAlertLimit     = -2000
	savingsRateAlertLimit     = 10
)

// Fixed recommendation messages, one per weak component score.
const (
	recBalance   = "Build an emergency fund to strengthen your account balances"
	recCashFlow  = "Review upcoming expenses to improve your 30-day cash flow"
	recExpense   = "Increase your savings rate by cutting discretionary spending"
	recRecurring = "Reduce recurring obligations to free up monthly income"
	recHealthy   = "Financial health looks good - keep up the current habits"
)

// ComputeFinancialHealth derives the financial-health entity from a merged
// snapshot. Recomputed wholly on every refresh cycle.
func ComputeFinancialHealth(s *model.Snapshot) (health model.FinancialHealth) {
	defer func() {
		if r := recover(); r != nil {
			health = fallbackHealth()
		}
	}()

	if s == nil {
		return fallbackHealth()
	}

	totalBalance, _ := convert.NestedFloat(s.AccountSummary, "total_balance")
	net30, _ := convert.NestedFloat(s.CashFlowForecast, "next_30_days", "net")
	savingsRate, _ := convert.NestedFloat(s.FinancialSummary, "current_month", "savings_rate")
	obligationRatio, _ := convert.NestedFloat(s.RecurringSummary, "obligation_ratio")

	health = model.FinancialHealth{
		BalanceScore:   balanceScore(totalBalance),
		CashFlowScore:  cashFlowScore(net30),
		ExpenseScore:   expenseScore(savingsRate),
		RecurringScore: recurringScore(obligationRatio),
		Trends:         model.StableTrends(),
		GeneratedAt:    time.Now().UTC(),
	}
	health.OverallScore = weightBalance*health.BalanceScore +
		weightCashFlow*health.CashFlowScore +
		weightExpense*health.ExpenseScore +
		weightRecurring*health.RecurringScore
	health.RiskLevel = riskLevel(health.OverallScore)
	health.Recommendations = recommendations(health)
	health.Alerts = alerts(s, net30, savingsRate)
	return health
}

func balanceScore(totalBalance float64) float64 {
	switch {
	case totalBalance <= 0:
		return 0
	case totalBalance < 1000:
		return 25
	case totalBalance < 5000:
		return 50
	case totalBalance < 10000:
		return 75
	default:
		return 100
	}
}

func cashFlowScore(net30 float64) float64 {
	switch {
	case net30 >= 0:
		return 100
	case net30 > -1000:
		return 75
	case net30 > -2500:
		return 50
	case net30 > -5000:
		return 25
	default:
		return 0
	}
}

func expenseScore(savingsRate float64) float64 {
	switch {
	case savingsRate >= 20:
		return 100
	case savingsRate >= 15:
		return 80
	case savingsRate >= 10:
		return 60
	case savingsRate >= 5:
		return 40
	case savingsRate >= 0:
		return 20
	default:
		return 0
	}
}

func recurringScore(obligationRatio float64) float64 {
	switch {
	case obligationRatio <= 30:
		return 100
	case obligationRatio <= 40:
		return 80
	case obligationRatio <= 50:
		return 60
	case obligationRatio <= 60:
		return 40
	case obligationRatio <= 70:
		return 20
	default:
		return 0
	}
}

func riskLevel(overall float64) model.RiskLevel {
	switch {
	case overall >= 80:
		return model.RiskLow
	case overall >= 60:
		return model.RiskModerate
	case overall >= 40:
		return model.RiskHigh
	case overall >= 20:
		return model.RiskVeryHigh
	default:
		return model.RiskCritical
	}
}

func recommendations(h model.FinancialHealth) []string {
	var recs []string
	if h.BalanceScore < 50 {
		recs = append(recs, recBalance)
	}
	if h.CashFlowScore < 50 {
		recs = append(recs, recCashFlow)
	}
	if h.ExpenseScore < 50 {
		recs = append(recs, recExpense)
	}
	if h.RecurringScore < 50 {
		recs = append(recs, recRecurring)
	}
	if len(recs) == 0 {
		recs = append(recs, recHealthy)
	}
	return recs
}

func alerts(s *model.Snapshot, net30, savingsRate float64) []string {
	alerts := []string{}
	criticalTotal, _ := convert.NestedFloat(s.CriticalExpenses, "total_critical_amount")
	if criticalTotal > criticalExpenseAlertLimit {
		alerts = append(alerts, "Critical expenses exceed $5,000 in the upcoming period")
	}
	if net30 < netCashFlowAlertLimit {
		alerts = append(alerts, "Projected 30-day cash flow is below -$2,000")
	}
	if savingsRate < savingsRateAlertLimit {
		alerts = append(alerts, "Savings rate has dropped below 10%")
	}
	return alerts
}

func fallbackHealth() model.FinancialHealth {
	return model.FinancialHealth{
		RiskLevel:       model.RiskUnknown,
		Recommendations: []string{},
		Alerts:          []string{},
		Trends:          model.StableTrends(),
		GeneratedAt:     time.Now().UTC(),
	}
}
