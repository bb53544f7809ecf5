package analysis

import (
	"time"

	"github.com/finassist/bridge/internal/convert"
	"github.com/finassist/bridge/internal/model"
)

// Risk scoring: each high-severity item adds 30 points, each medium 15,
// capped at 100.
const (
	highRiskWeight      = 30
	mediumRiskWeight    = 15
	maxRiskScore        = 100
	obligationRiskLimit = 60
	savingsRiskLimit    = 10
)

const (
	mitigationHigh    = "Prioritize reducing recurring obligations and defer discretionary spending"
	mitigationMedium  = "Set up automatic transfers to savings to stabilize your savings rate"
	mitigationHealthy = "No mitigation needed - risk profile is healthy"
)

// ComputeRiskAssessment derives the risk entity from a merged snapshot.
// Pure and fail-safe: an internal panic yields a zeroed fallback.
func ComputeRiskAssessment(s *model.Snapshot) (assessment model.RiskAssessment) {
	defer func() {
		if r := recover(); r != nil {
			assessment = fallbackRisk()
		}
	}()

	if s == nil {
		return fallbackRisk()
	}

	assessment = model.RiskAssessment{
		RiskFactors:     []model.RiskFactor{},
		HighRiskItems:   []string{},
		MediumRiskItems: []string{},
		GeneratedAt:     time.Now().UTC(),
	}

	net30, _ := convert.NestedFloat(s.CashFlowForecast, "next_30_days", "net")
	if net30 < 0 {
		assessment.RiskFactors = append(assessment.RiskFactors, model.RiskFactor{
			Category:    "cash_flow",
			Description: "Projected 30-day cash flow is negative",
			Severity:    "high",
			Impact:      "Upcoming expenses may not be covered without drawing down savings",
		})
		assessment.HighRiskItems = append(assessment.HighRiskItems, "Negative 30-day cash flow")
	}

	savingsRate, _ := convert.NestedFloat(s.FinancialSummary, "current_month", "savings_rate")
	if savingsRate < savingsRiskLimit {
		assessment.RiskFactors = append(assessment.RiskFactors, model.RiskFactor{
			Category:    "savings",
			Description: "Monthly savings rate is below 10%",
			Severity:    "medium",
			Impact:      "Reduced buffer against unexpected expenses",
		})
		assessment.MediumRiskItems = append(assessment.MediumRiskItems, "Low savings rate")
	}

	obligationRatio, _ := convert.NestedFloat(s.RecurringSummary, "obligation_ratio")
	if obligationRatio > obligationRiskLimit {
		assessment.RiskFactors = append(assessment.RiskFactors, model.RiskFactor{
			Category:    "recurring",
			Description: "Recurring obligations exceed 60% of income",
			Severity:    "high",
			Impact:      "Little room to absorb income disruption",
		})
		assessment.HighRiskItems = append(assessment.HighRiskItems, "High obligation ratio")
	}

	score := float64(highRiskWeight*len(assessment.HighRiskItems) +
		mediumRiskWeight*len(assessment.MediumRiskItems))
	if score > maxRiskScore {
		score = maxRiskScore
	}
	assessment.OverallRiskScore = score
	assessment.MitigationStrategies = mitigations(assessment)
	return assessment
}

func mitigations(a model.RiskAssessment) []string {
	var out []string
	if len(a.HighRiskItems) > 0 {
		out = append(out, mitigationHigh)
	}
	if len(a.MediumRiskItems) > 0 {
		out = append(out, mitigationMedium)
	}
	if len(out) == 0 {
		out = append(out, mitigationHealthy)
	}
	return out
}

func fallbackRisk() model.RiskAssessment {
	return model.RiskAssessment{
		RiskFactors:          []model.RiskFactor{},
		HighRiskItems:        []string{},
		MediumRiskItems:      []string{},
		MitigationStrategies: []string{},
		GeneratedAt:          time.Now().UTC(),
	}
}
