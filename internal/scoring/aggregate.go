// internal/scoring/aggregate.go
package scoring

import "agriloan-workers/internal/models"

// Every category is scored out of the same maximum.
const maxCriteriaScore = 10.0

// Assess runs all four criteria scorers over a validated application and
// aggregates them into the 0-100 total. Same input, same result; scoring
// never decides.
func Assess(input models.ApplicationInput) models.AssessmentResult {
	scores := []models.CriteriaScore{
		FinancialScore(input.Financial),
		FarmScore(input.Farm),
		SustainabilityScore(input.Loan.SustainabilityPractices, input.Farm.Certifications),
		LoanFeasibilityScore(input.Loan, input.Financial),
	}

	return models.AssessmentResult{
		Scores:     scores,
		TotalScore: TotalScore(scores),
	}
}

// TotalScore converts category scores to a percentage: the mean category
// score scaled by 10 (each category is out of 10, so a perfect board is 100).
func TotalScore(scores []models.CriteriaScore) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range scores {
		sum += s.Score
	}
	return sum / float64(len(scores)) * 10
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
