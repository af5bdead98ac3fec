// internal/scoring/feasibility.go
package scoring

import "agriloan-workers/internal/models"

// Purposes that grow the operation's earning capacity score higher than
// consumptive ones.
var growthPurposes = map[string]bool{
	"equipment":      true,
	"infrastructure": true,
	"expansion":      true,
}

// LoanFeasibilityScore rates the requested loan against the applicant's
// revenue, purpose and term. Max 10: ratio up to 4, purpose 3, term up to 3.
func LoanFeasibilityScore(loan models.LoanDetails, financial models.FinancialDetails) models.CriteriaScore {
	score := 0.0
	details := []string{}

	ratio := loan.LoanAmount / financial.AnnualRevenue
	if ratio <= 1 {
		score += 4
		details = append(details, "Conservative loan amount")
	} else if ratio <= 2 {
		score += 2
		details = append(details, "Moderate loan amount")
	} else {
		score += 1
		details = append(details, "High loan amount")
	}

	if growthPurposes[loan.LoanPurpose] {
		score += 3
		details = append(details, "Growth-oriented loan purpose")
	}

	if loan.LoanTermMonths <= 36 {
		score += 3
		details = append(details, "Short-term loan")
	} else if loan.LoanTermMonths <= 60 {
		score += 2
		details = append(details, "Medium-term loan")
	} else {
		score += 1
		details = append(details, "Long-term loan")
	}

	return models.CriteriaScore{
		Category: models.CategoryLoanFeasibility,
		Score:    score,
		MaxScore: maxCriteriaScore,
		Details:  details,
	}
}
