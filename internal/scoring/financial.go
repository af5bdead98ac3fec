// internal/scoring/financial.go
package scoring

import "agriloan-workers/internal/models"

// FinancialScore rates credit standing, debt load and collateral coverage.
// Max 10: credit band up to 3, debt-to-income up to 4, collateral up to 3.
func FinancialScore(financial models.FinancialDetails) models.CriteriaScore {
	score := 0.0
	details := []string{}

	if financial.CreditScore >= 750 {
		score += 3
		details = append(details, "Excellent credit score")
	} else if financial.CreditScore >= 650 {
		score += 2
		details = append(details, "Good credit score")
	} else {
		score += 1
		details = append(details, "Fair credit score")
	}

	// Annualized expenses against revenue. Revenue is validated non-zero
	// upstream.
	dti := (financial.MonthlyExpenses * 12) / financial.AnnualRevenue
	if dti <= 0.3 {
		score += 4
		details = append(details, "Healthy debt-to-income ratio")
	} else if dti <= 0.4 {
		score += 2
		details = append(details, "Moderate debt-to-income ratio")
	} else {
		score += 1
		details = append(details, "High debt-to-income ratio")
	}

	// Floor existing loans at 1 so debt-free applicants don't divide by zero.
	existingLoans := financial.ExistingLoans
	if existingLoans <= 0 {
		existingLoans = 1
	}
	collateralRatio := financial.CollateralValue / existingLoans
	if collateralRatio >= 2 {
		score += 3
		details = append(details, "Strong collateral coverage")
	} else if collateralRatio >= 1.5 {
		score += 2
		details = append(details, "Adequate collateral coverage")
	} else {
		score += 1
		details = append(details, "Limited collateral coverage")
	}

	return models.CriteriaScore{
		Category: models.CategoryFinancialHealth,
		Score:    score,
		MaxScore: maxCriteriaScore,
		Details:  details,
	}
}
