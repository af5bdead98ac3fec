// internal/models/assessment.go
package models

// Scoring categories. Each contributes one CriteriaScore to the assessment.
const (
	CategoryFinancialHealth = "Financial Health"
	CategoryFarmAssessment  = "Farm Assessment"
	CategorySustainability  = "Environmental Sustainability"
	CategoryLoanFeasibility = "Loan Feasibility"
)

// CriteriaScore is one category's contribution to the overall assessment.
// Score is always within [0, MaxScore].
type CriteriaScore struct {
	Category string   `json:"category"`
	Score    float64  `json:"score"`
	MaxScore float64  `json:"maxScore"`
	Details  []string `json:"details"`
}

// AssessmentResult carries the four category scores plus the 0-100 total.
// TotalScore = (sum of category scores / 4) * 10.
type AssessmentResult struct {
	Scores     []CriteriaScore `json:"scores"`
	TotalScore float64         `json:"totalScore"`
}
