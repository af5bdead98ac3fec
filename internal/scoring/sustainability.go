// internal/scoring/sustainability.go
package scoring

import "agriloan-workers/internal/models"

// SustainabilityScore rates declared practices (out of 6) and environmental
// certifications (out of 3), each worth half the category. Declaring more
// than the nominal counts is allowed; the total is clamped to 10.
func SustainabilityScore(practices, certifications []string) models.CriteriaScore {
	score := 0.0
	details := []string{}

	practiceScore := float64(len(practices)) / 6 * 5
	score += practiceScore
	if practiceScore >= 4 {
		details = append(details, "Excellent sustainable practices")
	} else if practiceScore >= 2 {
		details = append(details, "Good sustainable practices")
	} else {
		details = append(details, "Limited sustainable practices")
	}

	certScore := float64(len(certifications)) / 3 * 5
	score += certScore
	if certScore >= 4 {
		details = append(details, "Multiple environmental certifications")
	} else if certScore >= 2 {
		details = append(details, "Some environmental certifications")
	} else {
		details = append(details, "Few environmental certifications")
	}

	return models.CriteriaScore{
		Category: models.CategorySustainability,
		Score:    clamp(score, 0, maxCriteriaScore),
		MaxScore: maxCriteriaScore,
		Details:  details,
	}
}
