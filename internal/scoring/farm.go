// internal/scoring/farm.go
package scoring

import "agriloan-workers/internal/models"

// FarmScore rates the operation itself: size, experience, infrastructure.
// Base bands can sum to 5, bonuses to another 5; the total is clamped to 10
// so the category never exceeds its stated maximum.
func FarmScore(farm models.FarmDetails) models.CriteriaScore {
	score := 0.0
	details := []string{}

	if farm.FarmSizeHectares >= 100 {
		score += 2
		details = append(details, "Large farm size")
	} else if farm.FarmSizeHectares >= 50 {
		score += 1.5
		details = append(details, "Medium farm size")
	} else {
		score += 1
		details = append(details, "Small farm size")
	}

	if farm.ExperienceYears >= 10 {
		score += 3
		details = append(details, "Extensive farming experience")
	} else if farm.ExperienceYears >= 5 {
		score += 2
		details = append(details, "Moderate farming experience")
	} else {
		score += 1
		details = append(details, "Limited farming experience")
	}

	if farm.IrrigationSystem == "modern" {
		score += 2
		details = append(details, "Modern irrigation system")
	}
	if len(farm.EquipmentOwned) >= 5 {
		score += 2
		details = append(details, "Well-equipped farm")
	}
	if len(farm.Certifications) >= 2 {
		score += 1
		details = append(details, "Certified farming practices")
	}

	return models.CriteriaScore{
		Category: models.CategoryFarmAssessment,
		Score:    clamp(score, 0, maxCriteriaScore),
		MaxScore: maxCriteriaScore,
		Details:  details,
	}
}
