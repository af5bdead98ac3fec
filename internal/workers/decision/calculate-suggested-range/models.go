// internal/workers/decision/calculate-suggested-range/models.go
package calculatesuggestedrange

import "agriloan-workers/internal/models"

type Input struct {
	ApplicationID string `json:"applicationId"`
}

type Output struct {
	ApplicationID  string                `json:"applicationId"`
	SuggestedRange models.SuggestedRange `json:"suggestedRange"`
	Conditions     []string              `json:"conditions"`
	TotalScore     float64               `json:"totalScore"`
	FromCache      bool                  `json:"fromCache"`
}
