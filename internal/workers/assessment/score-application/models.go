// internal/workers/assessment/score-application/models.go
package scoreapplication

import "agriloan-workers/internal/models"

type Input struct {
	Application models.ApplicationInput `json:"application"`
}

type Output struct {
	Assessment models.AssessmentResult `json:"assessment"`
	TotalScore float64                 `json:"totalScore"`
}
