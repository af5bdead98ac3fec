// internal/workers/application/create-application-record/models.go
package createapplicationrecord

import "agriloan-workers/internal/models"

type Input struct {
	Application models.ApplicationInput `json:"application"`
	Assessment  models.AssessmentResult `json:"assessment"`
}

type Output struct {
	ApplicationID   string  `json:"applicationId"`
	Status          string  `json:"status"`
	TotalScore      float64 `json:"totalScore"`
	ApplicationDate string  `json:"applicationDate"` // ISO 8601
}
