// internal/workers/application/query-applications/models.go
package queryapplications

import "agriloan-workers/internal/models"

// Input selects one of two lookups: a primary fetch by id when
// applicationId is set, otherwise a listing with optional status filter.
type Input struct {
	ApplicationID string `json:"applicationId,omitempty"`
	Status        string `json:"status,omitempty"`
	Limit         int    `json:"limit,omitempty"`
}

type Output struct {
	Application  *models.ApplicationRecord   `json:"application,omitempty"`
	Applications []models.ApplicationSummary `json:"applications,omitempty"`
	Count        int                         `json:"count"`
}
