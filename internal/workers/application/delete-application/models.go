// internal/workers/application/delete-application/models.go
package deleteapplication

import "agriloan-workers/internal/models"

type Input struct {
	ApplicationID string       `json:"applicationId"`
	Actor         models.Actor `json:"actor"`
}

type Output struct {
	ApplicationID string `json:"applicationId"`
	Deleted       bool   `json:"deleted"`
	DeletedAt     string `json:"deletedAt"` // ISO 8601
}
