// internal/workers/application/search-applications/models.go
package searchapplications

import (
	"agriloan-workers/internal/models"
	"agriloan-workers/internal/search"
)

type Input struct {
	Filter search.Filter `json:"filter"`
}

type Output struct {
	Applications []models.ApplicationSummary `json:"applications"`
	TotalHits    int64                       `json:"totalHits"`
	Took         int                         `json:"took"`
}
