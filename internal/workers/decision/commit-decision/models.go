// internal/workers/decision/commit-decision/models.go
package commitdecision

import "agriloan-workers/internal/models"

// Input is the reviewer's verdict. AcknowledgeOutOfRange must be set when
// the allocated amount falls outside the suggested range; the amount is
// honored as given, never clamped.
type Input struct {
	ApplicationID         string       `json:"applicationId"`
	Actor                 models.Actor `json:"actor"`
	Decision              string       `json:"decision"`
	AllocatedAmount       *int64       `json:"allocatedAmount,omitempty"`
	Conditions            []string     `json:"conditions,omitempty"`
	Notes                 string       `json:"notes,omitempty"`
	AcknowledgeOutOfRange bool         `json:"acknowledgeOutOfRange,omitempty"`
}

type Output struct {
	ApplicationID string                     `json:"applicationId"`
	Status        string                     `json:"status"`
	Decision      models.InstitutionDecision `json:"institutionDecision"`
	DecidedAt     string                     `json:"decidedAt"` // ISO 8601
}
