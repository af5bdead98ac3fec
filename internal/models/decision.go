// internal/models/decision.go
package models

import "time"

// Application lifecycle. PENDING is the only state a decision can be
// committed from; the other three are terminal.
const (
	StatusPending     = "PENDING"
	StatusApproved    = "APPROVED"
	StatusConditional = "CONDITIONAL"
	StatusRejected    = "REJECTED"
)

// ValidDecision reports whether d is one of the committable outcomes.
func ValidDecision(d string) bool {
	return d == StatusApproved || d == StatusConditional || d == StatusRejected
}

// SuggestedRange is the advisory allocation window shown to reviewers,
// in whole currency units. Min <= Max always; an inverted computation is
// an error upstream, never a swapped range.
type SuggestedRange struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// Contains reports whether amount falls inside the range, inclusive.
func (r SuggestedRange) Contains(amount int64) bool {
	return amount >= r.Min && amount <= r.Max
}

// InstitutionDecision is the write-once reviewer verdict on an application.
// AllocatedAmount is nil only for rejections.
type InstitutionDecision struct {
	Decision        string         `json:"decision"`
	SuggestedRange  SuggestedRange `json:"suggestedRange"`
	AllocatedAmount *int64         `json:"allocatedAmount,omitempty"`
	Conditions      []string       `json:"conditions,omitempty"`
	Notes           string         `json:"notes,omitempty"`
	DecidedBy       string         `json:"decidedBy"`
	DecidedAt       time.Time      `json:"decidedAt"`
}

// ApplicationPayload is the JSONB document persisted alongside the
// denormalized columns: the submitted input plus the computed assessment.
type ApplicationPayload struct {
	Input      ApplicationInput `json:"input"`
	Assessment AssessmentResult `json:"assessment"`
}

// ApplicationRecord is a persisted application row.
type ApplicationRecord struct {
	ID              string               `json:"id"`
	FullName        string               `json:"fullName"`
	Email           string               `json:"email"`
	Phone           string               `json:"phone"`
	LoanAmount      float64              `json:"loanAmount"`
	ApplicationDate time.Time            `json:"applicationDate"`
	TotalScore      float64              `json:"totalScore"`
	Status          string               `json:"status"`
	Payload         ApplicationPayload   `json:"payload"`
	Decision        *InstitutionDecision `json:"institutionDecision,omitempty"`
}

// ApplicationSummary is the listing projection (no payload blob).
type ApplicationSummary struct {
	ID              string    `json:"id"`
	FullName        string    `json:"fullName"`
	LoanAmount      float64   `json:"loanAmount"`
	ApplicationDate time.Time `json:"applicationDate"`
	TotalScore      float64   `json:"totalScore"`
	Status          string    `json:"status"`
}
