// internal/workers/assessment/validate-application/models.go
package validateapplication

import (
	"regexp"

	"agriloan-workers/internal/models"
)

type Input struct {
	Application models.ApplicationInput `json:"application"`
}

type Output struct {
	IsValid          bool                     `json:"isValid"`
	Application      *models.ApplicationInput `json:"application,omitempty"`
	ValidationErrors []ValidationError        `json:"validationErrors"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	// E.164: optional +, first digit 1-9, 7-15 digits total.
	phoneRegex = regexp.MustCompile(`^[\+]?[1-9][\d]{6,14}$`)
	nameRegex  = regexp.MustCompile(`^[\p{L}\s\-\']{2,100}$`)
)
