// internal/decision/calculator.go
package decision

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"agriloan-workers/internal/models"
)

var ErrInvalidRange = errors.New("INVALID_RANGE")

// Categories scoring below this share of their maximum get a seeded
// improvement condition.
const conditionThreshold = 0.7

// SuggestedRange derives the advisory allocation window from the requested
// amount, the applicant's revenue and the 0-100 assessment total.
//
// The lower bound scales the request by the score, floored at 40%. The upper
// bound is the smallest of the request itself, 80% of annual revenue, and the
// score-scaled request capped at 120%. Bounds are rounded to whole currency
// units. An inverted window (low score against thin revenue) is returned as
// ErrInvalidRange, never silently swapped.
func SuggestedRange(loanAmount, annualRevenue, totalScore float64) (models.SuggestedRange, error) {
	minFactor := math.Max(0.4, totalScore/100-0.2)
	maxFactor := math.Min(1.2, totalScore/100+0.2)

	low := math.Round(loanAmount * minFactor)
	high := math.Round(math.Min(loanAmount, math.Min(annualRevenue*0.8, loanAmount*maxFactor)))

	if low > high {
		return models.SuggestedRange{}, fmt.Errorf("%w: min %.0f exceeds max %.0f", ErrInvalidRange, low, high)
	}

	return models.SuggestedRange{Min: int64(low), Max: int64(high)}, nil
}

// DefaultConditions seeds the reviewer's condition list: one line per weak
// category, carrying that category's detail findings. Reviewers edit freely;
// nothing here is binding until committed.
func DefaultConditions(scores []models.CriteriaScore) []string {
	conditions := []string{}
	for _, s := range scores {
		if s.Score < conditionThreshold*s.MaxScore {
			conditions = append(conditions, fmt.Sprintf("Improve %s: %s", s.Category, strings.Join(s.Details, ", ")))
		}
	}
	return conditions
}
