// internal/common/auth/roles.go
package auth

import "fmt"

// Decision is the result of a capability check. Checked once at the
// operation boundary; handlers never re-check downstream.
type Decision struct {
	Authorized bool
	Reason     string
}

// AuthorizeReviewer verifies that the caller holds at least one of the
// configured reviewer roles.
func AuthorizeReviewer(roles, allowed []string) Decision {
	allowedSet := make(map[string]bool, len(allowed))
	for _, r := range allowed {
		allowedSet[r] = true
	}

	for _, r := range roles {
		if allowedSet[r] {
			return Decision{Authorized: true}
		}
	}

	return Decision{
		Authorized: false,
		Reason:     fmt.Sprintf("none of the caller roles %v grant the reviewer capability", roles),
	}
}
