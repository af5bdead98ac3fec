// internal/workers/decision/commit-decision/config.go
package commitdecision

import "time"

type Config struct {
	Timeout      time.Duration
	AllowedRoles []string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      20 * time.Second,
		AllowedRoles: []string{"loan-reviewer", "institution-admin"},
	}
}
