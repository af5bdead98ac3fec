// internal/workers/application/delete-application/config.go
package deleteapplication

import "time"

type Config struct {
	Timeout      time.Duration
	AllowedRoles []string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      15 * time.Second,
		AllowedRoles: []string{"loan-reviewer", "institution-admin"},
	}
}
