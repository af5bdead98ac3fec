// internal/workers/application/create-application-record/config.go
package createapplicationrecord

import "time"

type Config struct {
	Timeout      time.Duration
	IndexEnabled bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      30 * time.Second,
		IndexEnabled: true,
	}
}
