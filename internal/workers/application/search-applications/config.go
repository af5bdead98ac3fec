// internal/workers/application/search-applications/config.go
package searchapplications

import "time"

type Config struct {
	Timeout time.Duration
	MaxSize int
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 15 * time.Second,
		MaxSize: 200,
	}
}
