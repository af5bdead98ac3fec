// internal/workers/decision/send-decision-notification/config.go
package senddecisionnotification

import "time"

type Config struct {
	Timeout      time.Duration
	AWSRegion    string
	FromEmail    string
	EmailEnabled bool
	SMSEnabled   bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      30 * time.Second,
		AWSRegion:    "eu-west-1",
		FromEmail:    "no-reply@agriloan.example.com",
		EmailEnabled: true,
		SMSEnabled:   false,
	}
}
