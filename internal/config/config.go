// Package config loads and validates the Haven configuration file.
package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 8470,
			Bind: "127.0.0.1",
		},
		Assistant: AssistantConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Temperature: 0.2,
		},
		Knowledge: KnowledgeConfig{
			Backend:   "builtin",
			ClassName: "MentalHealthResource",
		},
		Database: DatabaseConfig{
			Path: "haven.db",
		},
		Logging: LoggingConfig{
			Level: "info",
			Style: "pretty",
		},
		Alerts: AlertsConfig{
			SMTP: SMTPConfig{Port: 587},
			Inbox: InboxConfig{
				Mailbox:          "INBOX",
				PollIntervalSecs: 30,
			},
		},
	}
}
