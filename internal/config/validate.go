package config

import (
	"fmt"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "server.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Server.Port),
		})
	}

	validProviders := []string{"openai", "scripted"}
	if cfg.Assistant.Provider != "" && !slices.Contains(validProviders, cfg.Assistant.Provider) {
		issues = append(issues, ValidationIssue{
			Path:    "assistant.provider",
			Message: fmt.Sprintf("must be one of %v, got %q", validProviders, cfg.Assistant.Provider),
		})
	}
	if cfg.Assistant.Provider == "openai" && cfg.Assistant.APIKey == "" {
		issues = append(issues, ValidationIssue{
			Path:    "assistant.apiKey",
			Message: "required when assistant.provider is openai",
		})
	}

	validBackends := []string{"weaviate", "builtin"}
	if cfg.Knowledge.Backend != "" && !slices.Contains(validBackends, cfg.Knowledge.Backend) {
		issues = append(issues, ValidationIssue{
			Path:    "knowledge.backend",
			Message: fmt.Sprintf("must be one of %v, got %q", validBackends, cfg.Knowledge.Backend),
		})
	}
	if cfg.Knowledge.Backend == "weaviate" && cfg.Knowledge.URL == "" {
		issues = append(issues, ValidationIssue{
			Path:    "knowledge.url",
			Message: "required when knowledge.backend is weaviate",
		})
	}

	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	validStyles := []string{"pretty", "json"}
	if cfg.Logging.Style != "" && !slices.Contains(validStyles, cfg.Logging.Style) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.style",
			Message: fmt.Sprintf("must be one of %v, got %q", validStyles, cfg.Logging.Style),
		})
	}

	// Alert delivery needs a relay once any recipient routing exists.
	if cfg.Alerts.SMTP.Host != "" && cfg.Alerts.SMTP.From == "" {
		issues = append(issues, ValidationIssue{
			Path:    "alerts.smtp.from",
			Message: "required when alerts.smtp.host is set",
		})
	}
	if cfg.Alerts.Inbox.Host != "" {
		if cfg.Alerts.Inbox.Username == "" {
			issues = append(issues, ValidationIssue{
				Path:    "alerts.inbox.username",
				Message: "required when alerts.inbox.host is set",
			})
		}
		if cfg.Alerts.Inbox.Port < 0 || cfg.Alerts.Inbox.Port > 65535 {
			issues = append(issues, ValidationIssue{
				Path:    "alerts.inbox.port",
				Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Alerts.Inbox.Port),
			})
		}
	}

	return issues
}
