package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields processes environment variable references in
// credential fields so secrets can be stored as ${ENV_VAR}.
func expandSensitiveFields(cfg *Config) {
	cfg.Server.Token = expandEnvVars(cfg.Server.Token)
	cfg.Assistant.APIKey = expandEnvVars(cfg.Assistant.APIKey)
	cfg.Alerts.SMTP.Password = expandEnvVars(cfg.Alerts.SMTP.Password)
	cfg.Alerts.Inbox.Password = expandEnvVars(cfg.Alerts.Inbox.Password)
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	expandSensitiveFields(&cfg)
	return cfg, nil
}

// applyDefaults fills zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8470
	}
	if cfg.Server.Bind == "" {
		cfg.Server.Bind = "127.0.0.1"
	}
	if cfg.Assistant.Provider == "" {
		cfg.Assistant.Provider = "openai"
	}
	if cfg.Assistant.Model == "" {
		cfg.Assistant.Model = "gpt-4o-mini"
	}
	if cfg.Assistant.Temperature == 0 {
		cfg.Assistant.Temperature = 0.2
	}
	if cfg.Knowledge.Backend == "" {
		cfg.Knowledge.Backend = "builtin"
	}
	if cfg.Knowledge.ClassName == "" {
		cfg.Knowledge.ClassName = "MentalHealthResource"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "haven.db"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Style == "" {
		cfg.Logging.Style = "pretty"
	}
	if cfg.Alerts.SMTP.Port == 0 {
		cfg.Alerts.SMTP.Port = 587
	}
	if cfg.Alerts.Inbox.Mailbox == "" {
		cfg.Alerts.Inbox.Mailbox = "INBOX"
	}
	if cfg.Alerts.Inbox.PollIntervalSecs == 0 {
		cfg.Alerts.Inbox.PollIntervalSecs = 30
	}
}

// applyEnvOverrides reads HAVEN_* environment variables and overrides
// config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HAVEN_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("HAVEN_SERVER_BIND"); v != "" {
		cfg.Server.Bind = v
	}
	if v := os.Getenv("HAVEN_SERVER_TOKEN"); v != "" {
		cfg.Server.Token = v
	}
	if v := os.Getenv("HAVEN_API_KEY"); v != "" {
		cfg.Assistant.APIKey = v
	}
	if v := os.Getenv("HAVEN_MODEL"); v != "" {
		cfg.Assistant.Model = v
	}
	if v := os.Getenv("HAVEN_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("HAVEN_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
}
