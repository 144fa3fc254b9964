package config

// Config is the root configuration for Haven.
type Config struct {
	Server    ServerConfig    `yaml:"server,omitempty"`
	Assistant AssistantConfig `yaml:"assistant,omitempty"`
	Knowledge KnowledgeConfig `yaml:"knowledge,omitempty"`
	Alerts    AlertsConfig    `yaml:"alerts,omitempty"`
	Database  DatabaseConfig  `yaml:"database,omitempty"`
	Logging   LoggingConfig   `yaml:"logging,omitempty"`
}

// ServerConfig controls the HTTP/WebSocket API server.
type ServerConfig struct {
	Port int    `yaml:"port,omitempty"`
	Bind string `yaml:"bind,omitempty"`
	// Token authenticates API clients. Empty disables auth; only do that
	// on loopback.
	Token string `yaml:"token,omitempty"`
}

// AssistantConfig selects and tunes the decision model.
type AssistantConfig struct {
	Provider    string  `yaml:"provider,omitempty"` // "openai" | "scripted"
	APIKey      string  `yaml:"apiKey,omitempty"`
	BaseURL     string  `yaml:"baseUrl,omitempty"` // any OpenAI-compatible endpoint
	Model       string  `yaml:"model,omitempty"`
	Temperature float32 `yaml:"temperature,omitempty"`
}

// KnowledgeConfig selects the knowledge base backend.
type KnowledgeConfig struct {
	Backend   string `yaml:"backend,omitempty"` // "weaviate" | "builtin"
	URL       string `yaml:"url,omitempty"`
	ClassName string `yaml:"className,omitempty"`
}

// AlertsConfig configures therapist notifications and the approval
// reply inbox.
type AlertsConfig struct {
	// DefaultRecipient receives alerts for users with no therapist on file.
	DefaultRecipient string      `yaml:"defaultRecipient,omitempty"`
	SMTP             SMTPConfig  `yaml:"smtp,omitempty"`
	Inbox            InboxConfig `yaml:"inbox,omitempty"`
}

// SMTPConfig configures outbound alert mail.
type SMTPConfig struct {
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	From     string `yaml:"from,omitempty"`
}

// InboxConfig configures the IMAP mailbox watched for APPROVE/DENY
// replies. Disabled unless a host is set.
type InboxConfig struct {
	Host             string `yaml:"host,omitempty"`
	Port             int    `yaml:"port,omitempty"`
	Username         string `yaml:"username,omitempty"`
	Password         string `yaml:"password,omitempty"`
	Mailbox          string `yaml:"mailbox,omitempty"`
	PollIntervalSecs int    `yaml:"pollIntervalSecs,omitempty"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `yaml:"path,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	Style string `yaml:"style,omitempty"` // "pretty" | "json"
}
