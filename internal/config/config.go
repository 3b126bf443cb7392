// Package config provides configuration loading, validation, and management
// for the bot. It reads config.yaml, BOT_* environment variables and an
// optional .env file, applies defaults and validates the result.
package config

import (
	"time"
)

// Config defines the application configuration parameters for all components.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
	GroupMe   GroupMeConfig   `mapstructure:"groupme"`
	Sheets    SheetsConfig    `mapstructure:"sheets"`
	Mail      MailConfig      `mapstructure:"mail"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// DatabaseConfig holds the SQLite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// ServerConfig holds the webhook HTTP server settings.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"             validate:"required"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"     validate:"min=1s"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"    validate:"min=1s"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=1s"`
}

// GroupMeConfig holds the messaging platform credentials and endpoints.
// The secrets must all be set or the process refuses to start.
type GroupMeConfig struct {
	BotID          string        `mapstructure:"bot_id"          validate:"required"`
	BotName        string        `mapstructure:"bot_name"        validate:"required"`
	ClientID       string        `mapstructure:"client_id"       validate:"required"`
	ClientSecret   string        `mapstructure:"client_secret"   validate:"required"`
	RedirectURI    string        `mapstructure:"redirect_uri"    validate:"required,url"`
	APIURL         string        `mapstructure:"api_url"         validate:"required,url"`
	OAuthURL       string        `mapstructure:"oauth_url"       validate:"required,url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"min=1s,max=5m"`
}

// SheetsConfig holds the Google Sheets service account settings.
type SheetsConfig struct {
	CredentialsFile string `mapstructure:"credentials_file" validate:"required"`
}

// MailConfig holds the SMTP relay credentials.
type MailConfig struct {
	Host     string `mapstructure:"host"     validate:"required"`
	Port     int    `mapstructure:"port"     validate:"min=1,max=65535"`
	Username string `mapstructure:"username" validate:"required"`
	Password string `mapstructure:"password" validate:"required"`
	From     string `mapstructure:"from"     validate:"required,email"`
}

// SchedulerConfig holds the scheduler's time zone and task schedules.
type SchedulerConfig struct {
	Timezone      string                `mapstructure:"timezone"       validate:"required,timezone"`
	UpcomingCount int                   `mapstructure:"upcoming_count" validate:"min=1,max=50"`
	Tasks         map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig enables a registered task and sets its cron schedule.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// Location returns the scheduler time zone. Validation guarantees it loads.
func (c *SchedulerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
