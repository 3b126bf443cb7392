package config

import "time"

// Default values for configuration
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = false

	DefaultDBPath = "messages.db"

	DefaultServerAddr            = ":5001"
	DefaultServerReadTimeout     = 10 * time.Second
	DefaultServerWriteTimeout    = 30 * time.Second
	DefaultServerShutdownTimeout = 10 * time.Second

	DefaultGroupMeAPIURL         = "https://api.groupme.com"
	DefaultGroupMeOAuthURL       = "https://oauth.groupme.com"
	DefaultGroupMeRequestTimeout = 15 * time.Second

	DefaultSheetsCredentialsFile = "credentials.json"

	DefaultMailPort = 587

	DefaultSchedulerTimezone      = "America/New_York"
	DefaultSchedulerUpcomingCount = 3
)

// DefaultTasks are the scheduler tasks enabled when config.yaml has none.
var DefaultTasks = map[string]TaskConfig{
	"scheduled_post":  {Enabled: true, Schedule: "* * * * *"},
	"calendar_sync":   {Enabled: true, Schedule: "* * * * *"},
	"sql_maintenance": {Enabled: true, Schedule: "0 4 * * *"},
}

// secretKeys are bound with empty defaults so BOT_* environment variables
// reach viper.Unmarshal even without a config file.
var secretKeys = []string{
	"groupme.bot_id",
	"groupme.bot_name",
	"groupme.client_id",
	"groupme.client_secret",
	"groupme.redirect_uri",
	"mail.host",
	"mail.username",
	"mail.password",
	"mail.from",
}
