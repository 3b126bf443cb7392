package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	errs "github.com/edgard/groupmebot/internal/errors"
)

// EnvPrefix is the prefix of environment variables that override config keys,
// e.g. BOT_GROUPME_BOT_ID for groupme.bot_id.
const EnvPrefix = "BOT"

// LoadConfig loads and validates configuration from:
//  1. default values
//  2. the YAML file at path (optional)
//  3. a .env file in the working directory (optional)
//  4. BOT_* environment variables
//
// An empty required secret yields a ConfigurationMissing error.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		slog.Info("Configuration file not found, using defaults and environment", "path", path)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errs.NewConfigurationMissing("invalid configuration", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", DefaultLogJSON)

	v.SetDefault("database.path", DefaultDBPath)

	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("server.read_timeout", DefaultServerReadTimeout)
	v.SetDefault("server.write_timeout", DefaultServerWriteTimeout)
	v.SetDefault("server.shutdown_timeout", DefaultServerShutdownTimeout)

	v.SetDefault("groupme.api_url", DefaultGroupMeAPIURL)
	v.SetDefault("groupme.oauth_url", DefaultGroupMeOAuthURL)
	v.SetDefault("groupme.request_timeout", DefaultGroupMeRequestTimeout)

	v.SetDefault("sheets.credentials_file", DefaultSheetsCredentialsFile)

	v.SetDefault("mail.port", DefaultMailPort)

	v.SetDefault("scheduler.timezone", DefaultSchedulerTimezone)
	v.SetDefault("scheduler.upcoming_count", DefaultSchedulerUpcomingCount)
	for name, task := range DefaultTasks {
		v.SetDefault("scheduler.tasks."+name+".enabled", task.Enabled)
		v.SetDefault("scheduler.tasks."+name+".schedule", task.Schedule)
	}

	for _, key := range secretKeys {
		v.SetDefault(key, "")
	}
}
