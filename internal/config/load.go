package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g.
// TASKBOARD_DATABASE_URL for database.url.
const EnvPrefix = "TASKBOARD"

var defaults = map[string]any{
	"server.port":                         8080,
	"server.log_level":                    "info",
	"server.shutdown_timeout":             10 * time.Second,
	"server.auto_migrate":                 false,
	"database.url":                        "",
	"database.max_open_conns":             25,
	"database.max_idle_conns":             25,
	"database.conn_max_lifetime":          5 * time.Minute,
	"auth.jwt_secret":                     "",
	"auth.bcrypt_cost":                    10,
	"auth.token_lifetime_minutes":         60,
	"auth.refresh_token_lifetime_minutes": 10080,
	"redis.url":                           "",
	"redis.ttl":                           time.Minute,
}

// Load reads configuration from an optional config.yaml (in the working
// directory or ./config) and from TASKBOARD_* environment variables.
// Environment variables take precedence over values from the file.
func Load() (*Config, error) {
	return LoadWithViper(viper.New())
}

// LoadWithViper is Load on a caller-supplied viper instance, so callers can
// point it at a specific file or bind command-line flags first.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
