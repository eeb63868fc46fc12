// Package config loads CarKeeper Core configuration from file and
// environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level backend configuration.
type Config struct {
	// DataDir holds the SQLite database and the degraded-mode fallback
	// file.
	DataDir string `mapstructure:"data_dir"`

	// BridgeAddr is the localhost address the UI bridge listens on.
	BridgeAddr string `mapstructure:"bridge_addr"`

	// RemoteBaseURL is where queued offline mutations are replayed.
	RemoteBaseURL string `mapstructure:"remote_base_url"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`

	// SchedulePollInterval is how often the report-schedule runner
	// checks for due schedules.
	SchedulePollInterval time.Duration `mapstructure:"schedule_poll_interval"`
}

// Load reads configuration from carkeeper.yaml (working directory or
// $HOME/.carkeeper), overridden by CARKEEPER_* environment variables.
// A missing config file is fine; defaults cover everything.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("data_dir", "./data")
	v.SetDefault("bridge_addr", "localhost:8090")
	v.SetDefault("remote_base_url", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("schedule_poll_interval", time.Minute)

	v.SetConfigName("carkeeper")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.carkeeper")

	v.SetEnvPrefix("carkeeper")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}
