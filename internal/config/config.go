// Package config resolves pipeline settings from defaults, an optional config
// file, and FEEDQC_-prefixed environment variables, in that order.
package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/feedqc/feedqc/internal/alerts"
	apperrors "github.com/feedqc/feedqc/pkg/errors"
)

// Config holds the resolved pipeline settings.
type Config struct {
	DataDir  string `mapstructure:"data_dir"`
	OutDir   string `mapstructure:"out_dir"`
	Workers  int    `mapstructure:"workers"`
	LogLevel string `mapstructure:"log_level"`

	Alerts alerts.Thresholds `mapstructure:"alerts"`
}

// SetDefaults registers the stock settings on a viper instance.
func SetDefaults(v *viper.Viper) {
	th := alerts.DefaultThresholds()
	v.SetDefault("data_dir", "data/raw")
	v.SetDefault("out_dir", "data/out")
	v.SetDefault("workers", 1)
	v.SetDefault("log_level", "info")
	v.SetDefault("alerts.missing_hours", th.MissingHours)
	v.SetDefault("alerts.trailing_days", th.TrailingDays)
	v.SetDefault("alerts.drop_fraction", th.DropFraction)
}

// Load resolves the configuration from the given viper instance.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix("FEEDQC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.WrapError(err, apperrors.ErrorTypeConfiguration, "CONFIG_UNMARSHAL_FAILED",
			"cannot decode configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return apperrors.NewConfigurationError("INVALID_WORKERS", "workers must be at least 1")
	}
	if c.Alerts.TrailingDays < 1 {
		return apperrors.NewConfigurationError("INVALID_TRAILING_DAYS", "alerts.trailing_days must be at least 1")
	}
	if c.Alerts.DropFraction <= 0 || c.Alerts.DropFraction >= 1 {
		return apperrors.NewConfigurationError("INVALID_DROP_FRACTION", "alerts.drop_fraction must be in (0, 1)")
	}
	if c.Alerts.MissingHours < 0 || c.Alerts.MissingHours > 23 {
		return apperrors.NewConfigurationError("INVALID_MISSING_HOURS", "alerts.missing_hours must be in [0, 23]")
	}
	return nil
}
