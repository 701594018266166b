// Package config handles global configuration loading using viper.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// GlobalConfig is the tool-wide static configuration. Everything has a
// usable default, so running without a config file is fine.
type GlobalConfig struct {
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Dissector DissectorConfig `mapstructure:"dissector"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string           `mapstructure:"level"`  // debug | info | warn | error
	Format string           `mapstructure:"format"` // text | json
	File   FileOutputConfig `mapstructure:"file"`
}

// FileOutputConfig enables an additional rotated log file.
type FileOutputConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Path     string         `mapstructure:"path"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig contains log rotation settings.
type RotationConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	Compress   bool `mapstructure:"compress"`
}

// MetricsConfig enables the Prometheus endpoint for long-lived runs.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
}

// DissectorConfig locates the external dissector and bounds its runtime.
type DissectorConfig struct {
	Binary  string        `mapstructure:"binary"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file.rotation.max_size_mb", 50)
	v.SetDefault("log.file.rotation.max_backups", 3)
	v.SetDefault("log.file.rotation.max_age_days", 14)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen", "127.0.0.1:9123")
	v.SetDefault("dissector.binary", "tshark")
	v.SetDefault("dissector.timeout", 30*time.Second)
}

// Load reads the global configuration from path. An empty path or a missing
// default config file yields the built-in defaults.
func Load(path string) (*GlobalConfig, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file does not exist: %s", path)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg GlobalConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
