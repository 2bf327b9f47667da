// Package config loads runtime settings for the magicpatch CLI.
//
// Precedence, highest first: explicitly set flags, MAGICPATCH_* environment
// variables, the optional config file, built-in defaults.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. MAGICPATCH_LOG_LEVEL.
const EnvPrefix = "MAGICPATCH"

// Setting keys and the flags bound to them.
const (
	KeyLogLevel = "log_level"
	KeyJSONLog  = "json_log"
	KeyConfig   = "config"

	FlagLogLevel = "log-level"
	FlagJSONLog  = "json-log"
	FlagConfig   = "config"
)

// Config holds the settings the CLI consumes.
type Config struct {
	LogLevel string `mapstructure:"log_level"`
	JSONLog  bool   `mapstructure:"json_log"`

	// File is the config file that was read, empty if none.
	File string `mapstructure:"-"`
}

// Load resolves the configuration. path names a config file (YAML, JSON or
// TOML by extension); when empty, MAGICPATCH_CONFIG is consulted. A named
// file that cannot be read is an error. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		bindings := map[string]string{
			KeyLogLevel: FlagLogLevel,
			KeyJSONLog:  FlagJSONLog,
		}
		for key, name := range bindings {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	if path == "" {
		path = v.GetString(KeyConfig)
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyJSONLog, false)
	v.SetDefault(KeyConfig, "")
}
