// Package config provides configuration loading and validation for the
// agentic-tdd CLI.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/xpepper/agentic-tdd-specify-edition/internal/llm"
)

// Defaults applied before file and flag values.
const (
	DefaultLanguage       = "rust"
	DefaultMaxCycles      = 15
	DefaultMaxRetries     = 3
	DefaultCommandTimeout = 30 * time.Second
	DefaultTemperature    = 0.1
	DefaultLLMTimeout     = 60 * time.Second
)

// Config is the root configuration.
type Config struct {
	WorkDir        string        `json:"work_dir"        mapstructure:"work_dir"`
	Language       string        `json:"language"        mapstructure:"language"`
	MaxCycles      int           `json:"max_cycles"      mapstructure:"max_cycles"`
	MaxRetries     int           `json:"max_retries"     mapstructure:"max_retries"`
	CommandTimeout time.Duration `json:"command_timeout" mapstructure:"command_timeout"`
	Verbose        bool          `json:"verbose"         mapstructure:"verbose"`
	LLM            llm.Config    `json:"llm"             mapstructure:"llm"`
}

// Load reads configuration from v and validates it. Defaults are registered
// on v before flag binding so precedence stays flags > file > defaults.
func Load(v *viper.Viper) (Config, error) {
	if path := v.ConfigFileUsed(); path != "" {
		if err := ValidateSettings(v.AllSettings()); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	if !filepath.IsAbs(cfg.WorkDir) {
		abs, err := filepath.Abs(cfg.WorkDir)
		if err != nil {
			return Config{}, fmt.Errorf("resolve work dir: %w", err)
		}
		cfg.WorkDir = abs
	}
	return cfg, nil
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("language", DefaultLanguage)
	v.SetDefault("max_cycles", DefaultMaxCycles)
	v.SetDefault("max_retries", DefaultMaxRetries)
	v.SetDefault("command_timeout", DefaultCommandTimeout.String())
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.temperature", DefaultTemperature)
	v.SetDefault("llm.timeout", DefaultLLMTimeout.String())
}

// Validate checks structural constraints not covered by the schema, mostly
// values arriving from flags rather than the config file.
func (c Config) Validate() error {
	if c.WorkDir == "" {
		return fmt.Errorf("work_dir is required")
	}
	if c.MaxCycles <= 0 {
		return fmt.Errorf("max_cycles must be > 0")
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("max_retries must be > 0")
	}
	if c.CommandTimeout <= 0 {
		return fmt.Errorf("command_timeout must be > 0")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0.0 and 2.0")
	}
	return nil
}
