package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Control plane
	Endpoint    string        `mapstructure:"endpoint"`
	APIVersion  string        `mapstructure:"api-version"`
	Username    string        `mapstructure:"username"`
	Code        string        `mapstructure:"code"`
	ProjectID   int           `mapstructure:"project-id"`
	HTTPTimeout time.Duration `mapstructure:"http-timeout"`

	// Local state
	SQLitePath string `mapstructure:"sqlite-path"`
	FSMDBPath  string `mapstructure:"fsm-db-path"`
	WorkDir    string `mapstructure:"work-dir"`

	// Submission defaults
	DefaultTier      string `mapstructure:"default-tier"`
	DefaultPIVersion string `mapstructure:"default-pi-version"`
	MaxPoints        int    `mapstructure:"max-points"`

	// Limits
	MaxArchiveSize     int64 `mapstructure:"max-archive-size"`
	PipelineMaxRetries int   `mapstructure:"pipeline-max-retries"`
}

// Load reads configuration from environment, config file, and defaults
func Load() (*Config, error) {
	// Set defaults
	viper.SetDefault("endpoint", "https://peakinvestigator.veritomyx.com/api/")
	viper.SetDefault("api-version", "3.0")
	viper.SetDefault("http-timeout", 4*time.Minute)
	viper.SetDefault("sqlite-path", ".artifacts/jobs.db")
	viper.SetDefault("fsm-db-path", ".artifacts/fsm.db")
	viper.SetDefault("work-dir", "/tmp/pictl")
	viper.SetDefault("default-tier", "RTO-24")
	viper.SetDefault("default-pi-version", "")
	viper.SetDefault("max-points", 0)
	viper.SetDefault("max-archive-size", 2*1024*1024*1024)
	viper.SetDefault("pipeline-max-retries", 5)

	// Environment variables (will be PI_ENDPOINT, PI_USERNAME, etc.)
	viper.SetEnvPrefix("PI")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	// Config file (optional)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.pictl")

	// Read config file (ignore if not found)
	_ = viper.ReadInConfig()

	// Unmarshal into config struct
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration for errors
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint cannot be empty")
	}
	if c.APIVersion == "" {
		return fmt.Errorf("api-version cannot be empty")
	}
	if c.SQLitePath == "" {
		return fmt.Errorf("sqlite-path cannot be empty")
	}
	if c.FSMDBPath == "" {
		return fmt.Errorf("fsm-db-path cannot be empty")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http-timeout must be positive")
	}
	if c.MaxArchiveSize <= 0 {
		return fmt.Errorf("max-archive-size must be positive")
	}
	if c.PipelineMaxRetries < 0 {
		return fmt.Errorf("pipeline-max-retries must be non-negative")
	}
	return nil
}

// ValidateCredentials checks the fields every control-plane call needs.
// Commands that only touch local state skip this.
func (c *Config) ValidateCredentials() error {
	if c.Username == "" {
		return fmt.Errorf("username cannot be empty (set --username or PI_USERNAME)")
	}
	if c.Code == "" {
		return fmt.Errorf("code cannot be empty (set --code or PI_CODE)")
	}
	if c.ProjectID <= 0 {
		return fmt.Errorf("project-id must be positive (set --project-id or PI_PROJECT_ID)")
	}
	return nil
}
