package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds the application's configuration
type Config struct {
	APIBaseURL               string `mapstructure:"API_BASE_URL"`
	RequestTimeoutSeconds    int    `mapstructure:"REQUEST_TIMEOUT"`
	MaxUploadBytes           int64  `mapstructure:"MAX_UPLOAD_BYTES"`
	ProgressTickMS           int    `mapstructure:"PROGRESS_TICK_MS"`
	ProgressStep             int    `mapstructure:"PROGRESS_STEP"`
	ProgressCap              int    `mapstructure:"PROGRESS_CAP"`
	SettleDelayMS            int    `mapstructure:"SETTLE_DELAY_MS"`
	PDFPreflight             bool   `mapstructure:"PDF_PREFLIGHT"`
	WebPort                  int    `mapstructure:"WEB_PORT"`
	LogLevel                 string `mapstructure:"LOG_LEVEL"`
	LogFile                  string `mapstructure:"LOG_FILE"`
	UserName                 string `mapstructure:"USER_NAME"`
	MaxWorkspaces            int    `mapstructure:"MAX_WORKSPACES"`
	CleanupEnabled           bool   `mapstructure:"CLEANUP_ENABLED"`
	CleanupIntervalMinutes   int    `mapstructure:"CLEANUP_INTERVAL"`
	WorkspaceIdleMinutes     int    `mapstructure:"WORKSPACE_IDLE_TIMEOUT"`
	RateLimitQuestionsPerMin int    `mapstructure:"RATE_LIMIT_QUESTIONS_PER_MIN"`
	RateLimitUploadsPerHour  int    `mapstructure:"RATE_LIMIT_UPLOADS_PER_HOUR"`
	RateLimitBurstSize       int    `mapstructure:"RATE_LIMIT_BURST_SIZE"`
}

func Load(logger *zap.Logger) *Config {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")        // For running locally
	v.AddConfigPath("../")      // For running from docker subdir
	v.AddConfigPath("./config") // Common config folder

	if err := v.ReadInConfig(); err != nil {
		if logger != nil {
			logger.Warn("Could not read config file, using defaults/env vars", zap.Error(err))
		}
	}

	cfg, err := load(v)
	if err != nil {
		// Config unmarshaling is critical - fail fast during bootstrap
		if logger != nil {
			logger.Fatal("Unable to decode config into struct", zap.Error(err))
		}
		fmt.Fprintf(os.Stderr, "FATAL: Unable to decode config into struct: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// load applies defaults and env overrides to v and decodes the result.
func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.APIBaseURL = strings.TrimRight(strings.TrimSpace(config.APIBaseURL), "/")

	return &config, nil
}

// Durations are configured as plain numbers so env overrides decode cleanly.

// RequestTimeout bounds each backend call; zero means no timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func (c *Config) ProgressTick() time.Duration {
	return time.Duration(c.ProgressTickMS) * time.Millisecond
}

func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.SettleDelayMS) * time.Millisecond
}

func (c *Config) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupIntervalMinutes) * time.Minute
}

func (c *Config) WorkspaceIdleTimeout() time.Duration {
	return time.Duration(c.WorkspaceIdleMinutes) * time.Minute
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("API_BASE_URL", "https://kalpokoch-openquery.hf.space")
	v.SetDefault("REQUEST_TIMEOUT", 0)
	v.SetDefault("MAX_UPLOAD_BYTES", 10*1024*1024)
	v.SetDefault("PROGRESS_TICK_MS", 200)
	v.SetDefault("PROGRESS_STEP", 10)
	v.SetDefault("PROGRESS_CAP", 90)
	v.SetDefault("SETTLE_DELAY_MS", 500)
	v.SetDefault("PDF_PREFLIGHT", false)
	v.SetDefault("WEB_PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("USER_NAME", "User")
	v.SetDefault("MAX_WORKSPACES", 1024)
	v.SetDefault("CLEANUP_ENABLED", true)
	v.SetDefault("CLEANUP_INTERVAL", 5)
	v.SetDefault("WORKSPACE_IDLE_TIMEOUT", 60)
	v.SetDefault("RATE_LIMIT_QUESTIONS_PER_MIN", 20)
	v.SetDefault("RATE_LIMIT_UPLOADS_PER_HOUR", 10)
	v.SetDefault("RATE_LIMIT_BURST_SIZE", 5)
}

// Validate reports settings the controllers cannot work with.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL must not be empty")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}
	if c.ProgressStep <= 0 {
		return fmt.Errorf("PROGRESS_STEP must be positive, got %d", c.ProgressStep)
	}
	if c.ProgressCap < 1 || c.ProgressCap > 100 {
		return fmt.Errorf("PROGRESS_CAP must be within [1,100], got %d", c.ProgressCap)
	}
	if c.ProgressTickMS <= 0 {
		return fmt.Errorf("PROGRESS_TICK_MS must be positive")
	}
	if c.MaxWorkspaces <= 0 {
		return fmt.Errorf("MAX_WORKSPACES must be positive, got %d", c.MaxWorkspaces)
	}
	if c.CleanupEnabled {
		if c.CleanupIntervalMinutes <= 0 {
			return fmt.Errorf("CLEANUP_INTERVAL must be positive when cleanup is enabled, got %d", c.CleanupIntervalMinutes)
		}
		if c.WorkspaceIdleMinutes <= 0 {
			return fmt.Errorf("WORKSPACE_IDLE_TIMEOUT must be positive when cleanup is enabled, got %d", c.WorkspaceIdleMinutes)
		}
	}
	return nil
}
