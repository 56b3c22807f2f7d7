// Package config loads and validates application configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper. The structs are
// plain values decoupled from Viper so every subsystem stays testable
// without a config file on disk.
type Config struct {
	BaseURL  string         `mapstructure:"base_url"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Session  SessionConfig  `mapstructure:"session"`
	Scrape   ScrapeConfig   `mapstructure:"scrape"`
	Download DownloadConfig `mapstructure:"download"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// SessionConfig controls the browser-backed session provider.
type SessionConfig struct {
	UserAgent    string        `mapstructure:"user_agent"`
	Headless     bool          `mapstructure:"headless"`
	LoginTimeout time.Duration `mapstructure:"login_timeout"`
}

// ScrapeConfig governs tab crawling and record extraction.
type ScrapeConfig struct {
	OutputDir  string        `mapstructure:"output_dir"`
	PageSize   int           `mapstructure:"page_size"`
	NavTimeout time.Duration `mapstructure:"nav_timeout"`
	KnownTabs  []string      `mapstructure:"known_tabs"`
}

// DownloadConfig governs the concurrent document download pipeline.
type DownloadConfig struct {
	FilesDir       string        `mapstructure:"files_dir"`
	InputDir       string        `mapstructure:"input_dir"`
	InventoryFile  string        `mapstructure:"inventory_file"`
	CompletedFile  string        `mapstructure:"completed_file"`
	ErrorLogFile   string        `mapstructure:"error_log_file"`
	Concurrency    int           `mapstructure:"concurrency"`
	Workers        int           `mapstructure:"workers"`
	MaxRetries     int           `mapstructure:"max_retries"`
	MinDelay       time.Duration `mapstructure:"min_delay"`
	MaxDelay       time.Duration `mapstructure:"max_delay"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	FlushEvery     int           `mapstructure:"flush_every"`
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("EPRM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.eprm")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
			// Defaults plus environment variables are enough to run.
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("base_url", "https://eprm.ypen.gr/src/App/")
	v.SetDefault("logging.development", true)
	v.SetDefault("session.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/98.0.4758.102 Safari/537.36")
	v.SetDefault("session.headless", true)
	v.SetDefault("session.login_timeout", "120s")
	v.SetDefault("scrape.output_dir", "Scraped")
	v.SetDefault("scrape.page_size", 100)
	v.SetDefault("scrape.nav_timeout", "10s")
	v.SetDefault("download.files_dir", "Files")
	v.SetDefault("download.input_dir", "Scraped")
	v.SetDefault("download.inventory_file", "all_downloads.json")
	v.SetDefault("download.completed_file", "global_progress.json")
	v.SetDefault("download.error_log_file", "download_errors.log")
	v.SetDefault("download.concurrency", 5)
	v.SetDefault("download.workers", 1)
	v.SetDefault("download.max_retries", 3)
	v.SetDefault("download.min_delay", "500ms")
	v.SetDefault("download.max_delay", "2s")
	v.SetDefault("download.request_timeout", "60s")
	v.SetDefault("download.flush_every", 5)
	v.SetDefault("metrics.addr", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url must be set")
	}
	if c.Scrape.PageSize <= 0 {
		return fmt.Errorf("scrape.page_size must be > 0")
	}
	if c.Scrape.NavTimeout <= 0 {
		return fmt.Errorf("scrape.nav_timeout must be > 0")
	}
	if c.Scrape.OutputDir == "" {
		return fmt.Errorf("scrape.output_dir must be set")
	}
	if c.Download.Concurrency <= 0 {
		return fmt.Errorf("download.concurrency must be > 0")
	}
	if c.Download.Workers <= 0 {
		return fmt.Errorf("download.workers must be > 0")
	}
	if c.Download.MaxRetries < 0 {
		return fmt.Errorf("download.max_retries must be >= 0")
	}
	if c.Download.MinDelay < 0 || c.Download.MaxDelay < c.Download.MinDelay {
		return fmt.Errorf("download delay window [min_delay, max_delay] is invalid")
	}
	if c.Download.RequestTimeout <= 0 {
		return fmt.Errorf("download.request_timeout must be > 0")
	}
	if c.Download.FlushEvery <= 0 {
		return fmt.Errorf("download.flush_every must be > 0")
	}
	return nil
}
