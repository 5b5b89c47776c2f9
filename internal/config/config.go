package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	lumberjack "gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port                  int    `yaml:"port"`
	EngineAPIURL          string `yaml:"engine_api_url"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
	AutoRefreshMinSec     int    `yaml:"auto_refresh_min_seconds"`
	AutoRefreshMaxSec     int    `yaml:"auto_refresh_max_seconds"`
	AutoRefreshDefaultSec int    `yaml:"auto_refresh_default_seconds"`
	TradesShown           int    `yaml:"trades_shown"`
	LevelsShown           int    `yaml:"levels_shown"`
	LogLevel              string `yaml:"log_level"`
	LogFile               string `yaml:"log_file"`
}

func defaults() Config {
	return Config{
		Port:                  8086,
		EngineAPIURL:          "http://localhost:8080/api",
		RequestTimeoutSeconds: 2,
		AutoRefreshMinSec:     1,
		AutoRefreshMaxSec:     10,
		AutoRefreshDefaultSec: 2,
		TradesShown:           10,
		LevelsShown:           15,
		LogLevel:              "info",
	}
}

// Load reads the yaml config at path over the defaults. A missing file is
// fine — defaults apply. The API_BASE_URL environment variable, when set,
// overrides engine_api_url so deployed instances can be pointed at a remote
// engine without editing the file.
func Load(path string) (Config, error) {
	cfg := defaults()
	b, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}

	if v := os.Getenv("API_BASE_URL"); v != "" {
		cfg.EngineAPIURL = v
	}

	// Validation & normalization
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return cfg, errors.New("invalid port")
	}
	if cfg.EngineAPIURL == "" {
		return cfg, errors.New("engine_api_url required")
	}
	if cfg.RequestTimeoutSeconds < 1 {
		return cfg, errors.New("request_timeout_seconds must be >=1")
	}
	if cfg.AutoRefreshMinSec < 1 {
		return cfg, errors.New("auto_refresh_min_seconds must be >=1")
	}
	if cfg.AutoRefreshMaxSec < cfg.AutoRefreshMinSec {
		return cfg, errors.New("auto_refresh_max_seconds must be >= auto_refresh_min_seconds")
	}
	if cfg.AutoRefreshDefaultSec < cfg.AutoRefreshMinSec || cfg.AutoRefreshDefaultSec > cfg.AutoRefreshMaxSec {
		return cfg, errors.New("auto_refresh_default_seconds outside [min, max]")
	}
	if cfg.TradesShown < 1 {
		return cfg, errors.New("trades_shown must be >=1")
	}
	if cfg.LevelsShown < 1 {
		return cfg, errors.New("levels_shown must be >=1")
	}
	return cfg, nil
}

func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func (c Config) AutoRefreshMin() time.Duration {
	return time.Duration(c.AutoRefreshMinSec) * time.Second
}

func (c Config) AutoRefreshMax() time.Duration {
	return time.Duration(c.AutoRefreshMaxSec) * time.Second
}

func (c Config) AutoRefreshDefault() time.Duration {
	return time.Duration(c.AutoRefreshDefaultSec) * time.Second
}

// NewLogger builds the process logger. With log_file set the output rotates
// via lumberjack; otherwise it goes to stdout.
func NewLogger(level, file string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	var w io.Writer = os.Stdout
	if file != "" {
		w = &lumberjack.Logger{
			Filename:   file,
			MaxSize:    50, // MB
			MaxBackups: 3,
			MaxAge:     14, // days
			Compress:   true,
		}
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	return slog.New(h)
}
