// Package config loads runtime settings from the environment and an
// optional .env file, and builds the process logger from them.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Environment variables read by Load.
const (
	EnvLogLevel  = "RASTER_TOOLS_LOG_LEVEL"
	EnvLogFormat = "RASTER_TOOLS_LOG_FORMAT"
	EnvOutputDir = "RASTER_TOOLS_OUTPUT_DIR"
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config holds runtime settings.
type Config struct {
	LogLevel  logrus.Level
	LogFormat string

	// OutputDir is prepended to relative output paths. Empty means the
	// working directory.
	OutputDir string
}

// Load reads a .env file from the working directory if one exists, then
// the process environment. A .env that exists but cannot be parsed is an
// error. Unset variables take their defaults: info
// level and JSON output.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		LogLevel:  logrus.InfoLevel,
		LogFormat: FormatJSON,
		OutputDir: getenv(EnvOutputDir),
	}

	if v := getenv(EnvLogLevel); v != "" {
		level, err := logrus.ParseLevel(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
		cfg.LogLevel = level
	}

	if v := strings.ToLower(getenv(EnvLogFormat)); v != "" {
		if v != FormatText && v != FormatJSON {
			return nil, fmt.Errorf("%s: unknown format %q (want text or json)", EnvLogFormat, v)
		}
		cfg.LogFormat = v
	}
	return cfg, nil
}

// NewLogger returns a logger writing to w. Debug level switches to the
// text formatter with full timestamps regardless of LogFormat.
func (c *Config) NewLogger(w io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(c.LogLevel)

	if c.LogFormat == FormatText || c.LogLevel >= logrus.DebugLevel {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
	return logger
}

// ResolveOutput joins a relative path onto OutputDir.
func (c *Config) ResolveOutput(path string) string {
	if c.OutputDir == "" || path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.OutputDir, path)
}
