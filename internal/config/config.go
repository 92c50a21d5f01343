// Package config provides configuration loading and validation for the
// ruspass application.
package config

import (
	"fmt"
	"strings"

	"github.com/ruspass-tech/ruspass/internal/ocr"
)

// DefaultConfig returns the configuration defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Verbose:  false,
		OCR: OCRConfig{
			CloudURL:   ocr.DefaultCloudURL,
			Local:      true,
			Preprocess: true,
			Vertical:   true,
		},
		Ingest: IngestConfig{
			MaxFileMB: 20,
		},
		Output: OutputConfig{
			Format: "json",
		},
		Batch: BatchConfig{
			Workers:    4,
			GroupByDir: true,
			Recursive:  true,
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	validFormats := []string{"json", "xlsx"}
	if c.Output.Format != "" && !contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}

	if !c.OCR.Local && c.OCR.CloudAPIKey == "" {
		return fmt.Errorf("no recognition backend: local OCR disabled and no cloud API key set")
	}

	if c.Ingest.MaxFileMB <= 0 {
		return fmt.Errorf("max_file_mb must be positive, got %d", c.Ingest.MaxFileMB)
	}

	if c.Batch.Workers <= 0 {
		return fmt.Errorf("batch workers must be positive, got %d", c.Batch.Workers)
	}

	return nil
}

// MaxFileBytes converts the configured megabyte ceiling to bytes.
func (c *Config) MaxFileBytes() int64 {
	return c.Ingest.MaxFileMB * 1024 * 1024
}

func contains(items []string, value string) bool {
	for _, item := range items {
		if item == value {
			return true
		}
	}
	return false
}
