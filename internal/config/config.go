// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/switchboard/internal/util"
)

// =============================================================================
// CONFIG TYPES
// =============================================================================

// Config is the process-level configuration.
type Config struct {
	// DataDir holds the key-value store and the TUI log file.
	DataDir string `toml:"data_dir"`

	// Storage selects the persistence backend: "file", "sqlite" or "memory".
	Storage string `toml:"storage"`

	Log      LogConfig    `toml:"log"`
	Budget   BudgetConfig `toml:"budget"`
	Client   ClientConfig `toml:"client"`
	Endpoint Endpoint     `toml:"endpoint"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // text or json
}

// BudgetConfig holds the token budget constants.
type BudgetConfig struct {
	ProviderMaxContext  int `toml:"provider_max_context"`
	ResponseReservation int `toml:"response_reservation"`
	CharsPerToken       int `toml:"chars_per_token"`
}

// ClientConfig holds outbound HTTP settings.
type ClientConfig struct {
	Referer string `toml:"referer"`
	Title   string `toml:"title"`

	// TimeoutSecs bounds a whole request. Zero means no timeout.
	TimeoutSecs int `toml:"timeout"`
}

// Timeout returns the request timeout as a duration.
func (c ClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// Default budget and client values.
const (
	DefaultProviderMaxContext  = 16000
	DefaultResponseReservation = 2000
	DefaultCharsPerToken       = 4

	DefaultReferer = "https://github.com/tbogdala/switchboard"
	DefaultTitle   = "Switchboard!"
)

// Storage backend names accepted in config.
var validStorage = map[string]bool{"file": true, "sqlite": true, "memory": true}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Default returns the built-in configuration.
func Default() *Config {
	dataDir, err := ConfigDir()
	if err != nil {
		dataDir = ".switchboard"
	}
	return &Config{
		DataDir: dataDir,
		Storage: "file",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Budget: BudgetConfig{
			ProviderMaxContext:  DefaultProviderMaxContext,
			ResponseReservation: DefaultResponseReservation,
			CharsPerToken:       DefaultCharsPerToken,
		},
		Client: ClientConfig{
			Referer: DefaultReferer,
			Title:   DefaultTitle,
		},
		Endpoint: DefaultEndpoint(),
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns ~/.switchboard.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".switchboard"), nil
}

// ConfigPath returns the path to config.toml.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads the config file at path, or the default location when path is
// empty. A missing file is not an error. Environment overrides are applied
// before validation.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes path over cfg and fills any zero values with defaults.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	fillDefaults(cfg)
	return nil
}

func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.DataDir == "" {
		cfg.DataDir = defaults.DataDir
	}
	if cfg.Storage == "" {
		cfg.Storage = defaults.Storage
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = defaults.Log.Format
	}

	if cfg.Budget.ProviderMaxContext == 0 {
		cfg.Budget.ProviderMaxContext = defaults.Budget.ProviderMaxContext
	}
	if cfg.Budget.ResponseReservation == 0 {
		cfg.Budget.ResponseReservation = defaults.Budget.ResponseReservation
	}
	if cfg.Budget.CharsPerToken == 0 {
		cfg.Budget.CharsPerToken = defaults.Budget.CharsPerToken
	}

	if cfg.Client.Referer == "" {
		cfg.Client.Referer = defaults.Client.Referer
	}
	if cfg.Client.Title == "" {
		cfg.Client.Title = defaults.Client.Title
	}

	if cfg.Endpoint.Name == "" {
		cfg.Endpoint.Name = defaults.Endpoint.Name
	}
	if cfg.Endpoint.Endpoint == "" {
		cfg.Endpoint.Endpoint = defaults.Endpoint.Endpoint
	}
	if cfg.Endpoint.ModelID == "" {
		cfg.Endpoint.ModelID = defaults.Endpoint.ModelID
	}
}

// SaveTOML writes cfg to path with 0600 permissions, since the endpoint
// section may carry an API key.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# switchboard configuration file")
	fmt.Fprintln(&buf, "#")
	fmt.Fprintln(&buf, "# Environment variables (SWITCHBOARD_*) override these values.")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if !validStorage[c.Storage] {
		errs = append(errs, ValidationError{
			Field:   "storage",
			Message: fmt.Sprintf("must be file, sqlite or memory, got %q", c.Storage),
		})
	}
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("must be debug, info, warn or error, got %q", c.Log.Level),
		})
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		errs = append(errs, ValidationError{
			Field:   "log.format",
			Message: fmt.Sprintf("must be text or json, got %q", c.Log.Format),
		})
	}

	if c.Budget.ProviderMaxContext <= 0 {
		errs = append(errs, ValidationError{Field: "budget.provider_max_context", Message: "must be positive"})
	}
	if c.Budget.ResponseReservation < 0 {
		errs = append(errs, ValidationError{Field: "budget.response_reservation", Message: "must not be negative"})
	}
	if c.Budget.ResponseReservation >= c.Budget.ProviderMaxContext && c.Budget.ProviderMaxContext > 0 {
		errs = append(errs, ValidationError{
			Field:   "budget.response_reservation",
			Message: "must be smaller than provider_max_context",
		})
	}
	if c.Budget.CharsPerToken <= 0 {
		errs = append(errs, ValidationError{Field: "budget.chars_per_token", Message: "must be positive"})
	}

	if c.Client.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "client.timeout", Message: "must not be negative"})
	}

	if c.Endpoint.Endpoint != "" {
		u, err := url.Parse(c.Endpoint.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "endpoint.endpoint",
				Message: fmt.Sprintf("must be an http(s) URL, got %q", c.Endpoint.Endpoint),
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
//
// Supported variables:
//   - SWITCHBOARD_DATA_DIR: overrides data_dir
//   - SWITCHBOARD_STORAGE: overrides storage
//   - SWITCHBOARD_LOG_LEVEL: overrides log.level
//   - SWITCHBOARD_API_KEY: overrides endpoint.api_key
//   - SWITCHBOARD_ENDPOINT: overrides endpoint.endpoint
//   - SWITCHBOARD_MODEL: overrides endpoint.model_id
func (c *Config) ApplyEnvOverrides() {
	if dir := os.Getenv("SWITCHBOARD_DATA_DIR"); dir != "" {
		c.DataDir = dir
	}
	if backend := os.Getenv("SWITCHBOARD_STORAGE"); backend != "" {
		c.Storage = strings.ToLower(backend)
	}
	if level := os.Getenv("SWITCHBOARD_LOG_LEVEL"); level != "" {
		c.Log.Level = strings.ToLower(level)
	}
	if key := os.Getenv("SWITCHBOARD_API_KEY"); key != "" {
		c.Endpoint.APIKey = key
	}
	if endpoint := os.Getenv("SWITCHBOARD_ENDPOINT"); endpoint != "" {
		c.Endpoint.Endpoint = strings.TrimSuffix(endpoint, "/")
	}
	if model := os.Getenv("SWITCHBOARD_MODEL"); model != "" {
		c.Endpoint.ModelID = model
	}
}
