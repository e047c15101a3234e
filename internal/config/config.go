// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/creative-compliance/internal/llm"
	"github.com/jonathan/creative-compliance/internal/rulebook"
	"github.com/jonathan/creative-compliance/internal/types"
)

// Config represents the configuration that can be loaded from a JSON or YAML file.
// All fields are optional; environment variables and CLI flags fill the rest.
type Config struct {
	// AI
	GeminiAPIKeys     []string `json:"gemini_api_keys,omitempty" yaml:"gemini_api_keys,omitempty"`
	GeminiAPIKey      string   `json:"gemini_api_key,omitempty" yaml:"gemini_api_key,omitempty"`
	ModelLite         string   `json:"model_lite,omitempty" yaml:"model_lite,omitempty"`
	ModelStandard     string   `json:"model_standard,omitempty" yaml:"model_standard,omitempty"`
	ModelAdvanced     string   `json:"model_advanced,omitempty" yaml:"model_advanced,omitempty"`
	RequestsPerSecond float64  `json:"requests_per_second,omitempty" yaml:"requests_per_second,omitempty" validate:"gte=0"`
	RequestBurst      int      `json:"request_burst,omitempty" yaml:"request_burst,omitempty" validate:"gte=0"`

	// Background removal
	BackgroundRemovalURL    string `json:"bg_removal_url,omitempty" yaml:"bg_removal_url,omitempty" validate:"omitempty,url"`
	BackgroundRemovalAPIKey string `json:"bg_removal_api_key,omitempty" yaml:"bg_removal_api_key,omitempty"`

	// Persistence
	StoreBackend string `json:"store_backend,omitempty" yaml:"store_backend,omitempty" validate:"omitempty,oneof=memory badger redis postgres"`
	StorePath    string `json:"store_path,omitempty" yaml:"store_path,omitempty"`
	RedisAddr    string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty" validate:"omitempty,hostname_port"`
	DatabaseURL  string `json:"database_url,omitempty" yaml:"database_url,omitempty"`

	// Editor and export
	Profile         string  `json:"profile,omitempty" yaml:"profile,omitempty"`
	HistoryCap      int     `json:"history_cap,omitempty" yaml:"history_cap,omitempty" validate:"omitempty,gte=20"`
	ExportWorkers   int     `json:"export_workers,omitempty" yaml:"export_workers,omitempty" validate:"gte=0"`
	JPEGTargetKB    int     `json:"jpeg_target_kb,omitempty" yaml:"jpeg_target_kb,omitempty" validate:"gte=0"`
	ServerAddr      string  `json:"server_addr,omitempty" yaml:"server_addr,omitempty"`
	ServerRateLimit float64 `json:"server_rate_limit,omitempty" yaml:"server_rate_limit,omitempty" validate:"gte=0"`
	ServerRateBurst int     `json:"server_rate_burst,omitempty" yaml:"server_rate_burst,omitempty" validate:"gte=0"`

	// Behavior
	LogMode string `json:"log_mode,omitempty" yaml:"log_mode,omitempty" validate:"omitempty,oneof=dev prod"`
	Verbose bool   `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// Environment variable names read by FromEnv
const (
	EnvGeminiAPIKeys = "GEMINI_API_KEYS"
	EnvGeminiAPIKey  = "GEMINI_API_KEY"
	EnvBGRemovalKey  = "BG_REMOVAL_API_KEY"
	EnvBGRemovalURL  = "BG_REMOVAL_URL"
	EnvStoreBackend  = "STORE_BACKEND"
	EnvStorePath     = "STORE_PATH"
	EnvRedisAddr     = "REDIS_ADDR"
	EnvDatabaseURL   = "DATABASE_URL"
	EnvLogMode       = "LOG_MODE"
	EnvExportWorkers = "EXPORT_WORKERS"
)

var validate = validator.New()

// LoadConfig loads configuration from a JSON file, or YAML for .yaml and .yml files.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// FromEnv builds a Config from environment variables using getenv (os.Getenv when nil)
func FromEnv(getenv func(string) string) Config {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := Config{
		GeminiAPIKeys:           llm.ParseKeys(getenv(EnvGeminiAPIKeys), ""),
		GeminiAPIKey:            strings.TrimSpace(getenv(EnvGeminiAPIKey)),
		BackgroundRemovalAPIKey: strings.TrimSpace(getenv(EnvBGRemovalKey)),
		BackgroundRemovalURL:    strings.TrimSpace(getenv(EnvBGRemovalURL)),
		StoreBackend:            strings.ToLower(strings.TrimSpace(getenv(EnvStoreBackend))),
		StorePath:               strings.TrimSpace(getenv(EnvStorePath)),
		RedisAddr:               strings.TrimSpace(getenv(EnvRedisAddr)),
		DatabaseURL:             strings.TrimSpace(getenv(EnvDatabaseURL)),
		LogMode:                 strings.ToLower(strings.TrimSpace(getenv(EnvLogMode))),
	}
	if n, err := strconv.Atoi(strings.TrimSpace(getenv(EnvExportWorkers))); err == nil {
		cfg.ExportWorkers = n
	}
	return cfg
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	switch c.StoreBackend {
	case "redis":
		if c.RedisAddr == "" {
			return errors.New("config error: 'redis_addr' is required for the redis store")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("config error: 'database_url' is required for the postgres store")
		}
	}

	if c.Profile != "" {
		if _, ok := rulebook.ProfileByID(types.ProfileID(strings.ToUpper(c.Profile))); !ok {
			return fmt.Errorf("config error: unknown profile %q", c.Profile)
		}
	}

	if c.BackgroundRemovalURL != "" && c.BackgroundRemovalAPIKey == "" {
		return errors.New("config error: 'bg_removal_api_key' is required with 'bg_removal_url'")
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to layer file values over environment values and CLI flags over both.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	str := func(v *string, d string) {
		if *v == "" {
			*v = d
		}
	}
	str(&result.GeminiAPIKey, defaults.GeminiAPIKey)
	str(&result.ModelLite, defaults.ModelLite)
	str(&result.ModelStandard, defaults.ModelStandard)
	str(&result.ModelAdvanced, defaults.ModelAdvanced)
	str(&result.BackgroundRemovalURL, defaults.BackgroundRemovalURL)
	str(&result.BackgroundRemovalAPIKey, defaults.BackgroundRemovalAPIKey)
	str(&result.StoreBackend, defaults.StoreBackend)
	str(&result.StorePath, defaults.StorePath)
	str(&result.RedisAddr, defaults.RedisAddr)
	str(&result.DatabaseURL, defaults.DatabaseURL)
	str(&result.Profile, defaults.Profile)
	str(&result.ServerAddr, defaults.ServerAddr)
	str(&result.LogMode, defaults.LogMode)

	if len(result.GeminiAPIKeys) == 0 {
		result.GeminiAPIKeys = defaults.GeminiAPIKeys
	}

	// Numeric fields: use default if zero
	if result.RequestsPerSecond == 0 {
		result.RequestsPerSecond = defaults.RequestsPerSecond
	}
	if result.RequestBurst == 0 {
		result.RequestBurst = defaults.RequestBurst
	}
	if result.HistoryCap == 0 {
		result.HistoryCap = defaults.HistoryCap
	}
	if result.ExportWorkers == 0 {
		result.ExportWorkers = defaults.ExportWorkers
	}
	if result.JPEGTargetKB == 0 {
		result.JPEGTargetKB = defaults.JPEGTargetKB
	}
	if result.ServerRateLimit == 0 {
		result.ServerRateLimit = defaults.ServerRateLimit
	}
	if result.ServerRateBurst == 0 {
		result.ServerRateBurst = defaults.ServerRateBurst
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// APIKeys returns the deduplicated Gemini key pool, the list taking precedence over the single key
func (c *Config) APIKeys() []string {
	return llm.ParseKeys(strings.Join(c.GeminiAPIKeys, ","), c.GeminiAPIKey)
}

// LLMConfig builds the model configuration, applying any tier overrides
func (c *Config) LLMConfig() *llm.Config {
	cfg := llm.DefaultConfig()
	if c.ModelLite != "" {
		cfg = cfg.WithModel(llm.TierLite, c.ModelLite)
	}
	if c.ModelStandard != "" {
		cfg = cfg.WithModel(llm.TierStandard, c.ModelStandard)
	}
	if c.ModelAdvanced != "" {
		cfg = cfg.WithModel(llm.TierAdvanced, c.ModelAdvanced)
	}
	return cfg
}

// ProfileID returns the configured creative profile, standard when unset
func (c *Config) ProfileID() types.ProfileID {
	if c.Profile == "" {
		return types.ProfileStandard
	}
	return types.ProfileID(strings.ToUpper(c.Profile))
}
