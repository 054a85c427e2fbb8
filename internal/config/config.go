// Package config provides application configuration with multi-source
// priority.
//
// Sources (highest to lowest):
//  1. Environment variables (runtime override)
//  2. Config file (~/.sitesmith/config.yaml or ./config.yaml)
//  3. Default values
//
// Error handling uses sentinel errors so callers can branch with
// errors.Is. Secrets are explicitly masked in MarshalJSON; when adding a
// sensitive field, update MarshalJSON.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates a required provider API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrMissingHubToken indicates the hub write token is not set.
	ErrMissingHubToken = errors.New("missing hub token")

	// ErrMissingOwner indicates no account is configured to own spaces.
	ErrMissingOwner = errors.New("missing hub owner")

	// ErrInvalidModelName indicates the model name is empty or malformed.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidAddr indicates the serve address is malformed.
	ErrInvalidAddr = errors.New("invalid listen address")

	// ErrInvalidRateLimit indicates a non-positive request rate.
	ErrInvalidRateLimit = errors.New("invalid rate limit")
)

// HubConfig configures the space hosting platform client.
type HubConfig struct {
	// BaseURL is the platform API root.
	BaseURL string `mapstructure:"base_url" json:"base_url"`

	// Host is the public hostname used in deployment links.
	Host string `mapstructure:"host" json:"host"`

	// Token authorizes space writes. SENSITIVE: masked in MarshalJSON.
	Token string `mapstructure:"token" json:"token"`

	// Owner is the account that owns freshly minted spaces.
	Owner string `mapstructure:"owner" json:"owner"`

	// RequestsPerSecond throttles hub API calls.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" json:"requests_per_second"`
}

// DocsConfig configures the documentation fetcher.
type DocsConfig struct {
	CacheDir string `mapstructure:"cache_dir" json:"cache_dir"`
	TTLHours int    `mapstructure:"ttl_hours" json:"ttl_hours"`
	MaxPages int    `mapstructure:"max_pages" json:"max_pages"`
}

// TracingConfig configures OTLP trace export.
type TracingConfig struct {
	Endpoint    string `mapstructure:"endpoint" json:"endpoint"`
	Environment string `mapstructure:"environment" json:"environment"`
	ServiceName string `mapstructure:"service_name" json:"service_name"`
	Enabled     bool   `mapstructure:"enabled" json:"enabled"`
}

// Config stores application configuration.
type Config struct {
	// Model configuration.
	ModelName   string  `mapstructure:"model_name" json:"model_name"`
	Temperature float32 `mapstructure:"temperature" json:"temperature"`

	// ModelRequestsPerSecond throttles provider calls.
	ModelRequestsPerSecond float64 `mapstructure:"model_requests_per_second" json:"model_requests_per_second"`

	// Serve configuration.
	Addr        string   `mapstructure:"addr" json:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`

	Hub     HubConfig     `mapstructure:"hub" json:"hub"`
	Docs    DocsConfig    `mapstructure:"docs" json:"docs"`
	Tracing TracingConfig `mapstructure:"tracing" json:"tracing"`

	// Logging.
	LogLevel string `mapstructure:"log_level" json:"log_level"`
	LogJSON  bool   `mapstructure:"log_json" json:"log_json"`
}

// Load loads configuration with the documented source priority.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".sitesmith")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("model_name", "googleai/gemini-2.5-flash")
	viper.SetDefault("temperature", 0.7)
	viper.SetDefault("model_requests_per_second", 2.0)

	viper.SetDefault("addr", ":8080")
	viper.SetDefault("cors_origins", []string{"http://localhost:5173"})

	viper.SetDefault("hub.base_url", "https://huggingface.co")
	viper.SetDefault("hub.host", "huggingface.co")
	viper.SetDefault("hub.requests_per_second", 8.0)

	viper.SetDefault("docs.ttl_hours", 24)
	viper.SetDefault("docs.max_pages", 4)

	viper.SetDefault("tracing.enabled", false)
	viper.SetDefault("tracing.endpoint", "localhost:4318")
	viper.SetDefault("tracing.environment", "dev")
	viper.SetDefault("tracing.service_name", "sitesmith")

	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_json", true)
}

// bindEnvVariables binds environment overrides explicitly. Secrets only
// ever arrive through the environment, never the config file checked
// into a home directory.
func bindEnvVariables() {
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("hub.token", "SITESMITH_HUB_TOKEN")
	mustBind("hub.owner", "SITESMITH_HUB_OWNER")
	mustBind("hub.base_url", "SITESMITH_HUB_URL")
	mustBind("model_name", "SITESMITH_MODEL")
	mustBind("addr", "SITESMITH_ADDR")
	mustBind("cors_origins", "SITESMITH_CORS_ORIGINS")
	mustBind("log_level", "SITESMITH_LOG_LEVEL")
	mustBind("tracing.endpoint", "SITESMITH_OTLP_ENDPOINT")

	// NOTE: GEMINI_API_KEY is read directly by Genkit, not via viper.
	// Validation checks its presence in ValidateServe.
}

const maskedValue = "████████"

// MarshalJSON masks the hub token so dumping the config for debugging
// never leaks a write credential.
func (c *Config) MarshalJSON() ([]byte, error) {
	type alias Config
	masked := alias(*c)
	if masked.Hub.Token != "" {
		masked.Hub.Token = maskedValue
	}
	return json.Marshal(masked)
}
