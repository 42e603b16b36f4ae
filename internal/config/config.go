// Package config loads application configuration from file and environment
// and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Places     PlacesConfig     `yaml:"places" mapstructure:"places"`
	AI         AIConfig         `yaml:"ai" mapstructure:"ai"`
	Hosting    HostingConfig    `yaml:"hosting" mapstructure:"hosting"`
	Discovery  DiscoveryConfig  `yaml:"discovery" mapstructure:"discovery"`
	Generation GenerationConfig `yaml:"generation" mapstructure:"generation"`
	Deployment DeploymentConfig `yaml:"deployment" mapstructure:"deployment"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// PlacesConfig holds places-lookup API settings. An empty Key puts the
// client in mock mode.
type PlacesConfig struct {
	Key           string  `yaml:"key" mapstructure:"key"`
	BaseURL       string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit     float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	DetailDelayMS int     `yaml:"detail_delay_ms" mapstructure:"detail_delay_ms"`
}

// AIConfig selects and configures the website-generation provider.
type AIConfig struct {
	Provider  string          `yaml:"provider" mapstructure:"provider"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI    OpenAIConfig    `yaml:"openai" mapstructure:"openai"`
	RateLimit float64         `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// OpenAIConfig holds OpenAI API settings.
type OpenAIConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// HostingConfig holds deployment platform settings. An empty Token puts
// the client in mock mode.
type HostingConfig struct {
	Token            string  `yaml:"token" mapstructure:"token"`
	BaseURL          string  `yaml:"base_url" mapstructure:"base_url"`
	TeamID           string  `yaml:"team_id" mapstructure:"team_id"`
	PollIntervalSecs int     `yaml:"poll_interval_secs" mapstructure:"poll_interval_secs"`
	PollTimeoutSecs  int     `yaml:"poll_timeout_secs" mapstructure:"poll_timeout_secs"`
	RateLimit        float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// DiscoveryConfig configures the discovery stage.
type DiscoveryConfig struct {
	MaxResultsPerSearch int     `yaml:"max_results_per_search" mapstructure:"max_results_per_search"`
	DefaultRadiusMiles  float64 `yaml:"default_radius_miles" mapstructure:"default_radius_miles"`
	MinRating           float64 `yaml:"min_rating" mapstructure:"min_rating"`
	RequireOperational  bool    `yaml:"require_operational" mapstructure:"require_operational"`
}

// GenerationConfig configures the website-generation stage.
type GenerationConfig struct {
	TemplatesPerBusiness int `yaml:"templates_per_business" mapstructure:"templates_per_business"`
	BatchLimit           int `yaml:"batch_limit" mapstructure:"batch_limit"`
	MinHTMLLength        int `yaml:"min_html_length" mapstructure:"min_html_length"`
}

// DeploymentConfig configures the deployment stage.
type DeploymentConfig struct {
	BatchLimit int `yaml:"batch_limit" mapstructure:"batch_limit"`
}

// ServerConfig configures the status server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LOCALBIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "local-biz.db")
	v.SetDefault("places.rate_limit", 10)
	v.SetDefault("places.detail_delay_ms", 200)
	v.SetDefault("ai.provider", "anthropic")
	v.SetDefault("ai.rate_limit", 1)
	v.SetDefault("ai.anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("ai.anthropic.max_tokens", 8192)
	v.SetDefault("ai.openai.model", "gpt-4o")
	v.SetDefault("ai.openai.max_tokens", 8192)
	v.SetDefault("hosting.poll_interval_secs", 3)
	v.SetDefault("hosting.poll_timeout_secs", 120)
	v.SetDefault("hosting.rate_limit", 5)
	v.SetDefault("discovery.max_results_per_search", 20)
	v.SetDefault("discovery.default_radius_miles", 10)
	v.SetDefault("discovery.require_operational", true)
	v.SetDefault("generation.templates_per_business", 1)
	v.SetDefault("generation.batch_limit", 10)
	v.SetDefault("generation.min_html_length", 1000)
	v.SetDefault("deployment.batch_limit", 10)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
