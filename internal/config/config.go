package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Anthropic  AnthropicConfig  `mapstructure:"anthropic"`
	Sources    SourcesConfig    `mapstructure:"sources"`
	Render     RenderConfig     `mapstructure:"render"`
	Artifacts  ArtifactsConfig  `mapstructure:"artifacts"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Generation GenerationConfig `mapstructure:"generation"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // sqlite or redis
	DSN    string `mapstructure:"dsn"`    // Connection string
}

// RedisConfig holds Redis connection settings for the KV storage backend
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ModelConfig is one entry in the text-service fallback cascade
type ModelConfig struct {
	Name        string  `mapstructure:"name"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
	TopK        int     `mapstructure:"top_k"`
	TopP        float64 `mapstructure:"top_p"`
}

// AnthropicConfig holds Claude API settings
type AnthropicConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	Models            []ModelConfig `mapstructure:"models"` // tried in order
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

// SourcesConfig holds all product source configurations
type SourcesConfig struct {
	Affiliate AffiliateConfig `mapstructure:"affiliate"`
	Feeds     FeedsConfig     `mapstructure:"feeds"`
}

// AffiliateConfig holds the affiliate search API settings
type AffiliateConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// FeedsConfig holds RSS deal feed settings
type FeedsConfig struct {
	Enabled bool       `mapstructure:"enabled"`
	Feeds   []DealFeed `mapstructure:"feeds"`
}

// DealFeed represents a single deal feed
type DealFeed struct {
	Name string `mapstructure:"name"`
	URL  string `mapstructure:"url"`
}

// RenderConfig holds card rendering settings
type RenderConfig struct {
	Width     int    `mapstructure:"width"`
	Height    int    `mapstructure:"height"`
	FontFile  string `mapstructure:"font_file"` // optional TTF override
	Watermark string `mapstructure:"watermark"`
}

// ArtifactsConfig holds rendered artifact storage settings
type ArtifactsConfig struct {
	Dir     string `mapstructure:"dir"`
	BaseURL string `mapstructure:"base_url"`
}

// SchedulerConfig holds scheduler daemon settings
type SchedulerConfig struct {
	TickCron string `mapstructure:"tick_cron"` // how often due schedules are checked
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json or console
	Output string `mapstructure:"output"` // stdout or file path
}

// GenerationConfig holds generation defaults, applied wherever the CLI
// flags are left at their defaults
type GenerationConfig struct {
	Template        string   `mapstructure:"template"`
	Encodings       []string `mapstructure:"encodings"`
	UseAI           bool     `mapstructure:"use_ai"`
	IncludeEmojis   bool     `mapstructure:"include_emojis"`
	IncludeHashtags bool     `mapstructure:"include_hashtags"`
	Tone            string   `mapstructure:"tone"`
	MaxLength       int      `mapstructure:"max_length"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	// Load .env file if present (ignore errors if not found)
	_ = godotenv.Load()
	_ = godotenv.Load(".env.local")

	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in current directory and configs folder
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")

		// Also check user's home directory
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".promocard-agent"))
		}
	}

	// Environment variables
	v.SetEnvPrefix("PROMOCARD")
	v.AutomaticEnv()

	// Explicit bindings for nested keys (Viper doesn't auto-bind underscored nested keys)
	v.BindEnv("anthropic.api_key", "PROMOCARD_ANTHROPIC_API_KEY")
	v.BindEnv("database.driver", "PROMOCARD_DATABASE_DRIVER")
	v.BindEnv("database.dsn", "PROMOCARD_DATABASE_DSN")
	v.BindEnv("redis.addr", "PROMOCARD_REDIS_ADDR")
	v.BindEnv("redis.password", "PROMOCARD_REDIS_PASSWORD")
	v.BindEnv("sources.affiliate.base_url", "PROMOCARD_SOURCES_AFFILIATE_BASE_URL")
	v.BindEnv("sources.affiliate.api_key", "PROMOCARD_SOURCES_AFFILIATE_API_KEY")
	v.BindEnv("artifacts.dir", "PROMOCARD_ARTIFACTS_DIR")
	v.BindEnv("artifacts.base_url", "PROMOCARD_ARTIFACTS_BASE_URL")

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./data/promocard.db")

	// Redis defaults
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	// Anthropic defaults: ordered fallback cascade
	v.SetDefault("anthropic.requests_per_minute", 10)
	v.SetDefault("anthropic.models", []map[string]interface{}{
		{"name": "claude-sonnet-4-5", "max_tokens": 300, "temperature": 0.8, "top_k": 40, "top_p": 0.95},
		{"name": "claude-haiku-4-5", "max_tokens": 300, "temperature": 0.8, "top_k": 40, "top_p": 0.95},
	})

	// Render defaults
	v.SetDefault("render.width", 800)
	v.SetDefault("render.height", 1000)
	v.SetDefault("render.watermark", "promocard.app")

	// Artifact storage defaults
	v.SetDefault("artifacts.dir", "./data/cards")
	v.SetDefault("artifacts.base_url", "")

	// Scheduler defaults: check for due schedules every minute
	v.SetDefault("scheduler.tick_cron", "* * * * *")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stdout")

	// Generation defaults
	v.SetDefault("generation.template", "modern")
	v.SetDefault("generation.encodings", []string{"png"})
	v.SetDefault("generation.use_ai", true)
	v.SetDefault("generation.include_emojis", true)
	v.SetDefault("generation.include_hashtags", true)
	v.SetDefault("generation.tone", "friendly and energetic")
	v.SetDefault("generation.max_length", 280)
}
