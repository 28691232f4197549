// Package config loads the service configuration from defaults, an optional
// .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Gemini   GeminiConfig   `mapstructure:"gemini"`
	LocalLLM LocalLLMConfig `mapstructure:"localllm"`
	Image    ImageConfig    `mapstructure:"image"`
	Stream   StreamConfig   `mapstructure:"stream"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	Debug          bool          `mapstructure:"debug"`
}

// Supported values of llm.provider.
const (
	ProviderGemini = "gemini"
	ProviderLocal  = "local"
)

// LLMConfig selects the text and vision provider.
type LLMConfig struct {
	Provider string `mapstructure:"provider"`
}

// GeminiConfig holds Gemini API settings.
type GeminiConfig struct {
	APIKey      string `mapstructure:"api_key"`
	VisionModel string `mapstructure:"vision_model"`
	TextModel   string `mapstructure:"text_model"`
}

// LocalLLMConfig holds settings for an OpenAI-compatible local server.
type LocalLLMConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// ImageConfig holds text-to-image settings.
type ImageConfig struct {
	APIURL string `mapstructure:"api_url"`
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
	Size   string `mapstructure:"size"`
}

// StreamConfig holds recipe streaming settings.
type StreamConfig struct {
	ChunkDelay time.Duration `mapstructure:"chunk_delay"`
}

// UploadConfig holds image upload settings.
type UploadConfig struct {
	MaxSizeBytes int64 `mapstructure:"max_size_bytes"`
	MaxWidth     uint  `mapstructure:"max_width"`
}

// DatabaseConfig holds the optional PostgreSQL connection string.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// RedisConfig holds the optional illustration cache settings.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration. The .env file is optional; credentials are only
// ever read from the environment or that file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix("FEAST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindings := map[string][]string{
		"gemini.api_key": {"GOOGLE_API_KEY", "GEMINI_API_KEY"},
		"image.api_key":  {"IMAGE_API_KEY", "OPENAI_API_KEY"},
		"image.api_url":  {"IMAGE_API_URL"},
		"database.url":   {"DATABASE_URL"},
		"redis.addr":     {"REDIS_ADDR"},
		"log.level":      {"LOG_LEVEL"},
		"server.port":    {"PORT"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key, "FEAST_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	return FromViper(v)
}

// FromViper decodes and validates configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// SetDefaults registers the default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.debug", false)

	v.SetDefault("llm.provider", ProviderGemini)
	v.SetDefault("gemini.vision_model", "gemini-1.5-flash")
	v.SetDefault("gemini.text_model", "gemini-1.5-flash")
	v.SetDefault("localllm.base_url", "http://localhost:1234/v1")
	v.SetDefault("localllm.model", "gemma-3-12b-it")

	v.SetDefault("image.api_url", "https://api.openai.com/v1/images/generations")
	v.SetDefault("image.model", "dall-e-3")
	v.SetDefault("image.size", "1024x1024")

	v.SetDefault("stream.chunk_delay", "20ms")

	v.SetDefault("upload.max_size_bytes", 5*1024*1024)
	v.SetDefault("upload.max_width", 1024)

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("image.api_key", "")
	v.SetDefault("database.url", "")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", "168h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Validate checks required settings.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return errors.New("server port is required")
	}
	switch c.LLM.Provider {
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			return errors.New("GOOGLE_API_KEY is required for the gemini provider")
		}
	case ProviderLocal:
		if c.LocalLLM.BaseURL == "" {
			return errors.New("localllm base url is required for the local provider")
		}
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if c.Stream.ChunkDelay < 0 {
		return errors.New("stream chunk delay must not be negative")
	}
	if c.Upload.MaxSizeBytes <= 0 {
		return errors.New("upload max size must be positive")
	}
	return nil
}

// MaskSecret hides all but the first and last four characters of a credential.
func MaskSecret(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
