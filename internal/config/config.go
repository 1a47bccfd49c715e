package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"

	// demoAPIKey is the placeholder value older deployments shipped with.
	demoAPIKey = "demo-mode-no-api-key"
)

type Config struct {
	// Server
	Port        string `yaml:"port" env:"PORT" env-default:"5000"`
	Environment string `yaml:"environment" env:"ENVIRONMENT" env-default:"development"`
	Version     string `yaml:"version" env:"APP_VERSION" env-default:"1.0.0"`

	Storage    StorageConfig    `yaml:"storage"`
	Auth       AuthConfig       `yaml:"auth"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Flashcards FlashcardsConfig `yaml:"flashcards"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
}

type StorageConfig struct {
	// Driver is one of memory, postgres, mysql.
	Driver      string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"memory"`
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL"`
}

type AuthConfig struct {
	Required   bool          `yaml:"required" env:"AUTH_REQUIRED" env-default:"true"`
	SessionTTL time.Duration `yaml:"session_ttl" env:"SESSION_TTL" env-default:"168h"`
}

type OpenAIConfig struct {
	APIKey      string        `yaml:"api_key" env:"OPENAI_API_KEY"`
	BaseURL     string        `yaml:"base_url" env:"OPENAI_BASE_URL"`
	Model       string        `yaml:"model" env:"OPENAI_MODEL" env-default:"gpt-3.5-turbo"`
	MaxTokens   int           `yaml:"max_tokens" env:"OPENAI_MAX_TOKENS" env-default:"1000"`
	Temperature float32       `yaml:"temperature" env:"OPENAI_TEMPERATURE" env-default:"0.7"`
	Timeout     time.Duration `yaml:"timeout" env:"LLM_TIMEOUT" env-default:"30s"`
}

type FlashcardsConfig struct {
	Min     int `yaml:"min" env:"MIN_FLASHCARDS" env-default:"3"`
	Max     int `yaml:"max" env:"MAX_FLASHCARDS" env-default:"10"`
	Default int `yaml:"default" env:"DEFAULT_FLASHCARDS" env-default:"5"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" env:"RATE_LIMIT_RPS" env-default:"5"`
	Burst int     `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"10"`
}

// Load reads configuration from the YAML file named by CONFIG_PATH, if set,
// and from environment variables. Environment variables win over the file.
func Load() (*Config, error) {
	var cfg Config

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverPostgres, DriverMySQL:
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for storage driver %q", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("unsupported storage driver: %q", c.Storage.Driver)
	}

	f := c.Flashcards
	if f.Min < 1 || f.Max < f.Min {
		return fmt.Errorf("invalid flashcard bounds: min=%d max=%d", f.Min, f.Max)
	}
	if f.Default < f.Min || f.Default > f.Max {
		return fmt.Errorf("default flashcard count %d outside [%d, %d]", f.Default, f.Min, f.Max)
	}

	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got %s", c.Auth.SessionTTL)
	}

	if c.OpenAI.Timeout <= 0 {
		return fmt.Errorf("llm timeout must be positive, got %s", c.OpenAI.Timeout)
	}

	return nil
}

// OpenAIConfigured reports whether a usable API key is present.
func (c *Config) OpenAIConfigured() bool {
	key := strings.TrimSpace(c.OpenAI.APIKey)
	return key != "" && key != demoAPIKey
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Mode names the deployment flavour reported by the status endpoint.
func (c *Config) Mode() string {
	if c.Storage.Driver == DriverMemory {
		return "demo"
	}
	return "database"
}
