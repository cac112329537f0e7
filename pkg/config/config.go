package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for paceline-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, client secrets) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"5000"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL + pgvector)
	Database DatabaseConfig `yaml:"database"`

	// LLM inference backend (OpenAI-compatible, e.g. Ollama's /v1 API)
	LLM LLMConfig `yaml:"llm"`

	// Pipeline stage limits
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Strava ingestion collaborator
	Strava StravaConfig `yaml:"strava"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"paceline"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"paceline"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"10"`
	MigrationsPath string `yaml:"migrations_path" env:"PGMIGRATIONS_PATH" env-default:"migrations"`
}

// LLMConfig holds the inference backend endpoint and model names.
// The endpoint must speak the OpenAI chat-completion API; Ollama exposes
// this at http://localhost:11434/v1.
type LLMConfig struct {
	Endpoint       string  `yaml:"endpoint" env:"LLM_ENDPOINT" env-default:"http://localhost:11434/v1"`
	Model          string  `yaml:"model" env:"LLM_MODEL" env-default:"mistral"`
	EmbeddingModel string  `yaml:"embedding_model" env:"LLM_EMBEDDING_MODEL" env-default:"all-minilm"`
	APIKey         string  `yaml:"-" env:"LLM_API_KEY"` // Secret - optional for local endpoints
	Temperature    float64 `yaml:"temperature" env:"LLM_TEMPERATURE" env-default:"0"`
}

// PipelineConfig bounds each pipeline stage.
type PipelineConfig struct {
	// GenerationTimeoutSeconds bounds the single inference call.
	GenerationTimeoutSeconds int `yaml:"generation_timeout_seconds" env:"PIPELINE_GENERATION_TIMEOUT_SECONDS" env-default:"60"`
	// ExecutionTimeoutSeconds bounds the single store execution.
	ExecutionTimeoutSeconds int `yaml:"execution_timeout_seconds" env:"PIPELINE_EXECUTION_TIMEOUT_SECONDS" env-default:"15"`
	// MaxRows caps the number of rows returned to the caller. 0 disables the cap.
	MaxRows int `yaml:"max_rows" env:"PIPELINE_MAX_ROWS" env-default:"500"`
}

// StravaConfig holds the upstream activity provider credentials.
type StravaConfig struct {
	ClientID     string `yaml:"client_id" env:"STRAVA_CLIENT_ID" env-default:""`
	ClientSecret string `yaml:"-" env:"STRAVA_CLIENT_SECRET"` // Secret - not in YAML
	TokenFile    string `yaml:"token_file" env:"STRAVA_TOKEN_FILE" env-default:"token.json"`
	PerPage      int    `yaml:"per_page" env:"STRAVA_PER_PAGE" env-default:"200"`
}

// GenerationTimeout returns the inference deadline as a duration.
func (c *PipelineConfig) GenerationTimeout() time.Duration {
	return time.Duration(c.GenerationTimeoutSeconds) * time.Second
}

// ExecutionTimeout returns the store execution deadline as a duration.
func (c *PipelineConfig) ExecutionTimeout() time.Duration {
	return time.Duration(c.ExecutionTimeoutSeconds) * time.Second
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	return LoadFrom("config.yaml", version)
}

// LoadFrom reads configuration from the given YAML path with environment
// variable overrides. Secrets (PGPASSWORD, LLM_API_KEY, STRAVA_CLIENT_SECRET)
// must come from environment variables (yaml:"-" fields).
func LoadFrom(path, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.LLM.Endpoint) == "" {
		return fmt.Errorf("llm endpoint must not be empty")
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return fmt.Errorf("llm model must not be empty")
	}
	if c.Pipeline.GenerationTimeoutSeconds <= 0 {
		return fmt.Errorf("generation timeout must be positive")
	}
	if c.Pipeline.ExecutionTimeoutSeconds <= 0 {
		return fmt.Errorf("execution timeout must be positive")
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
