// Package config provides configuration for devlog. Settings come from an
// optional YAML file plus environment variables with the DEVLOG_ prefix;
// environment variables take precedence over the file, and every option has
// a sensible default.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration settings for the devlog application.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	LLM     LLMConfig     `yaml:"llm"`
	Engine  EngineConfig  `yaml:"engine"`
}

// StorageConfig contains database and vector index configuration.
type StorageConfig struct {
	// DataPath is the directory holding the SQLite database (default: ./data).
	DataPath string `yaml:"data_path"`

	// VectorBackend selects the vector index: "sqlite" keeps embeddings in
	// the main database, "postgres" uses a pgvector-enabled server,
	// "none" disables semantic search (default: sqlite).
	VectorBackend string `yaml:"vector_backend"`

	// PostgresDSN is the connection string for the pgvector backend.
	PostgresDSN string `yaml:"postgres_dsn"`
}

// LLMConfig contains inference configuration.
type LLMConfig struct {
	// Enabled turns LLM integration on. When false the store runs
	// relational-only: no embeddings, no reflections (default: true).
	Enabled bool `yaml:"enabled"`

	// OllamaURL is the Ollama API base URL (default: http://localhost:11434).
	OllamaURL string `yaml:"ollama_url"`

	// EmbeddingModel generates embeddings (default: nomic-embed-text).
	EmbeddingModel string `yaml:"embedding_model"`

	// GenerateModel writes session reflections (default: phi3:mini).
	GenerateModel string `yaml:"generate_model"`

	// Timeout bounds a single inference call (default: 10s).
	Timeout time.Duration `yaml:"timeout"`

	// RequestsPerSecond caps outbound inference calls (default: 5).
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// EngineConfig tunes the engine's background behaviour.
type EngineConfig struct {
	// Workers is the number of background worker goroutines (default: 2).
	Workers int `yaml:"workers"`

	// QueueSize buffers background jobs (default: 256).
	QueueSize int `yaml:"queue_size"`

	// ShutdownTimeout bounds the graceful drain on exit (default: 30s).
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MinReflectionMinutes is the minimum session length, in minutes, that
	// qualifies for a generated reflection (default: 15).
	MinReflectionMinutes int `yaml:"min_reflection_minutes"`

	// StaleSessionHours is the age, in hours, after which an open session
	// may be force-closed by the maintenance tool (default: 12).
	StaleSessionHours int `yaml:"stale_session_hours"`
}

// Load reads configuration from the optional file at path (skipped when path
// is empty or the file does not exist) and then applies DEVLOG_* environment
// variables over it.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Storage.VectorBackend {
	case "sqlite", "none":
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("config: postgres vector backend requires a DSN (DEVLOG_POSTGRES_DSN)")
		}
	default:
		return fmt.Errorf("config: unknown vector backend %q (want sqlite, postgres, or none)", c.Storage.VectorBackend)
	}
	if c.Engine.Workers < 1 {
		return fmt.Errorf("config: workers must be >= 1, got %d", c.Engine.Workers)
	}
	return nil
}

// DatabasePath returns the SQLite database file path.
func (c *Config) DatabasePath() string {
	return c.Storage.DataPath + "/devlog.db"
}

func defaults() *Config {
	return &Config{
		Storage: StorageConfig{
			DataPath:      "./data",
			VectorBackend: "sqlite",
		},
		LLM: LLMConfig{
			Enabled:           true,
			OllamaURL:         "http://localhost:11434",
			EmbeddingModel:    "nomic-embed-text",
			GenerateModel:     "phi3:mini",
			Timeout:           10 * time.Second,
			RequestsPerSecond: 5,
		},
		Engine: EngineConfig{
			Workers:              2,
			QueueSize:            256,
			ShutdownTimeout:      30 * time.Second,
			MinReflectionMinutes: 15,
			StaleSessionHours:    12,
		},
	}
}

func applyEnv(cfg *Config) {
	cfg.Storage.DataPath = getEnv("DEVLOG_DATA_PATH", cfg.Storage.DataPath)
	cfg.Storage.VectorBackend = getEnv("DEVLOG_VECTOR_BACKEND", cfg.Storage.VectorBackend)
	cfg.Storage.PostgresDSN = getEnv("DEVLOG_POSTGRES_DSN", cfg.Storage.PostgresDSN)

	cfg.LLM.Enabled = getEnvBool("DEVLOG_LLM_ENABLED", cfg.LLM.Enabled)
	cfg.LLM.OllamaURL = getEnv("DEVLOG_OLLAMA_URL", cfg.LLM.OllamaURL)
	cfg.LLM.EmbeddingModel = getEnv("DEVLOG_EMBEDDING_MODEL", cfg.LLM.EmbeddingModel)
	cfg.LLM.GenerateModel = getEnv("DEVLOG_GENERATE_MODEL", cfg.LLM.GenerateModel)
	cfg.LLM.Timeout = getEnvDuration("DEVLOG_LLM_TIMEOUT", cfg.LLM.Timeout)
	if v := os.Getenv("DEVLOG_LLM_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.LLM.RequestsPerSecond = f
		}
	}

	cfg.Engine.Workers = getEnvInt("DEVLOG_WORKERS", cfg.Engine.Workers)
	cfg.Engine.QueueSize = getEnvInt("DEVLOG_QUEUE_SIZE", cfg.Engine.QueueSize)
	cfg.Engine.ShutdownTimeout = getEnvDuration("DEVLOG_SHUTDOWN_TIMEOUT", cfg.Engine.ShutdownTimeout)
	cfg.Engine.MinReflectionMinutes = getEnvInt("DEVLOG_MIN_REFLECTION_MINUTES", cfg.Engine.MinReflectionMinutes)
	cfg.Engine.StaleSessionHours = getEnvInt("DEVLOG_STALE_SESSION_HOURS", cfg.Engine.StaleSessionHours)
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default
// value. Unparseable values fall back to the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool recognizes "true", "1", "yes" and "false", "0", "no".
func getEnvBool(key string, defaultValue bool) bool {
	switch os.Getenv(key) {
	case "true", "1", "yes", "True", "TRUE", "Yes", "YES":
		return true
	case "false", "0", "no", "False", "FALSE", "No", "NO":
		return false
	}
	return defaultValue
}

// getEnvDuration parses a Go duration string ("30s", "5m").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
