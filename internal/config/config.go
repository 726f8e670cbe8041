package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

// Config holds all server configuration.
type Config struct {
	Host        string
	Port        string
	LogLevel    string
	GinMode     string
	CORSOrigins []string

	DatabaseURL string
	EnableDB    bool

	Dataset DatasetConfig
	Forest  ForestConfig
}

// DatasetConfig selects where training records come from.
type DatasetConfig struct {
	Source   string // "csv" or "postgres"
	Path     string // file path or http(s) URL
	Encoding string
	Table    string
}

// ForestConfig holds random forest training settings.
type ForestConfig struct {
	Trees    int
	MaxDepth int
	Seed     int64
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// UsesDB reports whether a database pool is needed.
func (c *Config) UsesDB() bool {
	return c.EnableDB || c.Dataset.Source == SourcePostgres
}

// Load reads a .env file when present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Host:        getEnv("HOST", "0.0.0.0"),
		Port:        getEnv("PORT", "5021"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		GinMode:     getEnv("GIN_MODE", "release"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		EnableDB:    strings.EqualFold(getEnv("ENABLE_DB", "false"), "true"),
		Dataset: DatasetConfig{
			Source:   strings.ToLower(getEnv("DATASET_SOURCE", SourceCSV)),
			Path:     getEnv("DATASET_PATH", "disease_symptoms.csv"),
			Encoding: getEnv("DATASET_ENCODING", "utf-8"),
			Table:    getEnv("DATASET_TABLE", "disease_symptoms"),
		},
	}

	var err error
	if cfg.Forest.Trees, err = getEnvInt("FOREST_TREES", 100); err != nil {
		return nil, err
	}
	if cfg.Forest.MaxDepth, err = getEnvInt("FOREST_MAX_DEPTH", 0); err != nil {
		return nil, err
	}
	seed, err := getEnvInt("FOREST_SEED", 42)
	if err != nil {
		return nil, err
	}
	cfg.Forest.Seed = int64(seed)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints. It is run again after flags override
// loaded values.
func (c *Config) Validate() error {
	if _, err := strconv.ParseUint(c.Port, 10, 16); err != nil {
		return fmt.Errorf("PORT must be a number between 0 and 65535, got %q", c.Port)
	}
	switch c.Dataset.Source {
	case SourceCSV:
		if c.Dataset.Path == "" {
			return fmt.Errorf("DATASET_PATH is required when DATASET_SOURCE=%s", SourceCSV)
		}
	case SourcePostgres:
	default:
		return fmt.Errorf("DATASET_SOURCE must be %q or %q, got %q", SourceCSV, SourcePostgres, c.Dataset.Source)
	}
	if c.UsesDB() && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required when ENABLE_DB=true or DATASET_SOURCE=postgres")
	}
	if c.Forest.Trees <= 0 {
		return fmt.Errorf("FOREST_TREES must be positive, got %d", c.Forest.Trees)
	}
	if c.Forest.MaxDepth < 0 {
		return fmt.Errorf("FOREST_MAX_DEPTH must not be negative, got %d", c.Forest.MaxDepth)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
