package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Database   DatabaseConfig
	Redis      RedisConfig
	Server     ServerConfig
	Recommend  RecommendConfig
	Evaluation EvaluationConfig
	Catalog    CatalogConfig
	Logging    LoggingConfig
}

// DatabaseConfig selects and configures the catalog store
type DatabaseConfig struct {
	Driver             string // postgres or sqlite3
	DSN                string // full connection string, preferred over the fields below
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
	SQLitePath         string
	EnableVectors      bool
}

// RedisConfig holds the weight store configuration
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	PoolSize int
	Prefix   string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

// RecommendConfig holds retrieval defaults
type RecommendConfig struct {
	DefaultTopK   int
	MaxTopK       int
	MinSimilarity float64
	Workers       int
}

// EvaluationConfig holds evaluation defaults
type EvaluationConfig struct {
	DefaultK int
	Seed     int64
}

// CatalogConfig points at an optional spreadsheet imported into an empty store
type CatalogConfig struct {
	SeedFile string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		Database: DatabaseConfig{
			Driver:             getEnv("DB_DRIVER", "sqlite3"),
			DSN:                getEnv("DATABASE_URL", getEnv("PG_DSN", "")),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "phonecbr"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 25),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
			SQLitePath:         getEnv("SQLITE_PATH", "phonecbr.db"),
			EnableVectors:      getEnvAsBool("PG_ENABLE_VECTORS", false),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			PoolSize: getEnvAsInt("REDIS_POOL_SIZE", 10),
			Prefix:   getEnv("REDIS_PREFIX", "phonecbr:"),
		},
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods: getEnv("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS"),
			AllowedHeaders: getEnv("CORS_ALLOWED_HEADERS", "Content-Type,Authorization"),
		},
		Recommend: RecommendConfig{
			DefaultTopK:   getEnvAsInt("RECOMMEND_DEFAULT_TOP_K", 10),
			MaxTopK:       getEnvAsInt("RECOMMEND_MAX_TOP_K", 50),
			MinSimilarity: getEnvAsFloat("RECOMMEND_MIN_SIMILARITY", 0),
			Workers:       getEnvAsInt("RECOMMEND_WORKERS", 0),
		},
		Evaluation: EvaluationConfig{
			DefaultK: getEnvAsInt("EVAL_DEFAULT_K", 5),
			Seed:     int64(getEnvAsInt("EVAL_SEED", 42)),
		},
		Catalog: CatalogConfig{
			SeedFile: getEnv("CATALOG_SEED_FILE", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	switch cfg.Database.Driver {
	case "postgres", "sqlite3":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (want postgres or sqlite3)", cfg.Database.Driver)
	}
	if cfg.Recommend.MinSimilarity < 0 || cfg.Recommend.MinSimilarity > 1 {
		return nil, fmt.Errorf("RECOMMEND_MIN_SIMILARITY must be within [0, 1], got %g", cfg.Recommend.MinSimilarity)
	}

	return cfg, nil
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// CORSList splits a comma separated CORS setting.
func CORSList(value string) []string {
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float value for %s, using default %f", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean value for %s, using default %t", key, defaultValue)
		return defaultValue
	}
	return value
}
