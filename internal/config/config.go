package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Port        int
	LogLevel    string
	LogFormat   string
	ServiceName string
	Version     string
	Environment string

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// RollWindowSeconds selects the roll allowance mode: > 0 enables the
	// sliding window of that length, 0 falls back to calendar-day counting.
	RollWindowSeconds int

	// RemindersEnabled gates the background reminder loop.
	RemindersEnabled bool

	// CatalogPath points at the JSON character catalog; PacksDir at the
	// directory of custom pack files. Both optional.
	CatalogPath string
	PacksDir    string

	// ProUserIDs marks accounts on the pro tier until a billing
	// integration replaces the static mapping.
	ProUserIDs []int64
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:      getEnv("LOG_LEVEL", "INFO"),
		LogFormat:     getEnv("LOG_FORMAT", "text"),
		ServiceName:   getEnv("SERVICE_NAME", "companion-core"),
		Version:       getEnv("SERVICE_VERSION", "dev"),
		Environment:   getEnv("ENVIRONMENT", "dev"),
		CatalogPath:   getEnv("CATALOG_PATH", ""),
		PacksDir:      getEnv("PACKS_DIR", ""),
		DBUser:        getEnv("DB_USER", "postgres"),
		DBPassword:    getEnv("DB_PASSWORD", "postgres"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBName:        getEnv("DB_NAME", "companioncore"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
	}

	port, err := getEnvInt("PORT", 8080)
	if err != nil {
		return nil, err
	}
	cfg.Port = port

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	cfg.RedisDB = redisDB

	cfg.RollWindowSeconds = rollWindowSeconds()
	cfg.RemindersEnabled = getEnv("REMINDERS_ENABLED", "true") != "false"

	ids, err := parseUserIDs(os.Getenv("PRO_USER_IDS"))
	if err != nil {
		return nil, err
	}
	cfg.ProUserIDs = ids

	return cfg, nil
}

// parseUserIDs parses a comma-separated list of user ids.
func parseUserIDs(raw string) ([]int64, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid PRO_USER_IDS entry %q: %w", p, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// rollWindowSeconds reads ROLL_WINDOW_SECONDS. Empty means the default
// 5-hour window; "0" or anything non-numeric selects calendar-day mode.
func rollWindowSeconds() int {
	raw := os.Getenv("ROLL_WINDOW_SECONDS")
	if raw == "" {
		return DefaultRollWindowSeconds
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) (int, error) {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return n, nil
}

// GetDBConnString returns the PostgreSQL connection string
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}
