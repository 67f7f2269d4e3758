package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DefaultEntryURL is the endpoint returning one prompt/image pair per call
const DefaultEntryURL = "https://muses.robr.app/entry"

// DBConfig holds database configuration
type DBConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Enabled reports whether entry history should be kept in Postgres
func (c DBConfig) Enabled() bool {
	return c.Host != ""
}

// Config holds all configuration for the application
type Config struct {
	EntryURL        string
	HTTPTimeout     time.Duration
	HTTPRetryMax    int
	ImageDir        string
	FramePath       string
	DisplayWidth    int
	DisplayHeight   int
	RefreshSchedule string
	ListenAddr      string
	LogLevel        string
	ImageCacheSize  int
	ImageCacheTTL   time.Duration
	DB              DBConfig
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// A missing .env file is fine, the environment alone is enough
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	return FromEnv()
}

// FromEnv builds the configuration from the current process environment
func FromEnv() (*Config, error) {
	config := &Config{
		EntryURL:        getEnv("ENTRY_URL", DefaultEntryURL),
		ImageDir:        getEnv("IMAGE_DIR", "images"),
		FramePath:       getEnv("FRAME_PATH", "frame.png"),
		RefreshSchedule: getEnv("REFRESH_SCHEDULE", "0 0 * * * *"),
		ListenAddr:      getEnv("LISTEN_ADDR", ":8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}

	config.HTTPTimeout = getEnvSeconds("HTTP_TIMEOUT", 10*time.Second)
	config.HTTPRetryMax = getEnvInt("HTTP_RETRY_MAX", 0)

	// Inky Impression 7.3" panel resolution
	config.DisplayWidth = getEnvInt("DISPLAY_WIDTH", 800)
	config.DisplayHeight = getEnvInt("DISPLAY_HEIGHT", 480)

	config.ImageCacheSize = getEnvInt("IMAGE_CACHE_SIZE", 16)
	config.ImageCacheTTL = getEnvSeconds("IMAGE_CACHE_TTL", time.Hour)

	// Load database configuration
	dbConfig := DBConfig{
		Host:     os.Getenv("DB_HOST"),
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		Database: os.Getenv("DB_NAME"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	dbConfig.Port = getEnvInt("DB_PORT", 5432)
	dbConfig.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 5)
	dbConfig.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 5)
	dbConfig.ConnMaxLifetime = getEnvSeconds("DB_CONN_MAX_LIFETIME", 5*time.Minute)

	config.DB = dbConfig

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks required fields and value ranges
func (c *Config) Validate() error {
	if c.EntryURL == "" {
		return fmt.Errorf("ENTRY_URL is required")
	}
	if c.ImageDir == "" {
		return fmt.Errorf("IMAGE_DIR is required")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if c.HTTPRetryMax < 0 {
		return fmt.Errorf("HTTP_RETRY_MAX must not be negative")
	}
	if c.DisplayWidth <= 0 || c.DisplayHeight <= 0 {
		return fmt.Errorf("DISPLAY_WIDTH and DISPLAY_HEIGHT must be positive")
	}
	if c.ImageCacheSize <= 0 {
		return fmt.Errorf("IMAGE_CACHE_SIZE must be positive")
	}

	// Validate database configuration only when history is enabled
	if !c.DB.Enabled() {
		return nil
	}
	if c.DB.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if c.DB.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.DB.Database == "" {
		return fmt.Errorf("DB_NAME is required")
	}

	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Database, c.DB.SSLMode)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return def
}

// getEnvSeconds reads a whole number of seconds
func getEnvSeconds(key string, def time.Duration) time.Duration {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}
