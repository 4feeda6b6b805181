package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	ServerPort    string
	StorageDriver string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// RedisURL is optional. When set, sessions and social events go through Redis.
	RedisURL    string
	WorkerCount int

	SessionSecret string
	SessionMaxAge int // seconds
	CookieSecure  bool
	FrontendURL   string

	SpotifyClientID     string
	SpotifyClientSecret string
	SpotifyRedirectURI  string
	SpotifyAPIBase      string
	UpstreamTimeout     time.Duration

	// TokenSealKey encrypts upstream credentials at rest in Postgres.
	TokenSealKey string

	LogLevel  string
	LogFormat string
	LogFile   string
}

func LoadConfig() (*Config, error) {
	return LoadConfigWith(nil)
}

// LoadConfigWith applies override, typically command-line flags, before
// validating.
func LoadConfigWith(override func(*Config)) (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	sessionMaxAge, err := strconv.Atoi(os.Getenv("SESSION_MAX_AGE"))
	if err != nil || sessionMaxAge <= 0 {
		sessionMaxAge = 604800
	}

	workerCount, err := strconv.Atoi(os.Getenv("WORKER_COUNT"))
	if err != nil || workerCount <= 0 {
		workerCount = 2
	}

	upstreamTimeout, err := time.ParseDuration(os.Getenv("UPSTREAM_TIMEOUT"))
	if err != nil || upstreamTimeout <= 0 {
		upstreamTimeout = 10 * time.Second
	}

	cfg := &Config{
		ServerPort:    getEnv("SERVER_PORT", "5000"),
		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", StorageMemory)),

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSSLMode:  getEnv("DB_SSLMODE", "require"),

		RedisURL:    os.Getenv("REDIS_URL"),
		WorkerCount: workerCount,

		SessionSecret: os.Getenv("SESSION_SECRET"),
		SessionMaxAge: sessionMaxAge,
		CookieSecure:  os.Getenv("COOKIE_SECURE") == "true",
		FrontendURL:   getEnv("FRONTEND_URL", "/"),

		SpotifyClientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
		SpotifyClientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),
		SpotifyRedirectURI:  os.Getenv("SPOTIFY_REDIRECT_URI"),
		SpotifyAPIBase:      getEnv("SPOTIFY_API_BASE", "https://api.spotify.com/v1"),
		UpstreamTimeout:     upstreamTimeout,

		TokenSealKey: os.Getenv("TOKEN_SEAL_KEY"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
		LogFile:   os.Getenv("LOG_FILE"),
	}

	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings the selected storage driver depends on.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageMemory:
	case StoragePostgres:
		if c.DBHost == "" || c.DBName == "" {
			return fmt.Errorf("DB_HOST and DB_NAME are required for storage driver %q", c.StorageDriver)
		}
		if c.TokenSealKey == "" {
			return fmt.Errorf("TOKEN_SEAL_KEY is required for storage driver %q", c.StorageDriver)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
