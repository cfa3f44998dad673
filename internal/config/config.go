package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DirectoryMemory   = "memory"
	DirectoryPostgres = "postgres"
)

// Config holds the server settings read from the environment
type Config struct {
	ServerPort    string
	JWTSecret     string
	JWTExpHours   int64
	UserDirectory string
	DB            *DBConfig
	SessionDir    string
	SeedDemoUsers bool
	ClientIdleTTL time.Duration
	LogLevel      string
	CORSOrigin    string
	SecureCookie  bool
}

// Load reads the configuration from environment variables. Call godotenv
// first if a .env file should be honoured.
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:    getEnv("SERVER_PORT", "8080"),
		JWTSecret:     os.Getenv("JWT_SECRET_KEY"),
		UserDirectory: strings.ToLower(getEnv("USER_DIRECTORY", DirectoryMemory)),
		SessionDir:    os.Getenv("SESSION_DIR"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		CORSOrigin:    os.Getenv("CORS_ORIGIN"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY not set in environment")
	}

	var err error
	if cfg.JWTExpHours, err = getInt("JWT_EXPIRATION_HOURS", 24); err != nil {
		return nil, err
	}
	idleMinutes, err := getInt("CLIENT_IDLE_TTL_MINUTES", 120)
	if err != nil {
		return nil, err
	}
	if idleMinutes <= 0 {
		return nil, fmt.Errorf("invalid CLIENT_IDLE_TTL_MINUTES: must be positive, got %d", idleMinutes)
	}
	cfg.ClientIdleTTL = time.Duration(idleMinutes) * time.Minute
	if cfg.SeedDemoUsers, err = getBool("SEED_DEMO_USERS", true); err != nil {
		return nil, err
	}
	if cfg.SecureCookie, err = getBool("SECURE_COOKIE", false); err != nil {
		return nil, err
	}

	switch cfg.UserDirectory {
	case DirectoryMemory:
	case DirectoryPostgres:
		if cfg.DB, err = LoadDBConfig(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("USER_DIRECTORY must be %q or %q, got %q", DirectoryMemory, DirectoryPostgres, cfg.UserDirectory)
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
