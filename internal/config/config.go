package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Session backends understood by the web client.
const (
	SessionBackendCookie   = "cookie"
	SessionBackendPostgres = "postgres"
	SessionBackendRedis    = "redis"
)

const minSessionSecretLen = 32

// Config captures all runtime configuration derived from environment variables.
type Config struct {
	Port             string
	APIBaseURL       string
	APITimeoutSecs   int
	APIRatePerSec    int
	APIBurst         int
	SessionSecret    string
	SessionBackend   string
	SessionMaxAge    int
	SessionSecure    bool
	ReadTimeoutSecs  int
	WriteTimeoutSecs int
	IdleTimeoutSecs  int
	LogLevel         string
	LogFormat        string

	DBURL             string
	DBMaxConns        int
	DBMinConns        int
	DBMaxIdleSecs     int
	DBMaxLifeSecs     int
	DBConnTimeoutSecs int
	DBStatementCache  int
	SessionSweepSecs  int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// LoadDotEnv loads variables from the given .env files when they exist. Values already
// present in the environment win.
func LoadDotEnv(files ...string) error {
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// Load reads configuration from environment variables, applying defaults and validation.
func Load() (Config, error) {
	cfg := Config{
		Port:             getEnv("PORT", "5173"),
		APIBaseURL:       strings.TrimSpace(os.Getenv("API_BASE_URL")),
		APITimeoutSecs:   getEnvInt("API_TIMEOUT_SECS", 10),
		APIRatePerSec:    getEnvInt("API_RATE_PER_SEC", 20),
		APIBurst:         getEnvInt("API_BURST", 10),
		SessionSecret:    os.Getenv("SESSION_SECRET"),
		SessionBackend:   strings.ToLower(getEnv("SESSION_BACKEND", SessionBackendCookie)),
		SessionMaxAge:    getEnvInt("SESSION_MAX_AGE_SECS", 86400*7),
		SessionSecure:    getEnvBool("SESSION_SECURE", false),
		ReadTimeoutSecs:  getEnvInt("SERVER_READ_TIMEOUT", 15),
		WriteTimeoutSecs: getEnvInt("SERVER_WRITE_TIMEOUT", 15),
		IdleTimeoutSecs:  getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "json"),

		DBURL:             os.Getenv("DB_URL"),
		DBMaxConns:        getEnvInt("DB_MAX_CONNS", 10),
		DBMinConns:        getEnvInt("DB_MIN_CONNS", 1),
		DBMaxIdleSecs:     getEnvInt("DB_MAX_CONN_IDLE_SECS", 300),
		DBMaxLifeSecs:     getEnvInt("DB_MAX_CONN_LIFETIME_SECS", 3600),
		DBConnTimeoutSecs: getEnvInt("DB_CONN_TIMEOUT_SECS", 10),
		DBStatementCache:  getEnvInt("DB_STATEMENT_CACHE_CAPACITY", 64),
		SessionSweepSecs:  getEnvInt("SESSION_SWEEP_SECS", 600),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
	}

	if cfg.APIBaseURL == "" {
		return Config{}, fmt.Errorf("API_BASE_URL is required")
	}
	if u, err := url.Parse(cfg.APIBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return Config{}, fmt.Errorf("API_BASE_URL must be an absolute URL")
	}
	if cfg.APITimeoutSecs <= 0 {
		return Config{}, fmt.Errorf("API_TIMEOUT_SECS must be positive")
	}
	if cfg.APIRatePerSec <= 0 {
		return Config{}, fmt.Errorf("API_RATE_PER_SEC must be positive")
	}
	if cfg.APIBurst <= 0 {
		return Config{}, fmt.Errorf("API_BURST must be positive")
	}
	if len(cfg.SessionSecret) < minSessionSecretLen {
		return Config{}, fmt.Errorf("SESSION_SECRET must be at least %d bytes", minSessionSecretLen)
	}
	if cfg.SessionMaxAge <= 0 {
		return Config{}, fmt.Errorf("SESSION_MAX_AGE_SECS must be positive")
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return Config{}, fmt.Errorf("LOG_FORMAT must be json or text")
	}

	switch cfg.SessionBackend {
	case SessionBackendCookie:
	case SessionBackendPostgres:
		if cfg.DBURL == "" {
			return Config{}, fmt.Errorf("DB_URL is required for the postgres session backend")
		}
		if cfg.DBMaxConns <= 0 {
			return Config{}, fmt.Errorf("DB_MAX_CONNS must be positive")
		}
		if cfg.DBMinConns < 0 {
			return Config{}, fmt.Errorf("DB_MIN_CONNS must be non-negative")
		}
		if cfg.DBMinConns > cfg.DBMaxConns {
			return Config{}, fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
		}
		if cfg.DBStatementCache < 0 {
			return Config{}, fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
		}
		if cfg.SessionSweepSecs <= 0 {
			return Config{}, fmt.Errorf("SESSION_SWEEP_SECS must be positive")
		}
	case SessionBackendRedis:
		if cfg.RedisAddr == "" {
			return Config{}, fmt.Errorf("REDIS_ADDR is required for the redis session backend")
		}
		if cfg.RedisDB < 0 {
			return Config{}, fmt.Errorf("REDIS_DB must be non-negative")
		}
	default:
		return Config{}, fmt.Errorf("SESSION_BACKEND must be one of cookie, postgres, redis")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}
