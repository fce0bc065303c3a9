package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	AppName string
	Env     string
	Host    string
	Port    int

	// Storage backend: "sqlite" (default) or "postgres".
	DBDriver    string
	SQLitePath  string
	DatabaseURL string

	JWTSecret          string
	AccessTokenMinutes int
	RememberMeDays     int

	CampusEmailDomain       string
	VerificationTTLMinutes  int
	VerificationMaxAttempts int

	MaxMessageLength int
	MessageWindow    int

	CORSOrigins []string
	LogLevel    string
	LogEncoding string
}

func Load() (*Config, error) {
	// Best-effort .env loading; real env vars win.
	_ = godotenv.Load()

	cfg := &Config{
		AppName: getEnv("APP_NAME", "dulif API"),
		Env:     getEnv("APP_ENV", "development"),
		Host:    getEnv("HTTP_HOST", "0.0.0.0"),
		Port:    getEnvAsInt("HTTP_PORT", 8000),

		DBDriver:   getEnv("DB_DRIVER", "sqlite"),
		SQLitePath: getEnv("SQLITE_PATH", "dulif.db"),

		JWTSecret:          os.Getenv("JWT_SECRET"),
		AccessTokenMinutes: getEnvAsInt("ACCESS_TOKEN_EXPIRE_MINUTES", 60*24),
		RememberMeDays:     getEnvAsInt("REMEMBER_ME_TOKEN_EXPIRE_DAYS", 30),

		CampusEmailDomain:       getEnv("CAMPUS_EMAIL_DOMAIN", "berkeley.edu"),
		VerificationTTLMinutes:  getEnvAsInt("VERIFICATION_CODE_TTL_MINUTES", 10),
		VerificationMaxAttempts: getEnvAsInt("VERIFICATION_MAX_ATTEMPTS", 3),

		MaxMessageLength: getEnvAsInt("MAX_MESSAGE_LENGTH", 500),
		MessageWindow:    getEnvAsInt("MESSAGE_WINDOW", 100),

		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogEncoding: getEnv("LOG_ENCODING", "json"),
	}

	switch cfg.DBDriver {
	case "sqlite":
	case "postgres":
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
		if cfg.DatabaseURL == "" {
			u := url.URL{
				Scheme: "postgres",
				User: url.UserPassword(
					getEnv("POSTGRES_USER", "postgres"),
					getEnv("POSTGRES_PASSWORD", "postgres"),
				),
				Host:     fmt.Sprintf("%s:%s", getEnv("POSTGRES_HOST", "localhost"), getEnv("POSTGRES_PORT", "5432")),
				Path:     getEnv("POSTGRES_DB", "dulif"),
				RawQuery: "sslmode=disable",
			}
			cfg.DatabaseURL = u.String()
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	cors := getEnv("CORS_ORIGINS", "")
	if cors != "" {
		parts := strings.Split(cors, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		cfg.CORSOrigins = parts
	} else {
		cfg.CORSOrigins = []string{"http://localhost:3000"}
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.CampusEmailDomain == "" {
		return nil, fmt.Errorf("CAMPUS_EMAIL_DOMAIN must not be empty")
	}

	return cfg, nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvAsInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}
