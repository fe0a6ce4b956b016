package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int
	LogLevel     slog.Level

	MigrateOnStart bool
	AdminEmail     string
	AdminPassword  string
	TokenTTL       time.Duration

	// StatusSchedulerInterval is zero when the scheduler is disabled.
	StatusSchedulerInterval time.Duration
	CORSAllowedOrigins      []string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	// Отсутствие .env не ошибка.
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(envOr("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL environment variable: %w", err)
	}

	migrateOnStart, err := boolEnv("MIGRATE_ON_START", true)
	if err != nil {
		return nil, err
	}
	tokenTTL, err := durationEnv("TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	schedulerInterval, err := durationEnv("STATUS_SCHEDULER_INTERVAL", 0)
	if err != nil {
		return nil, err
	}
	if schedulerInterval < 0 {
		return nil, fmt.Errorf("STATUS_SCHEDULER_INTERVAL must not be negative")
	}

	cfg := &Config{
		DatabaseURL:             dbURL,
		JWTSecretKey:            jwtKey,
		ServerPort:              port,
		LogLevel:                level,
		MigrateOnStart:          migrateOnStart,
		AdminEmail:              os.Getenv("ADMIN_EMAIL"),
		AdminPassword:           os.Getenv("ADMIN_PASSWORD"),
		TokenTTL:                tokenTTL,
		StatusSchedulerInterval: schedulerInterval,
		CORSAllowedOrigins:      listEnv("CORS_ALLOWED_ORIGINS"),
		R2AccountID:             os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:           os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey:       os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:            os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:         os.Getenv("R2_PUBLIC_BASE_URL"),
	}

	if (cfg.AdminEmail == "") != (cfg.AdminPassword == "") {
		return nil, fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}

	return cfg, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return n, nil
}

func boolEnv(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return b, nil
}

// durationEnv accepts Go durations ("30s", "1h"); "0" disables.
func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return d, nil
}

func listEnv(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
