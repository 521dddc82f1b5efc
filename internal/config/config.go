package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type Config struct {
	DatabaseURL   string
	HTTPAddr      string
	LogLevel      string
	Env           string // dev|prod
	SentryDSN     string
	JWTSecret     string
	BotToken      string // если пусто, бот не запускается
	Location      *time.Location
	AuditInterval time.Duration
	DBTimeout     time.Duration
	ReportDir     string
	CORSOrigins   []string
	SeedDemo      bool
}

func Load() (*Config, error) {
	tz := getenv("TZ", "Asia/Riyadh")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.Local
	}

	audit, err := time.ParseDuration(getenv("AUDIT_INTERVAL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("AUDIT_INTERVAL: %w", err)
	}
	dbTimeout, err := time.ParseDuration(getenv("DB_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("DB_TIMEOUT: %w", err)
	}

	cfg := &Config{
		DatabaseURL:   mustEnv("DATABASE_URL"),
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		Env:           getenv("ENV", "dev"),
		SentryDSN:     os.Getenv("SENTRY_DSN"),
		JWTSecret:     mustEnv("JWT_SECRET"),
		BotToken:      os.Getenv("BOT_TOKEN"),
		Location:      loc,
		AuditInterval: audit,
		DBTimeout:     dbTimeout,
		ReportDir:     getenv("REPORT_DIR", filepath.Join(os.TempDir(), "teacher-kpi")),
		CORSOrigins:   splitList(getenv("CORS_ORIGINS", "*")),
		SeedDemo:      os.Getenv("SEED_DEMO") == "true",
	}
	return cfg, nil
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("required env " + k + " is empty")
	}
	return v
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
