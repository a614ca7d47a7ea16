package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP
	Addr               string
	CORSOrigins        []string
	RateLimitPerMinute int
	ShutdownTimeout    time.Duration

	// Logging
	AppName   string
	LogLevel  string
	LogFormat string

	// Storage: DB_DSN (Postgres) tiene prioridad sobre SQLITE_PATH; sin ninguno => in-memory.
	DatabaseURL string
	SQLitePath  string

	// Identidad: JWT_SECRET (HS256) o AUTH_VERIFY_URL (IAM remoto); sin ninguno => modo dev.
	JWTSecret     string
	JWTIssuer     string
	AuthVerifyURL string
	AuthAPIKey    string

	// Reglas de negocio de los grants.
	GrantTTL      time.Duration
	ExtendMode    string
	MaxExtendDays int
	SweepInterval time.Duration
}

func Load() Config {
	return Config{
		Addr:               addr(getenv("PORT", "8080")),
		CORSOrigins:        getlist("CORS_ORIGINS"),
		RateLimitPerMinute: getint("RATE_LIMIT_PER_MINUTE", 300),
		ShutdownTimeout:    getdur("SHUTDOWN_TIMEOUT", 10*time.Second),

		AppName:   getenv("APP_NAME", "patient-access"),
		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "text"),

		DatabaseURL: os.Getenv("DB_DSN"),
		SQLitePath:  os.Getenv("SQLITE_PATH"),

		JWTSecret:     os.Getenv("JWT_SECRET"),
		JWTIssuer:     getenv("JWT_ISSUER", "patient-access"),
		AuthVerifyURL: os.Getenv("AUTH_VERIFY_URL"),
		AuthAPIKey:    os.Getenv("AUTH_API_KEY"),

		GrantTTL:      getdur("ACCESS_GRANT_TTL", 30*24*time.Hour),
		ExtendMode:    getenv("ACCESS_EXTEND_MODE", "additive"),
		MaxExtendDays: getint("ACCESS_MAX_EXTEND_DAYS", 365),
		SweepInterval: getdur("ACCESS_SWEEP_INTERVAL", time.Hour),
	}
}

func addr(port string) string {
	port = strings.TrimSpace(port)
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
		slog.Warn("invalid int, using default", "key", k, "value", v, "default", def)
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil && d > 0 {
			return d
		}
		slog.Warn("invalid duration, using default", "key", k, "value", v, "default", def)
	}
	return def
}

func getlist(k string) []string {
	out := []string{}
	for _, v := range strings.Split(os.Getenv(k), ",") {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}
