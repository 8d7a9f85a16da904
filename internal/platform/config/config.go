package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config captures everything the server needs at startup. It is built once in
// main and passed to the components that need it; nothing reads the
// environment after this.
type Config struct {
	Addr          string
	DatabaseURL   string
	RedisURL      string
	JWTSigningKey string
	TokenTTL      time.Duration
	BcryptCost    int
	LogLevel      slog.Level
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	addr := os.Getenv("TASKBOARD_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default - must be overridden in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	tokenTTL := 7 * 24 * time.Hour
	if raw := os.Getenv("TOKEN_TTL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			tokenTTL = d
		}
	}

	bcryptCost := 12
	if raw := os.Getenv("BCRYPT_COST"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			bcryptCost = n
		}
	}

	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}

	return Config{
		Addr:          addr,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		JWTSigningKey: jwtSigningKey,
		TokenTTL:      tokenTTL,
		BcryptCost:    bcryptCost,
		LogLevel:      level,
	}
}
