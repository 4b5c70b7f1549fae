package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env               string        // dev, prod
	HTTPPort          string        // default 8080
	DataDir           string        // where the JSON documents and user files live
	JWTSecret         string        // required in prod
	TokenTTL          time.Duration // session token lifetime
	ShutdownTimeout   time.Duration // graceful shutdown timeout
	BookingWindowDays int           // how far ahead the calendar offers dates
	DoctorPassword    string        // shared roster password
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:               getEnv("APP_ENV", "dev"),
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		DataDir:           getEnv("DATA_DIR", "data"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		TokenTTL:          getDuration("TOKEN_TTL", 12*time.Hour),
		ShutdownTimeout:   getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		BookingWindowDays: getInt("BOOKING_WINDOW_DAYS", 60),
		DoctorPassword:    getEnv("DOCTOR_PASSWORD", "password123"),
	}

	if cfg.JWTSecret == "" {
		if cfg.Env == "prod" {
			return Config{}, errors.New("JWT_SECRET is required in prod")
		}
		cfg.JWTSecret = "dev-only-secret"
	}

	if cfg.BookingWindowDays <= 0 {
		return Config{}, fmt.Errorf("BOOKING_WINDOW_DAYS must be positive, got %d", cfg.BookingWindowDays)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		fmt.Fprintf(os.Stderr, "invalid integer for %s=%q, using default %d\n", key, v, def)
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		fmt.Fprintf(os.Stderr, "invalid duration for %s=%q, using default %s\n", key, v, def)
	}
	return def
}
