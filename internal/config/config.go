// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is read from the environment once at startup; binaries load a .env
// file first when one is present.
type Config struct {
	ServerAddr string
	AppBaseURL string

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	EmailBaseURL   string
	EmailSender    string
	EmailAuthToken string
	EmailTimeout   time.Duration

	WorkerCount   int
	PollInterval  time.Duration
	RetryInterval time.Duration
}

func Load() Config {
	return Config{
		ServerAddr: getenv("SERVER_ADDR", ":8080"),
		AppBaseURL: getenv("APP_BASE_URL", "http://localhost:8080"),

		DBUser:     getenv("DB_USER", "user"),
		DBPassword: getenv("DB_PASSWORD", "pass"),
		DBHost:     getenv("DB_HOST", "localhost"),
		DBPort:     getenv("DB_PORT", "5432"),
		DBName:     getenv("DB_NAME", "newsletter"),

		EmailBaseURL:   getenv("EMAIL_BASE_URL", "http://localhost:8025"),
		EmailSender:    getenv("EMAIL_SENDER", "newsletter@example.com"),
		EmailAuthToken: getenv("EMAIL_AUTH_TOKEN", ""),
		EmailTimeout:   getduration("EMAIL_TIMEOUT", 10*time.Second),

		WorkerCount:   getint("WORKER_COUNT", 1),
		PollInterval:  getduration("WORKER_POLL_INTERVAL", 10*time.Second),
		RetryInterval: getduration("WORKER_RETRY_INTERVAL", time.Second),
	}
}

// DSN builds the postgres connection string.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getduration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
