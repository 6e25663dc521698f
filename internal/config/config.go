package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Session persistence backends.
const (
	SessionBackendFile   = "file"
	SessionBackendRedis  = "redis"
	SessionBackendMemory = "memory"
)

// Config holds all application configuration.
type Config struct {
	APIURL         string
	RequestTimeout time.Duration
	LogLevel       string
	LogFormat      string
	SessionBackend string
	SessionFile    string
	RedisURL       string
	SyncBuffer     int
	MaxUploadBytes int64
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load() // .env is optional

	return &Config{
		APIURL:         strings.TrimRight(getEnv("API_URL", "http://localhost:5000/api"), "/"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 10)) * time.Second,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "pretty"),
		SessionBackend: parseBackend(getEnv("SESSION_BACKEND", SessionBackendFile)),
		SessionFile:    getEnv("SESSION_FILE", defaultSessionFile()),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379/0"),
		SyncBuffer:     getEnvInt("SYNC_BUFFER", 16),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_SIZE_MB", 10)) * 1024 * 1024,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// parseBackend normalizes the backend name, falling back to the file store
// for anything unrecognized.
func parseBackend(raw string) string {
	switch b := strings.ToLower(strings.TrimSpace(raw)); b {
	case SessionBackendFile, SessionBackendRedis, SessionBackendMemory:
		return b
	default:
		return SessionBackendFile
	}
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".examtester-session.json"
	}
	return filepath.Join(home, ".examtester", "session.json")
}
