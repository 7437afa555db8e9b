package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv   string
	LogLevel string

	HTTPHost        string
	HTTPPort        int
	HTTPLogRequests bool

	UploadMaxBytes   int
	UploadRatePerMin int
	DatasetTTLMin    int
	StoreSweepSec    int

	// AuditAsOf pins the audit reference date; zero means today.
	AuditAsOf time.Time
	OutputDir string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	asOf, err := getEnvDate("AUDIT_AS_OF")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		HTTPHost:        getEnv("HTTP_HOST", "0.0.0.0"),
		HTTPPort:        getEnvInt("HTTP_PORT", 8080),
		HTTPLogRequests: getEnvBool("HTTP_LOG_REQUESTS", true),

		UploadMaxBytes:   getEnvInt("UPLOAD_MAX_BYTES", 10<<20),
		UploadRatePerMin: getEnvInt("UPLOAD_RATE_PER_MIN", 30),
		DatasetTTLMin:    getEnvInt("DATASET_TTL_MIN", 60),
		StoreSweepSec:    getEnvInt("STORE_SWEEP_SEC", 60),

		AuditAsOf: asOf,
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),
	}

	return cfg, nil
}

func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.HTTPHost, c.HTTPPort)
}

func (c Config) DatasetTTL() time.Duration {
	return time.Duration(c.DatasetTTLMin) * time.Minute
}

func (c Config) StoreSweepInterval() time.Duration {
	return time.Duration(c.StoreSweepSec) * time.Second
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}

// getEnvDate reads a YYYY-MM-DD value. Unset is the zero time and a malformed
// value is an error.
func getEnvDate(key string) (time.Time, error) {
	value := strings.TrimSpace(getEnv(key, ""))
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation("2006-01-02", value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: want YYYY-MM-DD", key, value)
	}
	return t, nil
}
