// Package config reads the service settings from the environment. A .env file in the
// working directory is loaded first when present; variables already set win.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                  string
	RateTablesFile        string
	DepartmentRegistryURL string
	GeminiAPIKey          string
	GeminiModel           string
	MaxUploadMB           int
}

const (
	defaultPort        = "8080"
	defaultMaxUploadMB = 20
)

// Load reads .env files (all optional) and then the environment.
func Load(envFiles ...string) Config {
	godotenv.Load(envFiles...)
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from a lookup function. Invalid or missing values
// fall back to the defaults.
func FromEnv(getenv func(string) string) Config {
	cfg := Config{
		Port:                  getenv("PORT"),
		RateTablesFile:        getenv("RATE_TABLES_FILE"),
		DepartmentRegistryURL: getenv("DEPARTMENT_REGISTRY_URL"),
		GeminiAPIKey:          getenv("GEMINI_API_KEY"),
		GeminiModel:           getenv("GEMINI_MODEL"),
		MaxUploadMB:           defaultMaxUploadMB,
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if n, err := strconv.Atoi(getenv("MAX_UPLOAD_MB")); err == nil && n > 0 {
		cfg.MaxUploadMB = n
	}
	return cfg
}

// MaxUploadBytes is the upload limit in bytes.
func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}
