package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds process-wide settings for the CLI and the HTTP server.
type Config struct {
	Port        string
	StaticDir   string
	LogLevel    string
	MaxUploadMB int
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Port:        "8080",
		LogLevel:    "info",
		MaxUploadMB: 32,
	}
}

// Load reads an optional .env file and then the environment.
// A missing .env is not an error.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := Default()
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		cfg.Port = v
	}
	if v := strings.TrimSpace(os.Getenv("STATIC_DIR")); v != "" {
		cfg.StaticDir = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("MAX_UPLOAD_MB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("MAX_UPLOAD_MB must be a positive integer, got %q", v)
		}
		cfg.MaxUploadMB = n
	}

	return cfg, nil
}

// BodyLimit returns the upload limit in bytes.
func (c Config) BodyLimit() int {
	return c.MaxUploadMB << 20
}
