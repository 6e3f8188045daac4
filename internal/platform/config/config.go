package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Load reads environment variables from the given .env files (".env" when
// none are passed). A missing file is not fatal; callers fall back to the
// process environment and defaults.
func Load(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	return godotenv.Load(paths...)
}

// Get returns the environment variable named by key, or fallback if it is
// unset or empty.
func Get(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// GetInt returns the integer value of the environment variable named by key,
// or fallback if it is unset, empty, or not a valid integer.
func GetInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}
