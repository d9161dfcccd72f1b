package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const envPrefix = "NOTETAKER_"

// LoadEnv loads dotenv files into the process environment. Variables that
// are already set win over file values. Missing files are skipped; with no
// arguments the data dir .env and ./.env are tried.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		if path, err := EnvPath(); err == nil {
			paths = append(paths, path)
		}
		paths = append(paths, ".env")
	}
	existing := make([]string, 0, len(paths))
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return err
		}
		existing = append(existing, path)
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

func envValue(name string) string {
	return strings.TrimSpace(os.Getenv(envPrefix + name))
}

func setFromEnv(dst *string, name string) {
	if value := envValue(name); value != "" {
		*dst = value
	}
}
