package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// EnvFileVar names a comma-separated list of dotenv files to load. When it
// is unset, ".env" in the working directory is used if present.
const EnvFileVar = "ENV_FILE"

// Load parses environment variables into the provided struct.
// The struct should use `env` tags to define mappings. Dotenv files are
// applied first; variables already set in the process environment win.
//
// Example:
//
//	type Config struct {
//	    Port     int    `env:"HTTP_PORT" envDefault:"8080"`
//	    LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
//	}
func Load(cfg any) error {
	if err := loadDotEnv(); err != nil {
		return err
	}
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func loadDotEnv() error {
	files := []string{".env"}
	explicit := false
	if v := strings.TrimSpace(os.Getenv(EnvFileVar)); v != "" {
		files = strings.Split(v, ",")
		explicit = true
	}
	for _, f := range files {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			if !explicit && errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load env file %s: %w", f, err)
		}
	}
	return nil
}
