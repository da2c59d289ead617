package env

import (
	"errors"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// Load reads a .env file into the process environment before viper binds
// env vars. The path may be overridden with ENV_PATH. A missing file is
// fine outside local development; credentials come from the real
// environment there.
func Load(defaultPath string) error {
	path := defaultPath
	if p := os.Getenv("ENV_PATH"); p != "" {
		path = p
	}

	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Debug("no .env file, relying on process environment", "path", path)
			return nil
		}
		return err
	}
	slog.Debug("loaded environment file", "path", path)
	return nil
}
