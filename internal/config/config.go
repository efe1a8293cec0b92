// Package config loads Tempo's runtime configuration from the environment.
package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Config holds the runtime settings for the server.
type Config struct {
	// DataDir is where the SQLite database lives.
	DataDir string
	// DefaultUser owns rows created by tool calls that don't name a user.
	DefaultUser string
}

// Load reads configuration from a .env file (if present) and the
// environment. Missing values fall back to defaults under the home
// directory.
func Load() Config {
	// Best-effort: a missing .env is the normal case.
	_ = godotenv.Load()

	cfg := Config{
		DataDir:     os.Getenv("TEMPO_DATA_DIR"),
		DefaultUser: os.Getenv("TEMPO_USER"),
	}
	if cfg.DataDir == "" {
		home, _ := os.UserHomeDir()
		cfg.DataDir = filepath.Join(home, ".tempo")
	}
	if cfg.DefaultUser == "" {
		cfg.DefaultUser = "default"
	}
	return cfg
}
