package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

const DefaultStateFile = "./.consensus/board-state.db"

type Config struct {
	Log       Log       `yaml:"log"`
	Store     Store     `yaml:"store"`
	Generator Generator `yaml:"generator"`
}

type Log struct {
	// Minimum level written to stderr
	Level string `yaml:"level" example:"info" validate:"oneof=debug info warn error"`
}

type Store struct {
	// SQLite file holding board artifacts
	StateFile string `yaml:"state_file" example:"./.consensus/board-state.db" validate:"required"`
}

type Generator struct {
	// Address of the remote persona generator. Empty selects the built-in pack generator.
	Addr string `yaml:"addr" example:"localhost:50061" validate:"omitempty,hostname_port"`
}

// SlogLevel maps the configured level to a slog.Level.
func (l Log) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load reads path (a missing file is not an error), applies RESPAWN_* env
// overrides, fills defaults and validates the result.
func Load(path string) (*Config, error) {
	var result Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, oops.In("config").With("path", path).Errorf("failed to read config file: %w", err)
		default:
			if err = yaml.Unmarshal(data, &result); err != nil {
				return nil, oops.In("config").With("path", path).Errorf("failed to parse YAML config: %w", err)
			}
		}
	}

	result.Store.StateFile = envOr("RESPAWN_STATE_FILE", result.Store.StateFile)
	result.Generator.Addr = envOr("RESPAWN_GENERATOR_ADDR", result.Generator.Addr)
	result.Log.Level = envOr("RESPAWN_LOG_LEVEL", result.Log.Level)

	if result.Store.StateFile == "" {
		result.Store.StateFile = DefaultStateFile
	}
	if result.Log.Level == "" {
		result.Log.Level = "info"
	}
	result.Log.Level = strings.ToLower(result.Log.Level)

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(result); err != nil {
		return nil, oops.In("config").Errorf("failed to validate config: %w", err)
	}

	return &result, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
