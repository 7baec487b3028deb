package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	BackendConfig
	GatekeeperConfig
	DevBackendConfig
	CLIConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	IsDev() bool
}

type mainConfig struct {
	EnvVars
	Gatekeeper
	DevBackend
	CLI
}

// New loads an optional .env file and parses the process environment.
func New(dotenvFiles ...string) (Config, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}
	if err := godotenv.Load(dotenvFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load dotenv: %w", err)
	}

	var c mainConfig
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return c, nil
}

// Defaults returns the configuration with every variable at its default,
// ignoring the process environment.
func Defaults() Config {
	return MustParse(map[string]string{})
}

// MustParse builds a configuration from an explicit variable map. Used by tests.
func MustParse(vars map[string]string) Config {
	var c mainConfig
	if err := env.ParseWithOptions(&c, env.Options{Environment: vars}); err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return c
}
