package config

import "time"

type CLIConfig interface {
	GetLoginEmail() string
	GetLoginPassword() string
	GetPollInterval() time.Duration
	GetMetricsAddr() string
}

type CLI struct {
	LoginEmail    string        `env:"FINTRACK_EMAIL"`
	LoginPassword string        `env:"FINTRACK_PASSWORD"`
	PollInterval  time.Duration `env:"FINTRACK_POLL_INTERVAL" envDefault:"0s"`
	MetricsAddr   string        `env:"METRICS_ADDR"`
}

var _ CLIConfig = CLI{}

// GetLoginEmail is empty when the CLI should rely on the stored session only.
func (c CLI) GetLoginEmail() string {
	return c.LoginEmail
}

func (c CLI) GetLoginPassword() string {
	return c.LoginPassword
}

// GetPollInterval of zero runs once.
func (c CLI) GetPollInterval() time.Duration {
	return c.PollInterval
}

func (c CLI) GetMetricsAddr() string {
	return c.MetricsAddr
}
