package config

import (
	"fmt"
	"time"
)

type DevBackendConfig interface {
	GetPort() string
	GetIssuer() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetRefreshTokenLength() int
	GetIssueIDTokens() bool
	GetAudience() string
	GetSecureCookies() bool
	GetSeedEmail() string
	GetSeedPassword() string
	GetJWKSPath() string
}

type DevBackend struct {
	Port               string        `env:"PORT" envDefault:"8080"`
	Issuer             string        `env:"DEV_ISSUER" envDefault:"http://localhost:8080"`
	AccessTokenExpiry  time.Duration `env:"DEV_ACCESS_TOKEN_EXPIRY" envDefault:"5m"`
	RefreshTokenExpiry time.Duration `env:"DEV_REFRESH_TOKEN_EXPIRY" envDefault:"168h"`
	RefreshTokenLength int           `env:"DEV_REFRESH_TOKEN_LENGTH" envDefault:"32"`
	IssueIDTokens      bool          `env:"DEV_ISSUE_ID_TOKENS" envDefault:"false"`
	Audience           string        `env:"DEV_AUDIENCE" envDefault:"fintrack"`
	SecureCookies      bool          `env:"DEV_SECURE_COOKIES" envDefault:"false"`
	SeedEmail          string        `env:"DEV_SEED_EMAIL" envDefault:"demo@fintrack.local"`
	SeedPassword       string        `env:"DEV_SEED_PASSWORD" envDefault:"Demo1234" json:"-"`
	JWKSPath           string        `env:"DEV_JWKS_PATH" envDefault:"/.well-known/jwks.json"`
}

var _ DevBackendConfig = DevBackend{}

func (d DevBackend) GetPort() string {
	port := d.Port
	if port == "" {
		port = "8080"
	}
	if port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (d DevBackend) GetIssuer() string {
	return d.Issuer
}

func (d DevBackend) GetAccessTokenExpiry() time.Duration {
	return d.AccessTokenExpiry
}

func (d DevBackend) GetRefreshTokenExpiry() time.Duration {
	return d.RefreshTokenExpiry
}

func (d DevBackend) GetRefreshTokenLength() int {
	return d.RefreshTokenLength // bytes
}

func (d DevBackend) GetIssueIDTokens() bool {
	return d.IssueIDTokens
}

func (d DevBackend) GetAudience() string {
	return d.Audience
}

func (d DevBackend) GetSecureCookies() bool {
	return d.SecureCookies
}

// GetSeedEmail and GetSeedPassword describe the user created at startup.
func (d DevBackend) GetSeedEmail() string {
	return d.SeedEmail
}

func (d DevBackend) GetSeedPassword() string {
	return d.SeedPassword
}

func (d DevBackend) GetJWKSPath() string {
	return d.JWKSPath
}
