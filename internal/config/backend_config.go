package config

import "time"

type BackendConfig interface {
	GetBackendURL() string
	GetRequestTimeout() time.Duration
	GetMarkerCookie() string
}

type Backend struct {
	URL            string        `env:"BACKEND_URL" envDefault:"http://localhost:8080"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	MarkerCookie   string        `env:"SESSION_MARKER_COOKIE" envDefault:"logged_in"`
}

var _ BackendConfig = Backend{}

func (b Backend) GetBackendURL() string {
	return b.URL
}

// GetRequestTimeout is the transport timeout. The gatekeeper enforces none of
// its own.
func (b Backend) GetRequestTimeout() time.Duration {
	return b.RequestTimeout
}

func (b Backend) GetMarkerCookie() string {
	return b.MarkerCookie
}
