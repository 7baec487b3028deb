package devbackend_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/go-fintrack-client/devbackend"
	"github.com/jrsteele09/go-fintrack-client/gatekeeper"
	"github.com/jrsteele09/go-fintrack-client/internal/config"
	"github.com/jrsteele09/go-fintrack-client/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const (
	seedEmail    = "demo@fintrack.local"
	seedPassword = "Demo1234"
)

type harness struct {
	backend *devbackend.Server
	server  *httptest.Server
	config  config.Config
}

// newHarness starts a backend whose issuer is its own URL.
func newHarness(t *testing.T, vars map[string]string) *harness {
	t.Helper()
	h := &harness{}
	h.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.backend.ServeHTTP(w, r)
	}))
	t.Cleanup(h.server.Close)

	env := map[string]string{
		"BACKEND_URL": h.server.URL,
		"DEV_ISSUER":  h.server.URL,
	}
	for k, v := range vars {
		env[k] = v
	}
	h.config = config.MustParse(env)

	backend, err := devbackend.New(h.config)
	require.NoError(t, err)
	h.backend = backend
	return h
}

// client returns a gatekeeper with its own cookie jar.
func (h *harness) client(t *testing.T, opts ...gatekeeper.Option) (*gatekeeper.Gatekeeper, *session.Store, http.CookieJar) {
	t.Helper()
	httpClient, jar, err := gatekeeper.NewHTTPClient(h.config)
	require.NoError(t, err)
	gk, store := h.clientWithJar(t, httpClient, opts...)
	return gk, store, jar
}

func (h *harness) clientWithJar(t *testing.T, httpClient *http.Client, opts ...gatekeeper.Option) (*gatekeeper.Gatekeeper, *session.Store) {
	t.Helper()
	store := session.NewStore()
	gk, err := gatekeeper.New(h.config, httpClient, store, opts...)
	require.NoError(t, err)
	return gk, store
}

// requests reads the backend's request counter for a route pattern and status.
func requests(t *testing.T, g prometheus.Gatherer, route, status string) float64 {
	t.Helper()
	families, err := g.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "fintrack_devbackend_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["route"] == route && labels["status"] == status {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}
