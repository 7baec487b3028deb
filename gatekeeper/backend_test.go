package gatekeeper_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/jrsteele09/go-fintrack-client/gatekeeper"
	"github.com/jrsteele09/go-fintrack-client/internal/config"
	"github.com/jrsteele09/go-fintrack-client/session"
	"github.com/stretchr/testify/require"
)

type reply struct {
	status int
	body   string
}

type recordedRequest struct {
	method    string
	path      string
	body      string
	header    http.Header
	requestID string
}

// scriptedBackend answers each route from a queue of replies. The last reply
// of a queue repeats.
type scriptedBackend struct {
	lock     sync.Mutex
	routes   map[string][]reply
	handlers map[string]http.HandlerFunc
	calls    map[string]int
	requests []recordedRequest
	server   *httptest.Server
}

func newScriptedBackend(t *testing.T) *scriptedBackend {
	t.Helper()
	b := &scriptedBackend{
		routes:   make(map[string][]reply),
		handlers: make(map[string]http.HandlerFunc),
		calls:    make(map[string]int),
	}
	b.server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.server.Close)
	return b
}

func (b *scriptedBackend) on(route string, replies ...reply) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.routes[route] = replies
}

func (b *scriptedBackend) handle(route string, h http.HandlerFunc) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.handlers[route] = h
}

func (b *scriptedBackend) count(route string) int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.calls[route]
}

func (b *scriptedBackend) recorded(route string) []recordedRequest {
	b.lock.Lock()
	defer b.lock.Unlock()
	var out []recordedRequest
	for _, r := range b.requests {
		if r.method+" "+r.path == route {
			out = append(out, r)
		}
	}
	return out
}

func (b *scriptedBackend) serve(w http.ResponseWriter, r *http.Request) {
	route := r.Method + " " + r.URL.Path
	body, _ := io.ReadAll(r.Body)

	b.lock.Lock()
	b.calls[route]++
	b.requests = append(b.requests, recordedRequest{
		method:    r.Method,
		path:      r.URL.Path,
		body:      string(body),
		header:    r.Header.Clone(),
		requestID: r.Header.Get(gatekeeper.RequestIDHeader),
	})
	h, hasHandler := b.handlers[route]
	queue := b.routes[route]
	var rep reply
	found := len(queue) > 0
	if found {
		rep = queue[0]
		if len(queue) > 1 {
			b.routes[route] = queue[1:]
		}
	}
	b.lock.Unlock()

	if hasHandler {
		h(w, r)
		return
	}
	if !found {
		http.NotFound(w, r)
		return
	}
	if rep.body != "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(rep.status)
	_, _ = io.WriteString(w, rep.body)
}

func (b *scriptedBackend) gatekeeper(t *testing.T, vars map[string]string, opts ...gatekeeper.Option) (*gatekeeper.Gatekeeper, *session.Store) {
	t.Helper()
	env := map[string]string{"BACKEND_URL": b.server.URL}
	for k, v := range vars {
		env[k] = v
	}
	store := session.NewStore()
	gk, err := gatekeeper.New(config.MustParse(env), b.server.Client(), store, opts...)
	require.NoError(t, err)
	return gk, store
}

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(r *http.Request) (*http.Response, error) { return f(r) }
