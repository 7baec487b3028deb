package gatekeeper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-fintrack-client/internal/config"
	"github.com/jrsteele09/go-fintrack-client/session"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// RequestIDHeader carries a per-call correlation id to the backend.
const RequestIDHeader = "X-Request-ID"

// maxBodySize bounds how much of a response body is buffered. Larger bodies
// fail the call rather than being cut short.
const maxBodySize = 10 << 20

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Gatekeeper sends authenticated requests and runs the refresh protocol on
// authorization failures. It is safe for concurrent use.
type Gatekeeper struct {
	config      config.GatekeeperConfig
	baseURL     *url.URL
	authFailure map[int]struct{}
	doer        Doer
	store       *session.Store
	logger      zerolog.Logger
	metrics     *Metrics
	verifier    IDTokenVerifier
	coalesce    bool
	flight      singleflight.Group
	newID       func() string
}

type Option func(*Gatekeeper)

func WithLogger(logger zerolog.Logger) Option {
	return func(g *Gatekeeper) { g.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(g *Gatekeeper) { g.metrics = m }
}

// WithIDTokenVerifier makes identity payloads that carry an idToken authoritative
// only after verification.
func WithIDTokenVerifier(v IDTokenVerifier) Option {
	return func(g *Gatekeeper) { g.verifier = v }
}

// WithRequestIDs overrides the request id generator.
func WithRequestIDs(fn func() string) Option {
	return func(g *Gatekeeper) { g.newID = fn }
}

// New creates a Gatekeeper sending through doer and publishing to store.
func New(cfg config.GatekeeperConfig, doer Doer, store *session.Store, opts ...Option) (*Gatekeeper, error) {
	if store == nil {
		return nil, ErrMissingSessionStore
	}
	baseURL, err := url.Parse(cfg.GetBackendURL())
	if err != nil || baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBackendURL, cfg.GetBackendURL())
	}
	if doer == nil {
		doer = &http.Client{Timeout: cfg.GetRequestTimeout()}
	}

	g := &Gatekeeper{
		config:      cfg,
		baseURL:     baseURL,
		authFailure: make(map[int]struct{}),
		doer:        doer,
		store:       store,
		logger:      zerolog.Nop(),
		coalesce:    cfg.GetCoalesceRefresh(),
		newID:       uuid.NewString,
	}
	for _, status := range cfg.GetAuthFailureStatuses() {
		g.authFailure[status] = struct{}{}
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *Gatekeeper) Session() *session.Store {
	return g.store
}

func (g *Gatekeeper) BaseURL() *url.URL {
	u := *g.baseURL
	return &u
}

func (g *Gatekeeper) isAuthFailure(status int) bool {
	_, ok := g.authFailure[status]
	return ok
}

func (g *Gatekeeper) bypasses(req *Request) bool {
	return req.SkipReauth || req.refreshed || req.Path == g.config.GetRefreshPath()
}

// Send dispatches req. On an authorization failure it refreshes the session at
// most once and replays req at most once. Expected failures are reported
// through Response.Outcome; an error means the transport failed or a response
// could not be understood.
func (g *Gatekeeper) Send(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()
	resp, err := g.send(ctx, req)
	g.metrics.observeSend(resp, err, time.Since(start))
	return resp, err
}

func (g *Gatekeeper) send(ctx context.Context, req *Request) (*Response, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	payload, err := req.encodeBody()
	if err != nil {
		return nil, err
	}
	return g.exchange(ctx, req, payload, g.newID())
}

// exchange runs the refresh protocol for one encoded request. The replay
// re-enters exchange with the refreshed flag set, which bypasses it.
func (g *Gatekeeper) exchange(ctx context.Context, req *Request, payload []byte, requestID string) (*Response, error) {
	logger := g.logger.With().
		Str("method", req.Method).
		Str("path", req.Path).
		Str("request_id", requestID).
		Logger()

	m := machine{logger: logger}

	resp, err := g.dispatch(ctx, req, payload, requestID)
	if err != nil {
		return nil, err
	}

	if g.bypasses(req) {
		m.to(PhaseDone)
		resp.Outcome = OutcomeBypassed
		return resp, nil
	}
	if !g.isAuthFailure(resp.StatusCode) {
		m.to(PhaseDone)
		resp.Outcome = OutcomePassThrough
		return resp, nil
	}

	m.to(PhaseAuthFailed)
	m.to(PhaseRefreshing)
	result, err := g.refresh(ctx, requestID)
	if err != nil {
		m.to(PhaseDone)
		return nil, err
	}

	switch result.kind {
	case refreshRejected:
		m.to(PhaseSessionCleared)
		m.to(PhaseDone)
		resp.Outcome = OutcomeSessionCleared
		return resp, nil
	case refreshUnavailable:
		m.to(PhaseRefreshError)
		m.to(PhaseDone)
		resp.Outcome = OutcomeRefreshError
		resp.RefreshErr = result.err
		return resp, nil
	}

	m.to(PhaseReplaying)
	replayed, err := g.exchange(ctx, req.replay(), payload, requestID+"-replay")
	m.to(PhaseDone)
	if err != nil {
		return nil, err
	}
	replayed.Outcome = OutcomeReplayed
	return replayed, nil
}

func (g *Gatekeeper) dispatch(ctx context.Context, req *Request, payload []byte, requestID string) (*Response, error) {
	httpReq, err := req.httpRequest(ctx, g.baseURL, payload, requestID)
	if err != nil {
		return nil, err
	}
	return g.do(httpReq)
}

func (g *Gatekeeper) do(httpReq *http.Request) (*Response, error) {
	httpResp, err := g.doer.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", httpReq.Method, httpReq.URL.Path, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s %s response: %w", httpReq.Method, httpReq.URL.Path, err)
	}
	if len(body) > maxBodySize {
		return nil, fmt.Errorf("%w: %s %s over %d bytes", ErrResponseTooLarge, httpReq.Method, httpReq.URL.Path, maxBodySize)
	}
	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
	}, nil
}

// machine logs the phases of one Send and panics on an illegal transition.
type machine struct {
	phase  Phase
	logger zerolog.Logger
}

func (m *machine) to(next Phase) {
	if !m.phase.CanTransition(next) {
		panic(fmt.Sprintf("gatekeeper: illegal transition %s -> %s", m.phase, next))
	}
	m.logger.Debug().Str("from", m.phase.String()).Str("to", next.String()).Msg("Gatekeeper transition")
	m.phase = next
}
