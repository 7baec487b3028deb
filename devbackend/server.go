package devbackend

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-fintrack-client/internal/config"
	"github.com/jrsteele09/go-fintrack-client/token"
	"github.com/jrsteele09/go-fintrack-client/token/jwt"
	"github.com/jrsteele09/go-fintrack-client/token/keys"
	"github.com/jrsteele09/go-fintrack-client/token/refresh"
	refreshrepofake "github.com/jrsteele09/go-fintrack-client/token/refresh/repofake"
	"github.com/jrsteele09/go-fintrack-client/users"
	fakeuserrepo "github.com/jrsteele09/go-fintrack-client/users/repofake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Server is a development backend that speaks the finance API's session
// contract: cookie-held access and refresh tokens, a session marker cookie
// and an anti-forgery token checked on mutating routes.
type Server struct {
	env       string
	mux       *http.ServeMux
	routes    []string
	config    config.Config
	logger    zerolog.Logger
	users     users.UserRepo
	refresh   *refresh.Manager
	signer    *keys.KeyRing
	creator   *jwt.Creator
	inspector *jwt.Inspector
	revoked   *token.RevocationList
	ledger    *Ledger
	registry  *prometheus.Registry
	requests  *prometheus.CounterVec

	issuedLock sync.Mutex
	issued     map[string]time.Time // access token jti to expiry

	faultLock       sync.Mutex
	failNextRefresh int
}

type Option func(*Server)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

func WithUserRepo(repo users.UserRepo) Option {
	return func(s *Server) { s.users = repo }
}

func WithRefreshRepo(repo refresh.Repo) Option {
	return func(s *Server) { s.refresh = refresh.NewManager(repo, s.config) }
}

// New builds the server with a fresh signing key and seeds the configured user.
func New(cfg config.Config, opts ...Option) (*Server, error) {
	keyPair, err := keys.GenerateRSAKeyPair(uuid.NewString(), 2048)
	if err != nil {
		return nil, fmt.Errorf("[devbackend New] failed to generate signing key: %w", err)
	}

	s := &Server{
		env:      cfg.GetEnv(),
		mux:      http.NewServeMux(),
		config:   cfg,
		logger:   zerolog.Nop(),
		users:    fakeuserrepo.NewFakeUserRepo(),
		refresh:  refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(), cfg),
		signer:   keys.NewKeyRing(keyPair),
		revoked:  token.NewRevocationList(),
		ledger:   NewLedger(),
		registry: prometheus.NewRegistry(),
		issued:   make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.creator = jwt.NewCreator(cfg, s.signer)
	s.inspector = jwt.NewInspector(cfg, s.signer, s.revoked)
	s.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fintrack_devbackend_requests_total",
		Help: "Requests served by the development backend.",
	}, []string{"route", "status"})
	s.registry.MustRegister(s.requests)

	if err := s.seed(); err != nil {
		return nil, fmt.Errorf("[devbackend New] failed to seed users: %w", err)
	}

	s.initRoutes()
	s.logRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler http.HandlerFunc) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, ChainMiddleware(handler, s.RecoverMiddleware, s.LoggingMiddleware(pattern)))
}

// AddUser stores a user that can log in with password.
func (s *Server) AddUser(email, firstName, lastName, password string, roles ...users.RoleType) (*users.User, error) {
	u, err := users.New(email, firstName, lastName, password, roles...)
	if err != nil {
		return nil, err
	}
	if err := s.users.Upsert(u); err != nil {
		return nil, err
	}
	return u, nil
}

// FailNextRefresh makes the next refresh call answer with status instead of
// rotating the token. A status of 0 cancels a pending failure.
func (s *Server) FailNextRefresh(status int) {
	s.faultLock.Lock()
	defer s.faultLock.Unlock()
	s.failNextRefresh = status
}

func (s *Server) takeRefreshFault() int {
	s.faultLock.Lock()
	defer s.faultLock.Unlock()
	status := s.failNextRefresh
	s.failNextRefresh = 0
	return status
}

// ExpireAccessTokens revokes every access token issued so far, as if they had
// all timed out. Refresh tokens stay valid.
func (s *Server) ExpireAccessTokens() int {
	s.issuedLock.Lock()
	defer s.issuedLock.Unlock()
	n := 0
	for jti, exp := range s.issued {
		s.revoked.Revoke(jti, exp)
		delete(s.issued, jti)
		n++
	}
	s.revoked.Prune(jwt.NowTimeFunc())
	return n
}

// RotateSigningKey signs new tokens with a fresh key. Tokens signed by the
// previous key keep verifying until the next rotation.
func (s *Server) RotateSigningKey() (string, error) {
	keyPair, err := keys.GenerateRSAKeyPair(uuid.NewString(), 2048)
	if err != nil {
		return "", fmt.Errorf("[devbackend RotateSigningKey] failed to generate signing key: %w", err)
	}
	s.signer.Rotate(keyPair)
	s.logger.Info().Str("kid", keyPair.KeyID).Msg("Signing key rotated")
	return keyPair.KeyID, nil
}

// Metrics exposes the server's request counters.
func (s *Server) Metrics() prometheus.Gatherer {
	return s.registry
}

func (s *Server) seed() error {
	email := s.config.GetSeedEmail()
	if email == "" {
		return nil
	}
	_, err := s.AddUser(email, "Demo", "User", s.config.GetSeedPassword(), users.RoleUser)
	return err
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		method, path, found := strings.Cut(route, " ")
		if !found {
			method, path = "", route
		}
		s.logger.Debug().Str("method", method).Str("path", path).Msg("Route registered")
	}
}
