package gatekeeper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"

	"github.com/jrsteele09/go-fintrack-client/internal/config"
	"golang.org/x/net/publicsuffix"
)

// Credentials is the login form body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login posts credentials without re-authentication, so a 401 for bad
// credentials comes back with its field errors intact. A 2xx establishes the
// session from the body.
func (g *Gatekeeper) Login(ctx context.Context, creds Credentials) (*Response, error) {
	resp, err := g.Send(ctx, &Request{
		Method:     http.MethodPost,
		Path:       g.config.GetLoginPath(),
		Body:       creds,
		SkipReauth: true,
	})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return resp, nil
	}

	identity, err := g.decodeIdentity(ctx, resp.Body)
	if err != nil {
		return resp, err
	}
	if identity == nil {
		return resp, fmt.Errorf("%w: login response has no identity", ErrMalformedResponse)
	}
	if err := g.store.Establish(identity); err != nil {
		return resp, err
	}
	g.logger.Info().Str("subject", identity.Subject).Msg("Logged in")
	return resp, nil
}

// Logout tells the backend to end the session and clears the local session
// whatever the backend answers.
func (g *Gatekeeper) Logout(ctx context.Context) (*Response, error) {
	req := g.AttachAntiForgery(&Request{
		Method:     http.MethodPost,
		Path:       g.config.GetLogoutPath(),
		SkipReauth: true,
	})
	defer g.store.Clear()

	resp, err := g.Send(ctx, req)
	if err != nil {
		g.logger.Warn().Err(err).Msg("Logout request failed, clearing local session")
		return nil, err
	}
	return resp, nil
}

// AttachAntiForgery copies the current anti-forgery token onto req. Callers
// use it for state-mutating requests; Send never adds it on its own.
func (g *Gatekeeper) AttachAntiForgery(req *Request) *Request {
	token := g.store.AntiForgeryToken()
	if token == "" {
		return req
	}
	if req.Header == nil {
		req.Header = make(http.Header)
	}
	req.Header.Set(g.config.GetAntiForgeryHeader(), token)
	return req
}

// NewHTTPClient returns a client with a cookie jar, which carries the refresh
// credential and the session marker between calls.
func NewHTTPClient(cfg config.BackendConfig) (*http.Client, http.CookieJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &http.Client{Jar: jar, Timeout: cfg.GetRequestTimeout()}, jar, nil
}
