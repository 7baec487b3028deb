package gatekeeper

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-fintrack-client/session"
)

// Bootstrap establishes the initial session state. Without a marker the
// session is initialized as anonymous and no request is made. With one, the
// probe endpoint is called through Send and its answer decides.
// The returned Response is nil when no probe was sent.
func (g *Gatekeeper) Bootstrap(ctx context.Context, marker session.Marker) (*Response, error) {
	if marker == nil || !marker.Present() {
		g.logger.Debug().Msg("No session marker, starting anonymous")
		g.store.MarkInitialized()
		return nil, nil
	}

	resp, err := g.Send(ctx, &Request{Method: http.MethodGet, Path: g.config.GetProbePath()})
	if err != nil {
		g.logger.Warn().Err(err).Msg("Session probe failed")
		g.store.MarkInitialized()
		return nil, err
	}

	if resp.OK() {
		identity, err := g.decodeIdentity(ctx, resp.Body)
		if err != nil {
			g.store.MarkInitialized()
			return resp, err
		}
		if identity != nil {
			if err := g.store.Establish(identity); err != nil {
				return resp, err
			}
			g.logger.Info().Str("subject", identity.Subject).Msg("Session restored")
			return resp, nil
		}
	}

	// A refreshed session the probe still rejects is not a session.
	if resp.Outcome == OutcomeReplayed && g.isAuthFailure(resp.StatusCode) {
		g.logger.Info().Int("status", resp.StatusCode).Msg("Probe rejected after refresh, clearing session")
		g.store.Clear()
		return resp, nil
	}

	// Cleared and refresh-error outcomes have already updated the store.
	if resp.Outcome != OutcomeSessionCleared && resp.Outcome != OutcomeRefreshError {
		g.store.MarkInitialized()
	}
	return resp, nil
}
