package gatekeeper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

type refreshKind int

const (
	refreshOK refreshKind = iota
	refreshRejected
	refreshUnavailable
)

type refreshResult struct {
	kind refreshKind
	err  error
}

// refreshKey is the single singleflight key; every caller shares one refresh.
const refreshKey = "refresh"

// refresh performs, or joins, one call to the refresh endpoint and applies its
// result to the session. A non-nil error means the refresh response could
// not be understood; the session is untouched in that case.
func (g *Gatekeeper) refresh(ctx context.Context, requestID string) (refreshResult, error) {
	if !g.coalesce {
		return g.doRefresh(ctx, requestID)
	}

	v, err, shared := g.flight.Do(refreshKey, func() (any, error) {
		// The refresh outlives the caller that started it; others may be waiting.
		return g.doRefresh(context.WithoutCancel(ctx), requestID)
	})
	if shared {
		g.logger.Debug().Str("request_id", requestID).Msg("Joined in-flight session refresh")
	}
	if err != nil {
		return refreshResult{}, err
	}
	return v.(refreshResult), nil
}

func (g *Gatekeeper) doRefresh(ctx context.Context, requestID string) (refreshResult, error) {
	logger := g.logger.With().Str("request_id", requestID).Logger()

	refreshReq := &Request{Method: http.MethodPost, Path: g.config.GetRefreshPath()}
	resp, err := g.dispatch(ctx, refreshReq, nil, requestID+"-refresh")
	if err != nil {
		logger.Warn().Err(err).Msg("Session refresh failed, keeping session")
		g.metrics.observeRefresh("transport_error")
		refreshErr := fmt.Errorf("%w: %w", ErrRefreshUnavailable, err)
		g.store.ReportRefreshError(refreshErr)
		return refreshResult{kind: refreshUnavailable, err: refreshErr}, nil
	}

	switch {
	case resp.OK():
		identity, err := g.decodeIdentity(ctx, resp.Body)
		if err != nil {
			logger.Error().Err(err).Int("status", resp.StatusCode).Msg("Session refresh returned an unreadable body")
			g.metrics.observeRefresh("malformed")
			return refreshResult{}, err
		}
		if identity == nil {
			logger.Debug().Msg("Session refreshed without identity, revalidating")
			g.store.Revalidate()
		} else if err := g.store.Establish(identity); err != nil {
			return refreshResult{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
		}
		g.metrics.observeRefresh("success")
		return refreshResult{kind: refreshOK}, nil

	case resp.StatusCode == http.StatusUnauthorized:
		logger.Info().Msg("Refresh credential rejected, session invalidated")
		g.metrics.observeRefresh("rejected")
		g.store.Invalidate()
		return refreshResult{kind: refreshRejected}, nil
	}

	logger.Warn().Int("status", resp.StatusCode).Msg("Session refresh failed, keeping session")
	g.metrics.observeRefresh("server_error")
	refreshErr := &RefreshStatusError{StatusCode: resp.StatusCode, Body: resp.Body}
	g.store.ReportRefreshError(refreshErr)
	return refreshResult{kind: refreshUnavailable, err: refreshErr}, nil
}

// RefreshStatusError is the RefreshErr of a refresh answered with a status
// other than 2xx or 401.
type RefreshStatusError struct {
	StatusCode int
	Body       []byte
}

func (e *RefreshStatusError) Error() string {
	return fmt.Sprintf("%v: status %d", ErrRefreshUnavailable, e.StatusCode)
}

func (e *RefreshStatusError) Is(target error) bool {
	return target == ErrRefreshUnavailable
}

// IsRefreshUnavailable reports whether err describes an infrastructure
// failure during refresh.
func IsRefreshUnavailable(err error) bool {
	return errors.Is(err, ErrRefreshUnavailable)
}
