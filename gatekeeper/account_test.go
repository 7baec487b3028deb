package gatekeeper_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/jrsteele09/go-fintrack-client/gatekeeper"
	"github.com/jrsteele09/go-fintrack-client/internal/config"
	"github.com/jrsteele09/go-fintrack-client/session"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	t.Run("success establishes session", func(t *testing.T) {
		b := newScriptedBackend(t)
		b.on(routeLogin, reply{status: http.StatusOK, body: identityBody})
		gk, store := b.gatekeeper(t, nil)
		store.Invalidate()

		resp, err := gk.Login(context.Background(), gatekeeper.Credentials{Email: "a@b.c", Password: "Secret123"})
		require.NoError(t, err)
		require.Equal(t, gatekeeper.OutcomeBypassed, resp.Outcome)

		st := store.Snapshot()
		require.Equal(t, "a@b.c", st.Subject())
		require.False(t, st.ForceReauthentication)
		require.JSONEq(t, `{"email":"a@b.c","password":"Secret123"}`, b.recorded(routeLogin)[0].body)
	})

	t.Run("bad credentials keep field errors and never refresh", func(t *testing.T) {
		b := newScriptedBackend(t)
		b.on(routeLogin, reply{status: http.StatusUnauthorized, body: `{"errors":{"email":"unknown"}}`})
		b.on(routeRefresh, reply{status: http.StatusOK, body: identityBody})
		gk, store := b.gatekeeper(t, nil)

		resp, err := gk.Login(context.Background(), gatekeeper.Credentials{Email: "x@y.z", Password: "bad"})
		require.NoError(t, err)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.JSONEq(t, `{"errors":{"email":"unknown"}}`, string(resp.Body))
		require.Equal(t, 0, b.count(routeRefresh))
		require.Nil(t, store.Snapshot().Identity)
	})

	t.Run("success without identity is malformed", func(t *testing.T) {
		b := newScriptedBackend(t)
		b.on(routeLogin, reply{status: http.StatusOK, body: `{}`})
		gk, store := b.gatekeeper(t, nil)

		_, err := gk.Login(context.Background(), gatekeeper.Credentials{Email: "a@b.c", Password: "x"})
		require.ErrorIs(t, err, gatekeeper.ErrMalformedResponse)
		require.False(t, store.Snapshot().Initialized)
	})
}

func TestLogout(t *testing.T) {
	t.Run("attaches anti-forgery token and clears", func(t *testing.T) {
		b := newScriptedBackend(t)
		b.on(routeLogout, reply{status: http.StatusNoContent})
		gk, store := b.gatekeeper(t, nil)
		require.NoError(t, store.Establish(preexisting()))

		resp, err := gk.Logout(context.Background())
		require.NoError(t, err)
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
		require.Equal(t, "old-token", b.recorded(routeLogout)[0].header.Get("X-XSRF-TOKEN"))

		st := store.Snapshot()
		require.Nil(t, st.Identity)
		require.False(t, st.ForceReauthentication)
		require.Equal(t, session.StatusAnonymous, st.Status())
	})

	t.Run("backend rejection still clears without refreshing", func(t *testing.T) {
		b := newScriptedBackend(t)
		b.on(routeLogout, reply{status: http.StatusUnauthorized})
		b.on(routeRefresh, reply{status: http.StatusOK, body: identityBody})
		gk, store := b.gatekeeper(t, nil)
		require.NoError(t, store.Establish(preexisting()))

		_, err := gk.Logout(context.Background())
		require.NoError(t, err)
		require.Equal(t, 0, b.count(routeRefresh))
		require.Nil(t, store.Snapshot().Identity)
	})

	t.Run("transport error still clears", func(t *testing.T) {
		store := session.NewStore()
		require.NoError(t, store.Establish(preexisting()))
		netErr := errors.New("network down")
		gk, err := gatekeeper.New(config.Defaults(), doerFunc(func(*http.Request) (*http.Response, error) {
			return nil, netErr
		}), store)
		require.NoError(t, err)

		_, err = gk.Logout(context.Background())
		require.ErrorIs(t, err, netErr)
		require.Nil(t, store.Snapshot().Identity)
	})
}

func TestAttachAntiForgery(t *testing.T) {
	gk, store := newScriptedBackend(t).gatekeeper(t, map[string]string{"ANTI_FORGERY_HEADER": "X-CSRF"})

	req := gk.AttachAntiForgery(&gatekeeper.Request{Method: http.MethodPost, Path: "/wallet"})
	require.Nil(t, req.Header)

	require.NoError(t, store.Establish(preexisting()))
	req = gk.AttachAntiForgery(&gatekeeper.Request{Method: http.MethodPost, Path: "/wallet"})
	require.Equal(t, "old-token", req.Header.Get("X-CSRF"))
}

func TestBootstrap(t *testing.T) {
	absent := session.MarkerFunc(func() bool { return false })
	present := session.MarkerFunc(func() bool { return true })

	t.Run("no marker makes no call", func(t *testing.T) {
		b := newScriptedBackend(t)
		gk, store := b.gatekeeper(t, nil)

		resp, err := gk.Bootstrap(context.Background(), absent)
		require.NoError(t, err)
		require.Nil(t, resp)

		st := store.Snapshot()
		require.True(t, st.Initialized)
		require.Nil(t, st.Identity)
		require.Empty(t, b.recorded(routeMe))
		require.Equal(t, 0, b.count(routeRefresh))

		_, err = gk.Bootstrap(context.Background(), nil)
		require.NoError(t, err)
		require.Equal(t, 0, b.count(routeMe))
	})

	t.Run("marker and live session", func(t *testing.T) {
		b := newScriptedBackend(t)
		b.on(routeMe, reply{status: http.StatusOK, body: identityBody})
		gk, store := b.gatekeeper(t, nil)

		resp, err := gk.Bootstrap(context.Background(), present)
		require.NoError(t, err)
		require.True(t, resp.OK())
		require.Equal(t, session.StatusAuthenticated, store.Snapshot().Status())
		require.Equal(t, "a@b.c", store.Subject())
	})

	t.Run("marker and expired access token", func(t *testing.T) {
		b := newScriptedBackend(t)
		b.on(routeMe, reply{status: http.StatusUnauthorized}, reply{status: http.StatusOK, body: identityBody})
		b.on(routeRefresh, reply{status: http.StatusOK, body: identityBody})
		gk, store := b.gatekeeper(t, nil)

		resp, err := gk.Bootstrap(context.Background(), present)
		require.NoError(t, err)
		require.Equal(t, gatekeeper.OutcomeReplayed, resp.Outcome)
		require.Equal(t, "a@b.c", store.Subject())
		require.Equal(t, 1, b.count(routeRefresh))
	})

	t.Run("marker and refreshed session still rejected", func(t *testing.T) {
		b := newScriptedBackend(t)
		b.on(routeMe, reply{status: http.StatusUnauthorized})
		b.on(routeRefresh, reply{status: http.StatusOK, body: identityBody})
		gk, store := b.gatekeeper(t, nil)

		resp, err := gk.Bootstrap(context.Background(), present)
		require.NoError(t, err)
		require.Equal(t, gatekeeper.OutcomeReplayed, resp.Outcome)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Equal(t, 1, b.count(routeRefresh))
		require.Equal(t, 2, b.count(routeMe))

		st := store.Snapshot()
		require.True(t, st.Initialized)
		require.Nil(t, st.Identity)
		require.False(t, st.ForceReauthentication)
		require.Equal(t, session.StatusAnonymous, st.Status())
	})

	t.Run("marker but session gone", func(t *testing.T) {
		b := newScriptedBackend(t)
		b.on(routeMe, reply{status: http.StatusUnauthorized})
		b.on(routeRefresh, reply{status: http.StatusUnauthorized})
		gk, store := b.gatekeeper(t, nil)

		resp, err := gk.Bootstrap(context.Background(), present)
		require.NoError(t, err)
		require.True(t, resp.ReauthRequired())

		st := store.Snapshot()
		require.True(t, st.Initialized)
		require.True(t, st.ForceReauthentication)
		require.Nil(t, st.Identity)
	})

	t.Run("marker but refresh unavailable", func(t *testing.T) {
		b := newScriptedBackend(t)
		b.on(routeMe, reply{status: http.StatusUnauthorized})
		b.on(routeRefresh, reply{status: http.StatusServiceUnavailable})
		gk, store := b.gatekeeper(t, nil)

		resp, err := gk.Bootstrap(context.Background(), present)
		require.NoError(t, err)
		require.Equal(t, gatekeeper.OutcomeRefreshError, resp.Outcome)

		st := store.Snapshot()
		require.True(t, st.Initialized)
		require.False(t, st.ForceReauthentication)
		require.Error(t, st.RefreshErr)
		require.Equal(t, session.StatusUnavailable, st.Status())
	})

	t.Run("marker is only a hint", func(t *testing.T) {
		b := newScriptedBackend(t)
		b.on(routeMe, reply{status: http.StatusOK, body: `{}`})
		gk, store := b.gatekeeper(t, nil)

		_, err := gk.Bootstrap(context.Background(), present)
		require.NoError(t, err)
		require.Equal(t, session.StatusAnonymous, store.Snapshot().Status())
	})

	t.Run("probe transport failure", func(t *testing.T) {
		store := session.NewStore()
		gk, err := gatekeeper.New(config.Defaults(), doerFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("offline")
		}), store)
		require.NoError(t, err)

		_, err = gk.Bootstrap(context.Background(), present)
		require.Error(t, err)
		require.True(t, store.Snapshot().Initialized)
	})
}
