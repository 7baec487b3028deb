package gatekeeper

import (
	"net/http"
	"testing"

	"github.com/jrsteele09/go-fintrack-client/internal/config"
	"github.com/jrsteele09/go-fintrack-client/session"
	"github.com/stretchr/testify/require"
)

func TestReplayCopyBypassesReauth(t *testing.T) {
	g, err := New(config.Defaults(), nil, session.NewStore())
	require.NoError(t, err)

	req := &Request{Method: http.MethodPost, Path: "/wallet", Body: map[string]string{"name": "Cash"}}
	require.False(t, g.bypasses(req))

	replay := req.replay()
	require.True(t, g.bypasses(replay))
	require.False(t, req.refreshed)
	require.Equal(t, req.Body, replay.Body)

	require.True(t, g.bypasses(&Request{Method: http.MethodPost, Path: g.config.GetRefreshPath()}))
	require.True(t, g.bypasses(&Request{Method: http.MethodPost, Path: "/auth/login", SkipReauth: true}))
}
