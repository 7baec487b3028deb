package devbackend_test

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-fintrack-client/finance"
	"github.com/jrsteele09/go-fintrack-client/gatekeeper"
	"github.com/jrsteele09/go-fintrack-client/session"
	"github.com/stretchr/testify/require"
)

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	gk, store, jar := h.client(t)
	api := finance.New(gk)
	marker := session.NewCookieMarker(jar, gk.BaseURL())

	require.False(t, marker.Present())
	_, err := gk.Bootstrap(ctx, marker)
	require.NoError(t, err)
	require.Equal(t, session.StatusAnonymous, store.Snapshot().Status())

	resp, err := gk.Login(ctx, gatekeeper.Credentials{Email: seedEmail, Password: seedPassword})
	require.NoError(t, err)
	require.True(t, resp.OK())
	require.True(t, marker.Present())
	require.Equal(t, seedEmail, store.Subject())
	require.NotEmpty(t, store.AntiForgeryToken())

	wallet, err := api.CreateWallet(ctx, finance.NewWallet{Name: "Cash", Currency: "EUR", InitialBalance: 100})
	require.NoError(t, err)
	_, err = api.CreateTransaction(ctx, finance.NewTransaction{WalletID: wallet.ID, CategoryID: "groceries", Amount: 25.5, Date: "2024-03-02"})
	require.NoError(t, err)

	t.Run("expired access token is refreshed and replayed", func(t *testing.T) {
		before := requests(t, h.backend.Metrics(), "POST /auth/refresh", "200")
		h.backend.ExpireAccessTokens()

		wallets, err := api.Wallets(ctx)
		require.NoError(t, err)
		require.Len(t, wallets, 1)
		require.Equal(t, 74.5, wallets[0].Balance)
		require.Equal(t, before+1, requests(t, h.backend.Metrics(), "POST /auth/refresh", "200"))
	})

	t.Run("mutation replay keeps the anti-forgery token", func(t *testing.T) {
		h.backend.ExpireAccessTokens()

		tx, err := api.CreateTransaction(ctx, finance.NewTransaction{WalletID: wallet.ID, CategoryID: "salary", Amount: 1000, Date: "2024-03-05"})
		require.NoError(t, err)
		require.Equal(t, finance.Income, tx.Type)
	})

	t.Run("missing anti-forgery header is replayed once then returned", func(t *testing.T) {
		resp, err := gk.Send(ctx, &gatekeeper.Request{Method: http.MethodPost, Path: finance.PathWallet, Body: finance.NewWallet{Name: "x", Currency: "EUR"}})
		require.NoError(t, err)
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
		require.Equal(t, gatekeeper.OutcomeReplayed, resp.Outcome)
		require.True(t, store.Authenticated())
	})

	t.Run("refresh outage keeps the session", func(t *testing.T) {
		h.backend.ExpireAccessTokens()
		h.backend.FailNextRefresh(http.StatusServiceUnavailable)

		_, err := api.Categories(ctx)
		require.True(t, finance.IsRefreshFailure(err))
		st := store.Snapshot()
		require.Equal(t, seedEmail, st.Subject())
		require.Error(t, st.RefreshErr)

		categories, err := api.Categories(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, categories)
		require.NoError(t, store.Snapshot().RefreshErr)
	})

	t.Run("analytics", func(t *testing.T) {
		a, err := api.Analytics(ctx, finance.AnalyticsQuery{WalletID: wallet.ID})
		require.NoError(t, err)
		require.Equal(t, 1000.0, a.Income)
		require.Equal(t, 25.5, a.Expense)
		require.Len(t, a.ByCategory, 2)
	})

	t.Run("a second client restores the session from cookies", func(t *testing.T) {
		httpClient := &http.Client{Jar: jar}
		other, otherStore := h.clientWithJar(t, httpClient)

		resp, err := other.Bootstrap(ctx, marker)
		require.NoError(t, err)
		require.True(t, resp.OK())
		require.Equal(t, session.StatusAuthenticated, otherStore.Snapshot().Status())
		require.Equal(t, store.AntiForgeryToken(), otherStore.AntiForgeryToken())
	})

	t.Run("logout ends the session everywhere", func(t *testing.T) {
		resp, err := gk.Logout(ctx)
		require.NoError(t, err)
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
		require.False(t, marker.Present())
		require.Equal(t, session.StatusAnonymous, store.Snapshot().Status())

		_, err = api.Wallets(ctx)
		require.True(t, finance.IsReauthRequired(err))
		require.Equal(t, session.StatusReauthRequired, store.Snapshot().Status())
	})
}

func TestRejectedRefreshForcesSignIn(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	gk, store, _ := h.client(t)
	_, err := gk.Login(ctx, gatekeeper.Credentials{Email: seedEmail, Password: seedPassword})
	require.NoError(t, err)

	h.backend.ExpireAccessTokens()
	h.backend.FailNextRefresh(http.StatusUnauthorized)

	resp, err := gk.Send(ctx, &gatekeeper.Request{Method: http.MethodGet, Path: finance.PathWallet})
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.True(t, resp.ReauthRequired())

	st := store.Snapshot()
	require.Nil(t, st.Identity)
	require.True(t, st.ForceReauthentication)

	store.AcknowledgeReauth()
	require.Equal(t, session.StatusAnonymous, store.Snapshot().Status())
}

func TestConcurrentExpiryKeepsSession(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	gk, _, _ := h.client(t)
	api := finance.New(gk)
	_, err := gk.Login(ctx, gatekeeper.Credentials{Email: seedEmail, Password: seedPassword})
	require.NoError(t, err)
	h.backend.ExpireAccessTokens()

	const n = 6
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := api.Wallets(ctx)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	refreshes := requests(t, h.backend.Metrics(), "POST /auth/refresh", "200")
	require.GreaterOrEqual(t, refreshes, 1.0)
	require.Equal(t, 0.0, requests(t, h.backend.Metrics(), "POST /auth/refresh", "401"))
}

func TestIDTokensAreVerified(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, map[string]string{"DEV_ISSUE_ID_TOKENS": "true"})

	provider, err := oidc.NewProvider(ctx, h.server.URL)
	require.NoError(t, err)
	verifier := provider.Verifier(&oidc.Config{ClientID: h.config.GetIDTokenAudience()})

	gk, store, _ := h.client(t, gatekeeper.WithIDTokenVerifier(verifier))
	_, err = gk.Login(ctx, gatekeeper.Credentials{Email: seedEmail, Password: seedPassword})
	require.NoError(t, err)

	st := store.Snapshot()
	require.Equal(t, seedEmail, st.Subject())
	require.Equal(t, "Demo", st.Identity.FirstName)
	require.Equal(t, []string{"ROLE_USER"}, st.Roles())
}
