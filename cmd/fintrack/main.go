package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-fintrack-client/finance"
	"github.com/jrsteele09/go-fintrack-client/gatekeeper"
	"github.com/jrsteele09/go-fintrack-client/internal/config"
	"github.com/jrsteele09/go-fintrack-client/internal/logging"
	"github.com/jrsteele09/go-fintrack-client/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var errNotSignedIn = errors.New("not signed in: set FINTRACK_EMAIL and FINTRACK_PASSWORD")

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("fintrack failed")
	}
}

func run() error {
	c, err := config.New()
	if err != nil {
		return err
	}
	logger := logging.Setup(c)
	displayAppname(c.GetAppName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient, jar, err := gatekeeper.NewHTTPClient(c)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	opts := []gatekeeper.Option{
		gatekeeper.WithLogger(logger),
		gatekeeper.WithMetrics(gatekeeper.NewMetrics(registry)),
	}
	if issuer := c.GetIDTokenIssuer(); issuer != "" {
		provider, err := oidc.NewProvider(oidc.ClientContext(ctx, httpClient), issuer)
		if err != nil {
			return fmt.Errorf("discover id token issuer: %w", err)
		}
		opts = append(opts, gatekeeper.WithIDTokenVerifier(provider.Verifier(&oidc.Config{ClientID: c.GetIDTokenAudience()})))
	}

	store := session.NewStore()
	unsubscribe := store.Subscribe(func(e session.Event) {
		logger.Info().Str("event", string(e.Kind)).Str("status", e.State.Status().String()).Msg("Session changed")
	})
	defer unsubscribe()

	gk, err := gatekeeper.New(c, httpClient, store, opts...)
	if err != nil {
		return err
	}

	if addr := c.GetMetricsAddr(); addr != "" {
		metricsServer := &http.Server{Addr: addr, Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), ReadHeaderTimeout: 5 * time.Second}
		go serveMetrics(metricsServer)
		defer shutdown(metricsServer)
	}

	marker := session.NewCookieMarker(jar, gk.BaseURL())
	marker.Name = c.GetMarkerCookie()
	if _, err := gk.Bootstrap(ctx, marker); err != nil {
		logger.Warn().Err(err).Msg("Session probe failed")
	}
	if err := signIn(ctx, gk, c); err != nil {
		return err
	}

	api := finance.New(gk)
	if err := report(ctx, api, logger); err != nil {
		return err
	}
	if c.GetPollInterval() <= 0 {
		return nil
	}

	ticker := time.NewTicker(c.GetPollInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_, err := gk.Logout(context.Background())
			return err
		case <-ticker.C:
		}

		err := report(ctx, api, logger)
		switch {
		case finance.IsReauthRequired(err):
			store.AcknowledgeReauth()
			if err := signIn(ctx, gk, c); err != nil {
				return err
			}
		case finance.IsRefreshFailure(err):
			logger.Warn().Err(err).Msg("Backend unavailable, will retry")
		case err != nil:
			return err
		}
	}
}

// signIn logs in with the configured credentials unless the session is
// already authenticated.
func signIn(ctx context.Context, gk *gatekeeper.Gatekeeper, c config.Config) error {
	if gk.Session().Authenticated() {
		return nil
	}
	if c.GetLoginEmail() == "" {
		return errNotSignedIn
	}
	resp, err := gk.Login(ctx, gatekeeper.Credentials{Email: c.GetLoginEmail(), Password: c.GetLoginPassword()})
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("login rejected: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

func report(ctx context.Context, api *finance.Client, logger zerolog.Logger) error {
	wallets, err := api.Wallets(ctx)
	if err != nil {
		return err
	}
	for _, w := range wallets {
		fmt.Printf("%-24s %12.2f %s\n", w.Name, w.Balance, w.Currency)
	}

	now := time.Now()
	a, err := api.Analytics(ctx, finance.AnalyticsQuery{From: now.AddDate(0, -1, 0), To: now})
	if err != nil {
		return err
	}
	logger.Info().
		Int("wallets", len(wallets)).
		Float64("income", a.Income).
		Float64("expense", a.Expense).
		Float64("net", a.Net).
		Msg("Last month")
	return nil
}

func serveMetrics(server *http.Server) {
	log.Info().Str("addr", server.Addr).Msg("Metrics listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("Metrics server failed")
	}
}

func shutdown(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("server.Shutdown")
	}
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
