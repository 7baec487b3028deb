package devbackend

import (
	"net/http"

	"github.com/jrsteele09/go-fintrack-client/finance"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	RouteWellKnownOpenIDConfig = "/.well-known/openid-configuration"
	RouteMetrics               = "/metrics"
)

func (s *Server) initRoutes() {
	// Session
	s.RegisterRouteFunc("POST "+s.config.GetLoginPath(), s.LoginHandler())
	s.RegisterRouteFunc("POST "+s.config.GetRefreshPath(), s.RefreshHandler())
	s.RegisterRouteFunc("POST "+s.config.GetLogoutPath(), ChainMiddleware(s.LogoutHandler(), s.RequireAntiForgery))
	s.RegisterRouteFunc("GET "+s.config.GetProbePath(), ChainMiddleware(s.MeHandler(), s.RequireAccessToken))

	// OIDC discovery for id token verification
	s.RegisterRouteFunc("GET "+RouteWellKnownOpenIDConfig, s.WellKnownOpenIDConfig())
	s.RegisterRouteFunc("GET "+s.config.GetJWKSPath(), s.JWKS())

	// Finance API
	s.RegisterRouteFunc("GET "+finance.PathWallet, ChainMiddleware(s.ListWalletsHandler(), s.RequireAccessToken))
	s.RegisterRouteFunc("POST "+finance.PathWallet, ChainMiddleware(s.CreateWalletHandler(), s.RequireAccessToken, s.RequireAntiForgery))
	s.RegisterRouteFunc("GET "+finance.PathCategory, ChainMiddleware(s.ListCategoriesHandler(), s.RequireAccessToken))
	s.RegisterRouteFunc("GET "+finance.PathTransaction, ChainMiddleware(s.ListTransactionsHandler(), s.RequireAccessToken))
	s.RegisterRouteFunc("POST "+finance.PathTransaction, ChainMiddleware(s.CreateTransactionHandler(), s.RequireAccessToken, s.RequireAntiForgery))
	s.RegisterRouteFunc("GET "+finance.PathAnalytics, ChainMiddleware(s.AnalyticsHandler(), s.RequireAccessToken))

	s.mux.Handle("GET "+RouteMetrics, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	s.routes = append(s.routes, "GET "+RouteMetrics)
}

func (s *Server) notFound(w http.ResponseWriter) {
	writeJSONError(w, http.StatusNotFound, "not found")
}
