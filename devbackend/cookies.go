package devbackend

import (
	"net/http"
	"time"
)

const (
	CookieAccessToken  = "access_token"
	CookieRefreshToken = "refresh_token"
	CookieAntiForgery  = "XSRF-TOKEN"
)

// refreshCookiePath limits the refresh credential to the auth endpoints.
const refreshCookiePath = "/auth"

type sessionCookies struct {
	accessToken  string
	accessExpiry time.Time
	refreshToken string
	antiForgery  string
}

func (s *Server) setSessionCookies(w http.ResponseWriter, c sessionCookies) {
	refreshAge := int(s.config.GetRefreshTokenExpiry().Seconds())
	secure := s.config.GetSecureCookies()

	http.SetCookie(w, &http.Cookie{
		Name:     CookieAccessToken,
		Value:    c.accessToken,
		Path:     "/",
		Expires:  c.accessExpiry,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     CookieRefreshToken,
		Value:    c.refreshToken,
		Path:     refreshCookiePath,
		MaxAge:   refreshAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
	// Readable by the client: the marker and the anti-forgery token.
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.GetMarkerCookie(),
		Value:    "true",
		Path:     "/",
		MaxAge:   refreshAge,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     CookieAntiForgery,
		Value:    c.antiForgery,
		Path:     "/",
		MaxAge:   refreshAge,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookies(w http.ResponseWriter) {
	for _, c := range []struct{ name, path string }{
		{CookieAccessToken, "/"},
		{CookieRefreshToken, refreshCookiePath},
		{s.config.GetMarkerCookie(), "/"},
		{CookieAntiForgery, "/"},
	} {
		http.SetCookie(w, &http.Cookie{Name: c.name, Value: "", Path: c.path, MaxAge: -1})
	}
}
