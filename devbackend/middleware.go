package devbackend

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	apperrors "github.com/jrsteele09/go-fintrack-client/internal/errors"
	"github.com/jrsteele09/go-fintrack-client/token/jwt"
)

const contentTypeJSON = "application/json; charset=utf-8"

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyClaims stores the verified access token claims
const ContextKeyClaims ContextKey = "claims"

func ChainMiddleware(routeFunction http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	chainedHandler := routeFunction
	// Apply middleware in reverse order
	for i := len(mw) - 1; i >= 0; i-- {
		chainedHandler = mw[i](chainedHandler)
	}
	return chainedHandler
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// LoggingMiddleware logs each request and counts it under its route pattern.
func (s *Server) LoggingMiddleware(route string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next(rec, r)

			s.requests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
			s.logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rec.status).
				Str("request_id", r.Header.Get("X-Request-ID")).
				Dur("elapsed", time.Since(start)).
				Msg("Request served")
		}
	}
}

func (s *Server) RecoverMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error().Interface("panic", rec).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
				writeJSONError(w, http.StatusInternalServerError, apperrors.ErrInternal.Error())
			}
		}()
		next(w, r)
	}
}

// RequireAccessToken verifies the access token cookie and puts its claims in
// the request context. Missing, expired or revoked tokens get a 401.
func (s *Server) RequireAccessToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(CookieAccessToken)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "missing access token")
			return
		}
		claims, err := s.inspector.Inspect(cookie.Value)
		if err != nil {
			s.logger.Debug().Err(err).Msg("Access token rejected")
			writeJSONError(w, http.StatusUnauthorized, accessTokenMessage(err))
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), ContextKeyClaims, claims)))
	}
}

// RequireAntiForgery compares the anti-forgery header with the cookie the
// backend issued at login. A mismatch is a 403.
func (s *Server) RequireAntiForgery(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(CookieAntiForgery)
		header := r.Header.Get(s.config.GetAntiForgeryHeader())
		if err != nil || header == "" || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(header)) != 1 {
			writeJSONError(w, http.StatusForbidden, apperrors.ErrAntiForgeryMismatch.Error())
			return
		}
		next(w, r)
	}
}

func claimsFrom(r *http.Request) *jwt.AccessClaims {
	claims, _ := r.Context().Value(ContextKeyClaims).(*jwt.AccessClaims)
	return claims
}

func accessTokenMessage(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrTokenExpired):
		return "access token expired"
	case errors.Is(err, apperrors.ErrTokenRevoked):
		return "access token revoked"
	}
	return "invalid access token"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// writeFieldErrors answers 400 with per-field validation messages.
func writeFieldErrors(w http.ResponseWriter, fields map[string]string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{"errors": fields})
}
