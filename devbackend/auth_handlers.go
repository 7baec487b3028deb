package devbackend

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-fintrack-client/internal/errors"
	"github.com/jrsteele09/go-fintrack-client/users"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// identityResponse is the body of login, refresh and the session probe.
type identityResponse struct {
	Subject          string   `json:"subject"`
	FirstName        string   `json:"firstName"`
	LastName         string   `json:"lastName"`
	Email            string   `json:"email"`
	Roles            []string `json:"roles"`
	AntiForgeryToken string   `json:"antiForgeryToken"`
	IDToken          string   `json:"idToken,omitempty"`
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			writeJSONError(w, http.StatusBadRequest, apperrors.ErrInvalidRequest.Error())
			return
		}
		fields := map[string]string{}
		if strings.TrimSpace(creds.Email) == "" {
			fields["email"] = "email is required"
		}
		if creds.Password == "" {
			fields["password"] = "password is required"
		}
		if len(fields) > 0 {
			writeFieldErrors(w, fields)
			return
		}

		user, err := s.users.GetByEmail(creds.Email)
		if err != nil || !user.CheckPassword(creds.Password) {
			s.logger.Info().Str("email", creds.Email).Msg("Login rejected")
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"message": apperrors.ErrInvalidCredentials.Error(),
				"errors":  map[string]string{"email": "invalid email or password"},
			})
			return
		}
		if user.Blocked {
			writeJSONError(w, http.StatusUnauthorized, apperrors.ErrUserBlocked.Error())
			return
		}

		refreshToken, err := s.refresh.Create(user.ID)
		if err != nil {
			s.internalError(w, err)
			return
		}
		if err := s.users.RecordLogin(user.Email); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to record login")
		}
		s.startSession(w, user, refreshToken, uuid.NewString())
	}
}

// RefreshHandler rotates the refresh token and issues a new access token. The
// anti-forgery token survives the rotation so in-flight requests stay valid.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if status := s.takeRefreshFault(); status != 0 {
			s.logger.Debug().Int("status", status).Msg("Injected refresh failure")
			writeJSONError(w, status, "injected failure")
			return
		}

		cookie, err := r.Cookie(CookieRefreshToken)
		if err != nil || cookie.Value == "" {
			writeJSONError(w, http.StatusUnauthorized, "missing refresh token")
			return
		}
		rotated, err := s.refresh.Rotate(cookie.Value)
		if err != nil {
			if errors.Is(err, apperrors.ErrInvalidRefreshToken) || errors.Is(err, apperrors.ErrRefreshTokenExpired) {
				s.clearSessionCookies(w)
				writeJSONError(w, http.StatusUnauthorized, err.Error())
				return
			}
			s.internalError(w, err)
			return
		}

		user, err := s.users.GetByID(rotated.UserID)
		if err != nil || user.Blocked {
			_ = s.refresh.Revoke(rotated.UserID)
			s.clearSessionCookies(w)
			writeJSONError(w, http.StatusUnauthorized, apperrors.ErrUserNotFound.Error())
			return
		}

		antiForgery := uuid.NewString()
		if c, err := r.Cookie(CookieAntiForgery); err == nil && c.Value != "" {
			antiForgery = c.Value
		}
		s.startSession(w, user, rotated.Token, antiForgery)
	}
}

// LogoutHandler ends the session whether or not the access token is still valid.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(CookieAccessToken); err == nil {
			if claims, err := s.inspector.Inspect(c.Value); err == nil {
				s.revoked.Revoke(claims.JTI, claims.Expiry)
			}
		}
		if c, err := r.Cookie(CookieRefreshToken); err == nil {
			if err := s.refresh.RevokeToken(c.Value); err != nil {
				s.logger.Warn().Err(err).Msg("Failed to revoke refresh token")
			}
		}
		s.clearSessionCookies(w)
		w.WriteHeader(http.StatusNoContent)
	}
}

// MeHandler is the session probe.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r)
		user, err := s.users.GetByID(claims.UserID)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, apperrors.ErrUserNotFound.Error())
			return
		}
		var antiForgery string
		if c, err := r.Cookie(CookieAntiForgery); err == nil {
			antiForgery = c.Value
		}
		writeJSON(w, http.StatusOK, s.identity(user, antiForgery, ""))
	}
}

// JWKS returns the JSON Web Key Set used to validate id tokens
func (s *Server) JWKS() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jwks, err := s.signer.GetJWKS()
		if err != nil {
			s.internalError(w, err)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=3600")
		writeJSON(w, http.StatusOK, jwks)
	}
}

// WellKnownOpenIDConfig is the discovery document for id token verifiers.
func (s *Server) WellKnownOpenIDConfig() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		issuer := s.config.GetIssuer()
		writeJSON(w, http.StatusOK, map[string]any{
			"issuer":                                issuer,
			"jwks_uri":                              strings.TrimSuffix(issuer, "/") + s.config.GetJWKSPath(),
			"id_token_signing_alg_values_supported": []string{s.signer.GetSigningMethod().Alg()},
			"subject_types_supported":               []string{"public"},
			"claims_supported":                      []string{"sub", "email", "given_name", "family_name", "roles"},
		})
	}
}

func (s *Server) startSession(w http.ResponseWriter, user *users.User, refreshToken, antiForgery string) {
	access, err := s.creator.CreateAccessToken(user)
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.issuedLock.Lock()
	s.issued[access.JTI] = access.Expiry
	s.issuedLock.Unlock()

	var idToken string
	if s.config.GetIssueIDTokens() {
		if idToken, err = s.creator.CreateIDToken(user); err != nil {
			s.internalError(w, err)
			return
		}
	}

	s.setSessionCookies(w, sessionCookies{
		accessToken:  access.Raw,
		accessExpiry: access.Expiry,
		refreshToken: refreshToken,
		antiForgery:  antiForgery,
	})
	writeJSON(w, http.StatusOK, s.identity(user, antiForgery, idToken))
}

func (s *Server) identity(user *users.User, antiForgery, idToken string) identityResponse {
	return identityResponse{
		Subject:          user.Email,
		FirstName:        user.FirstName,
		LastName:         user.LastName,
		Email:            user.Email,
		Roles:            user.RoleNames(),
		AntiForgeryToken: antiForgery,
		IDToken:          idToken,
	}
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.logger.Error().Err(err).Msg("Request failed")
	writeJSONError(w, http.StatusInternalServerError, apperrors.ErrInternal.Error())
}
