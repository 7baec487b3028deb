package jwt

import (
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-fintrack-client/internal/config"
	apperrors "github.com/jrsteele09/go-fintrack-client/internal/errors"
	"github.com/jrsteele09/go-fintrack-client/internal/utils"
	"github.com/jrsteele09/go-fintrack-client/token/keys"
)

// AccessClaims are the verified claims of an access token.
type AccessClaims struct {
	Subject string
	UserID  string
	Roles   []string
	JTI     string
	Expiry  time.Time
}

// RevokedChecker is an interface for checking if a token has been revoked
type RevokedChecker interface {
	IsRevoked(jti string) bool
}

// Inspector validates access tokens issued by a Creator with the same signer.
type Inspector struct {
	config         config.DevBackendConfig
	signer         keys.Signer
	revokedChecker RevokedChecker
}

// NewInspector creates a new JWT inspector. revokedChecker may be nil.
func NewInspector(cfg config.DevBackendConfig, signer keys.Signer, revokedChecker RevokedChecker) *Inspector {
	return &Inspector{
		config:         cfg,
		signer:         signer,
		revokedChecker: revokedChecker,
	}
}

// Inspect parses and verifies rawToken. Failures wrap ErrInvalidToken,
// ErrTokenExpired or ErrTokenRevoked.
func (i *Inspector) Inspect(rawToken string) (*AccessClaims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, apperrors.ErrInvalidToken
	}

	token, err := jwtlib.ParseWithClaims(rawToken, jwtlib.MapClaims{}, i.signer.GetVerificationKey,
		jwtlib.WithValidMethods([]string{i.signer.GetSigningMethod().Alg()}),
		jwtlib.WithIssuer(i.config.GetIssuer()),
		jwtlib.WithAudience(i.config.GetAudience()),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(NowTimeFunc),
	)
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, apperrors.Wrapf(apperrors.ErrTokenExpired, "inspect")
		}
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "inspect: %v", err)
	}

	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "error extracting claims from token")
	}
	if tokenType, _ := claims["token_type"].(string); tokenType != tokenTypeAccess {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "token type %q", tokenType)
	}

	sub, _ := claims["sub"].(string)
	uid, _ := claims["uid"].(string)
	jti, _ := claims["jti"].(string)
	exp, _ := claims.GetExpirationTime()

	if jti != "" && i.revokedChecker != nil && i.revokedChecker.IsRevoked(jti) {
		return nil, apperrors.ErrTokenRevoked
	}

	access := &AccessClaims{
		Subject: sub,
		UserID:  uid,
		Roles:   utils.ToStringSlice(claims["roles"]),
		JTI:     jti,
	}
	if exp != nil {
		access.Expiry = exp.Time
	}
	return access, nil
}
