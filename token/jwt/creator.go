package jwt

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-fintrack-client/internal/config"
	"github.com/jrsteele09/go-fintrack-client/token/keys"
	"github.com/jrsteele09/go-fintrack-client/users"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

const tokenTypeAccess = "access"

// Creator handles JWT token creation (ID tokens and access tokens)
type Creator struct {
	config config.DevBackendConfig
	signer keys.Signer
}

// NewCreator creates a new JWT creator
func NewCreator(cfg config.DevBackendConfig, signer keys.Signer) *Creator {
	return &Creator{
		config: cfg,
		signer: signer,
	}
}

// AccessToken is a signed access token and the metadata needed to revoke it.
type AccessToken struct {
	Raw    string
	JTI    string
	Expiry time.Time
}

// CreateAccessToken creates the short-lived access token carried in the
// access cookie. The subject is the user's email.
func (c *Creator) CreateAccessToken(user *users.User) (*AccessToken, error) {
	now := NowTimeFunc()
	exp := now.Add(c.config.GetAccessTokenExpiry())
	jti := uuid.New().String()
	claims := jwtlib.MapClaims{
		"iss":        c.config.GetIssuer(),   // The issuer of the token
		"aud":        c.config.GetAudience(), // The audience for which the token is intended
		"sub":        user.Email,             // Session subject
		"uid":        user.ID,                // Stable user id
		"roles":      user.RoleNames(),       // Roles granted to the user
		"token_type": tokenTypeAccess,
		"iat":        now.Unix(),
		"exp":        exp.Unix(),
		"jti":        jti, // Unique token ID for revocation
	}

	signed, err := c.sign(claims)
	if err != nil {
		return nil, err
	}
	return &AccessToken{Raw: signed, JTI: jti, Expiry: exp}, nil
}

// CreateIDToken creates an OpenID Connect ID token describing the user.
// It shares the access token lifetime.
func (c *Creator) CreateIDToken(user *users.User) (string, error) {
	now := NowTimeFunc()
	claims := jwtlib.MapClaims{
		"iss":         c.config.GetIssuer(),
		"sub":         user.Email,
		"aud":         c.config.GetAudience(),
		"email":       user.Email,
		"given_name":  user.FirstName,
		"family_name": user.LastName,
		"roles":       user.RoleNames(),
		"iat":         now.Unix(),
		"exp":         now.Add(c.config.GetAccessTokenExpiry()).Unix(),
		"jti":         uuid.New().String(),
	}
	return c.sign(claims)
}

func (c *Creator) sign(claims jwtlib.MapClaims) (string, error) {
	signedToken, err := c.signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return signedToken, nil
}
