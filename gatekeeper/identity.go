package gatekeeper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-fintrack-client/session"
)

// IDTokenVerifier verifies a raw OIDC id token. *oidc.IDTokenVerifier
// satisfies it.
type IDTokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)
}

// identityPayload is the body returned by login, refresh and the probe.
type identityPayload struct {
	Subject          string   `json:"subject"`
	FirstName        string   `json:"firstName"`
	LastName         string   `json:"lastName"`
	Email            string   `json:"email"`
	Roles            []string `json:"roles"`
	AntiForgeryToken string   `json:"antiForgeryToken"`
	IDToken          string   `json:"idToken"`
}

type idTokenClaims struct {
	GivenName  string   `json:"given_name"`
	FamilyName string   `json:"family_name"`
	Email      string   `json:"email"`
	Roles      []string `json:"roles"`
}

// decodeIdentity returns nil, nil for a body that carries no identity.
func (g *Gatekeeper) decodeIdentity(ctx context.Context, body []byte) (*session.Identity, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	var p identityPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: identity: %v", ErrMalformedResponse, err)
	}

	identity := &session.Identity{
		Subject:          p.Subject,
		FirstName:        p.FirstName,
		LastName:         p.LastName,
		Email:            p.Email,
		Roles:            p.Roles,
		AntiForgeryToken: p.AntiForgeryToken,
	}

	if p.IDToken != "" && g.verifier != nil {
		if err := g.applyIDToken(ctx, identity, p.IDToken); err != nil {
			return nil, err
		}
	}

	if identity.Subject == "" {
		return nil, nil
	}
	return identity, nil
}

// applyIDToken overrides identity fields with verified claims.
func (g *Gatekeeper) applyIDToken(ctx context.Context, identity *session.Identity, raw string) error {
	token, err := g.verifier.Verify(ctx, raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIdentityUnverified, err)
	}
	var claims idTokenClaims
	if err := token.Claims(&claims); err != nil {
		return fmt.Errorf("%w: claims: %w", ErrIdentityUnverified, err)
	}

	identity.Subject = token.Subject
	if claims.GivenName != "" {
		identity.FirstName = claims.GivenName
	}
	if claims.FamilyName != "" {
		identity.LastName = claims.FamilyName
	}
	if claims.Email != "" {
		identity.Email = claims.Email
	}
	if claims.Roles != nil {
		identity.Roles = claims.Roles
	}
	return nil
}
