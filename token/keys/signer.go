package keys

import (
	"errors"
	"fmt"
	"sync"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingKeyID = errors.New("token has no kid header")
	ErrUnknownKeyID = errors.New("token signed by an unknown key")
)

// Signer signs the dev backend's tokens and resolves the keys that verify them.
type Signer interface {
	Sign(claims jwt.MapClaims) (string, error)
	// GetVerificationKey is a jwt.Keyfunc.
	GetVerificationKey(token *jwt.Token) (any, error)
	GetSigningMethod() jwt.SigningMethod
	GetJWKS() (*JWKS, error)
}

// KeyRing signs with its current key. After a rotation the previous key keeps
// verifying, and stays in the JWKS, until the next rotation retires it.
type KeyRing struct {
	lock     sync.RWMutex
	current  *KeyPair
	previous *KeyPair
}

var _ Signer = (*KeyRing)(nil)

func NewKeyRing(current *KeyPair) *KeyRing {
	return &KeyRing{current: current}
}

// Rotate makes next the signing key and drops the key retired before this one.
func (r *KeyRing) Rotate(next *KeyPair) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.previous = r.current
	r.current = next
}

// CurrentKeyID is the kid stamped on newly signed tokens.
func (r *KeyRing) CurrentKeyID() string {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.current.KeyID
}

func (r *KeyRing) Sign(claims jwt.MapClaims) (string, error) {
	r.lock.RLock()
	kp := r.current
	r.lock.RUnlock()

	token := jwt.NewWithClaims(kp.GetSigningMethod(), claims)
	token.Header["kid"] = kp.KeyID

	signed, err := token.SignedString(kp.PrivateKey)
	if err != nil {
		return "", fmt.Errorf("sign token with key %s: %w", kp.KeyID, err)
	}
	return signed, nil
}

func (r *KeyRing) GetVerificationKey(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	kid, _ := token.Header["kid"].(string)
	if kid == "" {
		return nil, ErrMissingKeyID
	}
	for _, kp := range r.keys() {
		if kp.KeyID == kid {
			return kp.PublicKey, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownKeyID, kid)
}

func (r *KeyRing) GetSigningMethod() jwt.SigningMethod {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.current.GetSigningMethod()
}

// GetJWKS lists the current key first.
func (r *KeyRing) GetJWKS() (*JWKS, error) {
	jwks := &JWKS{}
	for _, kp := range r.keys() {
		jwk, err := kp.ToJWK()
		if err != nil {
			return nil, fmt.Errorf("key %s to JWK: %w", kp.KeyID, err)
		}
		jwks.Keys = append(jwks.Keys, *jwk)
	}
	return jwks, nil
}

func (r *KeyRing) keys() []*KeyPair {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if r.previous == nil {
		return []*KeyPair{r.current}
	}
	return []*KeyPair{r.current, r.previous}
}
