package refresh

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/go-fintrack-client/internal/config"
	apperrors "github.com/jrsteele09/go-fintrack-client/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Manager handles refresh token creation, validation, and rotation
type Manager struct {
	repo   Repo
	config config.DevBackendConfig
	lock   sync.Mutex
}

// NewManager creates a new refresh token manager
func NewManager(repo Repo, cfg config.DevBackendConfig) *Manager {
	return &Manager{
		repo:   repo,
		config: cfg,
	}
}

// Create issues a new refresh token for userID, replacing any existing one.
func (m *Manager) Create(userID string) (string, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.create(userID)
}

// Rotate exchanges a valid token for a new one. The presented token is
// consumed even when it turns out to be expired.
func (m *Manager) Rotate(token string) (*StoredRefreshToken, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	rt, err := m.repo.Get(token)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidRefreshToken, "rotate: %v", err)
	}
	if err := m.repo.Delete(rt.Token); err != nil {
		return nil, fmt.Errorf("failed to delete refresh token: %w", err)
	}
	if m.IsExpired(rt) {
		return nil, apperrors.ErrRefreshTokenExpired
	}

	newToken, err := m.create(rt.UserID)
	if err != nil {
		return nil, err
	}
	return m.repo.Get(newToken)
}

// Revoke removes the user's refresh token, if any.
func (m *Manager) Revoke(userID string) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	existing, err := m.repo.GetByUserID(userID)
	if err != nil || existing == nil {
		return nil
	}
	return m.repo.Delete(existing.Token)
}

// RevokeToken deletes a single token. Unknown tokens are ignored.
func (m *Manager) RevokeToken(token string) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if _, err := m.repo.Get(token); err != nil {
		return nil
	}
	return m.repo.Delete(token)
}

// IsExpired checks if a refresh token has outlived the configured expiry
func (m *Manager) IsExpired(rt *StoredRefreshToken) bool {
	return NowTimeFunc().Sub(rt.Iat) > m.config.GetRefreshTokenExpiry()
}

func (m *Manager) create(userID string) (string, error) {
	// Single refresh token per user
	if existingToken, err := m.repo.GetByUserID(userID); err == nil && existingToken != nil {
		if err := m.repo.Delete(existingToken.Token); err != nil {
			return "", fmt.Errorf("failed to delete existing refresh token: %w", err)
		}
	}

	tokenBytes := make([]byte, m.config.GetRefreshTokenLength())
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	tokenStr := hex.EncodeToString(tokenBytes)
	if err := m.repo.Upsert(&StoredRefreshToken{
		Token:  tokenStr,
		UserID: userID,
		Iat:    NowTimeFunc(),
	}); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return tokenStr, nil
}
