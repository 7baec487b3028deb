package refresh_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-fintrack-client/internal/config"
	apperrors "github.com/jrsteele09/go-fintrack-client/internal/errors"
	"github.com/jrsteele09/go-fintrack-client/token/refresh"
	refreshrepofake "github.com/jrsteele09/go-fintrack-client/token/refresh/repofake"
	"github.com/stretchr/testify/require"
)

func newManager() (*refresh.Manager, refresh.Repo) {
	repo := refreshrepofake.NewFakeRefreshTokenRepo()
	return refresh.NewManager(repo, config.MustParse(map[string]string{"DEV_REFRESH_TOKEN_LENGTH": "16"})), repo
}

func TestCreate(t *testing.T) {
	m, repo := newManager()

	first, err := m.Create("u-1")
	require.NoError(t, err)
	require.Len(t, first, 32)

	second, err := m.Create("u-1")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	_, err = repo.Get(first)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	stored, err := repo.GetByUserID("u-1")
	require.NoError(t, err)
	require.Equal(t, second, stored.Token)
}

func TestRotate(t *testing.T) {
	m, repo := newManager()
	original, err := m.Create("u-1")
	require.NoError(t, err)

	rotated, err := m.Rotate(original)
	require.NoError(t, err)
	require.Equal(t, "u-1", rotated.UserID)
	require.NotEqual(t, original, rotated.Token)

	_, err = m.Rotate(original)
	require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)

	_, err = repo.Get(rotated.Token)
	require.NoError(t, err)
}

func TestRotateExpired(t *testing.T) {
	m, repo := newManager()
	refresh.NowTimeFunc = func() time.Time { return time.Now().Add(-30 * 24 * time.Hour) }
	token, err := m.Create("u-1")
	refresh.NowTimeFunc = time.Now
	require.NoError(t, err)

	_, err = m.Rotate(token)
	require.ErrorIs(t, err, apperrors.ErrRefreshTokenExpired)

	_, err = repo.GetByUserID("u-1")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRevoke(t *testing.T) {
	m, repo := newManager()
	token, err := m.Create("u-1")
	require.NoError(t, err)

	require.NoError(t, m.Revoke("u-1"))
	require.NoError(t, m.Revoke("u-1"))
	_, err = repo.Get(token)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRevokeToken(t *testing.T) {
	m, repo := newManager()
	token, err := m.Create("u-1")
	require.NoError(t, err)

	require.NoError(t, m.RevokeToken("unknown"))
	require.NoError(t, m.RevokeToken(token))
	_, err = repo.GetByUserID("u-1")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}
