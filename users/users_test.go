package users_test

import (
	"testing"

	apperrors "github.com/jrsteele09/go-fintrack-client/internal/errors"
	"github.com/jrsteele09/go-fintrack-client/users"
	fakeuserrepo "github.com/jrsteele09/go-fintrack-client/users/repofake"
	"github.com/stretchr/testify/require"
)

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		password string
		wantErr  bool
	}{
		{"Secret123", false},
		{"short1A", true},
		{"alllowercase1", true},
		{"ALLUPPERCASE1", true},
		{"NoNumbersHere", true},
	}
	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			err := users.ValidatePasswordStrength(tt.password)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestNew(t *testing.T) {
	u, err := users.New(" Ann@Example.com ", "Ann", "Lee", "Secret123")
	require.NoError(t, err)
	require.Equal(t, "ann@example.com", u.Email)
	require.NotEqual(t, "Secret123", u.PasswordHash)
	require.True(t, u.CheckPassword("Secret123"))
	require.False(t, u.CheckPassword("secret123"))
	require.Equal(t, []string{"ROLE_USER"}, u.RoleNames())
	require.True(t, u.HasRole(users.RoleUser))
	require.False(t, u.HasRole(users.RoleAdmin))

	_, err = users.New("", "A", "B", "Secret123")
	require.Error(t, err)
	_, err = users.New("a@b.c", "A", "B", "weak")
	require.Error(t, err)
}

func TestFakeUserRepo(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()
	u, err := users.New("ann@example.com", "Ann", "Lee", "Secret123", users.RoleUser, users.RoleAdmin)
	require.NoError(t, err)
	require.NoError(t, repo.Upsert(u))
	require.NotEmpty(t, u.ID)

	got, err := repo.GetByEmail("ANN@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	got.FirstName = "changed"
	again, err := repo.GetByID(u.ID)
	require.NoError(t, err)
	require.Equal(t, "Ann", again.FirstName)

	require.NoError(t, repo.SetBlocked("ann@example.com", true))
	require.NoError(t, repo.RecordLogin("ann@example.com"))
	again, err = repo.GetByID(u.ID)
	require.NoError(t, err)
	require.True(t, again.Blocked)
	require.False(t, again.LastLogin.IsZero())

	_, err = repo.GetByEmail("nobody@example.com")
	require.ErrorIs(t, err, apperrors.ErrUserNotFound)
	require.ErrorIs(t, repo.SetBlocked("nobody@example.com", true), apperrors.ErrUserNotFound)
}
