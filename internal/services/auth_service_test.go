package services

import (
	"testing"

	"retail_pos_backend/internal/models"
	"retail_pos_backend/internal/repositories"

	"github.com/stretchr/testify/require"
)

func newAuthFixture(t *testing.T) AuthService {
	t.Helper()
	store, err := repositories.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return NewAuthService(store)
}

func TestRegisterAndLogin(t *testing.T) {
	as := newAuthFixture(t)

	user, err := as.RegisterUser(RegisterUserRequest{Username: "asha", Password: "secret-password"})
	require.NoError(t, err)
	require.Equal(t, models.RoleStaff, user.Role) // default role
	require.True(t, user.IsActive)

	resp, err := as.LoginUser(LoginRequest{Username: "asha", Password: "secret-password"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)
	require.Equal(t, user.ID, resp.User.ID)

	_, err = as.LoginUser(LoginRequest{Username: "asha", Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = as.LoginUser(LoginRequest{Username: "nobody", Password: "whatever"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	as := newAuthFixture(t)

	_, err := as.RegisterUser(RegisterUserRequest{Username: "asha", Password: "secret-password"})
	require.NoError(t, err)

	_, err = as.RegisterUser(RegisterUserRequest{Username: "asha", Password: "other-password"})
	require.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	as := newAuthFixture(t)

	_, err := as.RegisterUser(RegisterUserRequest{Username: "asha", Password: "secret-password", Role: "Owner"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestRefreshTokens(t *testing.T) {
	as := newAuthFixture(t)

	_, err := as.RegisterUser(RegisterUserRequest{Username: "asha", Password: "secret-password", Role: models.RoleAdmin})
	require.NoError(t, err)
	resp, err := as.LoginUser(LoginRequest{Username: "asha", Password: "secret-password"})
	require.NoError(t, err)

	refreshed, err := as.RefreshTokens(RefreshTokenRequest{RefreshToken: resp.RefreshToken})
	require.NoError(t, err)
	require.NotEmpty(t, refreshed.AccessToken)
	require.Equal(t, resp.User.ID, refreshed.User.ID)

	_, err = as.RefreshTokens(RefreshTokenRequest{RefreshToken: "bogus"})
	require.ErrorIs(t, err, ErrInvalidToken)
}
