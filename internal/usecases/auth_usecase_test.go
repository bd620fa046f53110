package usecases

import (
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestAuthLoginIssuesAdminToken(t *testing.T) {
	uc, err := NewAuthUsecase("admin", "s3cret", "jwt-secret")
	require.NoError(t, err)
	require.True(t, uc.Enabled())

	tokenString, err := uc.Login("admin", "s3cret")
	require.NoError(t, err)

	token, err := jwt.Parse(tokenString, func(*jwt.Token) (interface{}, error) { return []byte("jwt-secret"), nil })
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	require.Equal(t, "admin", claims["user_id"])
	require.Equal(t, "admin", claims["role"])
}

func TestAuthLoginRejectsBadCredentials(t *testing.T) {
	uc, err := NewAuthUsecase("admin", "s3cret", "jwt-secret")
	require.NoError(t, err)

	for _, tc := range [][2]string{{"admin", "wrong"}, {"root", "s3cret"}, {"", ""}} {
		_, err := uc.Login(tc[0], tc[1])
		var ucErr *Error
		require.True(t, errors.As(err, &ucErr))
		require.Equal(t, ErrorInvalidCredentials, ucErr.Code)
	}
}

func TestAuthDisabledWithoutAccount(t *testing.T) {
	uc, err := NewAuthUsecase("", "", "")
	require.NoError(t, err)
	require.False(t, uc.Enabled())
	_, err = uc.Login("", "")
	require.Error(t, err)
}

func TestAuthRequiresSecret(t *testing.T) {
	_, err := NewAuthUsecase("admin", "pw", "")
	require.Error(t, err)
}
