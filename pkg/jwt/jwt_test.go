package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAccessSecret  = "test-access-secret-key-for-testing-purposes"
	testRefreshSecret = "test-refresh-secret-key-for-testing-purposes"
)

func newTestService() *Service {
	return NewService(testAccessSecret, testRefreshSecret, 15*time.Minute, 7*24*time.Hour)
}

func TestNewService(t *testing.T) {
	service := newTestService()

	assert.NotNil(t, service)
	assert.Equal(t, testAccessSecret, service.accessSecret)
	assert.Equal(t, testRefreshSecret, service.refreshSecret)
	assert.Equal(t, 15*time.Minute, service.AccessTokenExpiry())
	assert.Equal(t, 7*24*time.Hour, service.RefreshTokenExpiry())
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	service := newTestService()

	token, err := service.GenerateAccessToken(42, "ana@example.com", "Ana Pereira", []string{"user", "support"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.Equal(t, "Ana Pereira", claims.Nome)
	assert.Equal(t, []string{"user", "support"}, claims.Roles)
	assert.Equal(t, AccessToken, claims.TokenType)
	assert.Equal(t, "42", claims.Subject)
}

func TestGenerateAndValidateRefreshToken(t *testing.T) {
	service := newTestService()

	token, err := service.GenerateRefreshToken(7, "rui@example.com")
	require.NoError(t, err)

	claims, err := service.ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "rui@example.com", claims.Email)
	assert.Equal(t, RefreshToken, claims.TokenType)
}

func TestTokenTypeMismatch(t *testing.T) {
	service := newTestService()

	refresh, err := service.GenerateRefreshToken(7, "rui@example.com")
	require.NoError(t, err)

	// A refresh token must not pass access-token validation
	_, err = service.ValidateAccessToken(refresh)
	assert.Error(t, err)

	access, err := service.GenerateAccessToken(7, "rui@example.com", "Rui", []string{"user"})
	require.NoError(t, err)

	_, err = service.ValidateRefreshToken(access)
	assert.Error(t, err)
}

func TestWrongSecretRejected(t *testing.T) {
	service := newTestService()
	other := NewService("different-secret", "different-refresh", 15*time.Minute, time.Hour)

	token, err := service.GenerateAccessToken(1, "ana@example.com", "Ana", []string{"user"})
	require.NoError(t, err)

	_, err = other.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	service := NewService(testAccessSecret, testRefreshSecret, -time.Minute, -time.Minute)

	token, err := service.GenerateAccessToken(1, "ana@example.com", "Ana", []string{"user"})
	require.NoError(t, err)

	_, err = service.ValidateAccessToken(token)
	assert.Error(t, err)
	assert.True(t, service.IsTokenExpired(token))
}

func TestIsTokenExpired(t *testing.T) {
	service := newTestService()

	token, err := service.GenerateAccessToken(1, "ana@example.com", "Ana", []string{"user"})
	require.NoError(t, err)

	assert.False(t, service.IsTokenExpired(token))
	assert.True(t, service.IsTokenExpired("not-a-token"))
}
