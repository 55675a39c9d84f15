package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJWTService(t *testing.T) {
	svc := NewJWTService("secret", 15*time.Minute)

	assert.NotNil(t, svc)
	assert.Equal(t, 15*time.Minute, svc.AccessExpiry())
}

func TestJWTService_GenerateToken(t *testing.T) {
	svc := NewJWTService("test-secret", 15*time.Minute)

	token, err := svc.GenerateToken("100200300", []string{"111", "222"}, true)

	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestJWTService_ValidateToken_Valid(t *testing.T) {
	svc := NewJWTService("test-secret", 15*time.Minute)

	token, err := svc.GenerateToken("100200300", []string{"111", "222"}, true)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)

	require.NoError(t, err)
	assert.Equal(t, "100200300", claims.UserID)
	assert.Equal(t, []string{"111", "222"}, claims.Roles)
	assert.True(t, claims.Manage)
	assert.Equal(t, "profilio-api", claims.Issuer)
}

func TestJWTService_ValidateToken_WrongSecret(t *testing.T) {
	svc1 := NewJWTService("secret-1", 15*time.Minute)
	svc2 := NewJWTService("secret-2", 15*time.Minute)

	token, err := svc1.GenerateToken("100200300", nil, false)
	require.NoError(t, err)

	_, err = svc2.ValidateToken(token)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse token")
}

func TestJWTService_ValidateToken_Expired(t *testing.T) {
	svc := NewJWTService("test-secret", 1*time.Millisecond)

	token, err := svc.GenerateToken("100200300", nil, false)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = svc.ValidateToken(token)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse token")
}

func TestJWTService_ValidateToken_Malformed(t *testing.T) {
	svc := NewJWTService("test-secret", 15*time.Minute)

	for _, tc := range []string{"", "not-a-token", "a.b.c"} {
		_, err := svc.ValidateToken(tc)
		assert.Error(t, err, tc)
	}
}
