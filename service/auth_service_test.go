// file: service/auth_service_test.go

package service

import (
	"go-ledger-api/config"
	"go-ledger-api/model"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func TestAuthService_HashAndCheckPassword(t *testing.T) {
	password := "mySecretPassword123"

	hashedPassword, err := HashPassword(password)
	assert.NoError(t, err)
	assert.NotEqual(t, password, hashedPassword)

	assert.True(t, CheckPasswordHash(password, hashedPassword))
	assert.False(t, CheckPasswordHash("notMyPassword", hashedPassword))
}

func TestAuthService_AccessTokenRoundTrip(t *testing.T) {
	config.AppConfig.JWT.SecretKey = "test-secret"

	tokenString, err := GenerateAccessToken(42)
	assert.NoError(t, err)
	assert.NotEmpty(t, tokenString)

	claims := &model.AppClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})

	assert.NoError(t, err)
	assert.True(t, token.Valid)
	assert.Equal(t, 42, claims.UserID)
}

func TestAuthService_RefreshTokens(t *testing.T) {
	first, err := GenerateRefreshToken()
	assert.NoError(t, err)
	second, err := GenerateRefreshToken()
	assert.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NotEqual(t, first, HashToken(first))
	assert.Equal(t, HashToken(first), HashToken(first))
}
