package jwtService

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewToken(t *testing.T) {
	secret := []byte("harbour-secret")
	j := New(secret)

	first, err := j.NewToken("root", time.Minute)
	require.NoError(t, err)
	second, err := j.NewToken("root", time.Minute)
	require.NoError(t, err)

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(first, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	assert.Equal(t, "root", claims.Login)
	assert.Equal(t, "root", claims.Subject)
	assert.Equal(t, Issuer, claims.Issuer)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(time.Minute), claims.ExpiresAt.Time, 5*time.Second)

	assert.NotEqual(t, first, second)
}

func TestExpiredToken(t *testing.T) {
	secret := []byte("harbour-secret")

	signed, err := New(secret).NewToken("root", -time.Minute)
	require.NoError(t, err)

	_, err = jwt.ParseWithClaims(signed, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	})
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}
