package jwtService

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer marks tokens signed by the timeline server.
const Issuer = "kshana-timeline"

// Claims of an operator session token.
type Claims struct {
	Login string `json:"login"`
	jwt.RegisteredClaims
}

type JWT struct {
	secret []byte
}

func New(secret []byte) *JWT {
	return &JWT{
		secret: secret,
	}
}

// NewToken signs a session token for login valid for duration.
// Every token carries its own id so sessions can be told apart in logs.
func (j *JWT) NewToken(login string, duration time.Duration) (string, error) {
	const op = "JWT.NewToken"

	now := time.Now()
	claims := Claims{
		Login: login,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   login,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}
