package auth

import (
	"context"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/GintGld/kshana-timeline/internal/lib/logger/slogdiscard"
	"github.com/GintGld/kshana-timeline/internal/models"
	"github.com/GintGld/kshana-timeline/internal/service"
	jwtService "github.com/GintGld/kshana-timeline/internal/service/jwt"
)

func TestLogin(t *testing.T) {
	secret := []byte(gofakeit.Password(true, true, true, false, false, 32))
	pass := gofakeit.Password(true, true, true, true, false, 10)

	hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.MinCost)
	require.NoError(t, err)

	a := New(slogdiscard.NewDiscardLogger(), jwtService.New(secret), hash, time.Hour)

	testCases := []struct {
		desc  string
		login string
		pass  string
		err   error
	}{
		{desc: "root", login: models.RootLogin, pass: pass},
		{desc: "wrong password", login: models.RootLogin, pass: pass + "x", err: service.ErrInvalidCredentials},
		{desc: "unknown login", login: gofakeit.Username(), pass: pass, err: service.ErrInvalidCredentials},
	}

	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			tokenString, err := a.Login(context.Background(), tC.login, tC.pass)
			if tC.err != nil {
				assert.ErrorIs(t, err, tC.err)
				return
			}
			require.NoError(t, err)

			claims := jwt.MapClaims{}
			token, err := jwt.NewParser().ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
				return secret, nil
			})
			require.NoError(t, err)
			require.True(t, token.Valid)

			assert.Equal(t, models.RootLogin, claims["login"])
			exp, err := claims.GetExpirationTime()
			require.NoError(t, err)
			assert.WithinDuration(t, time.Now().Add(time.Hour), exp.Time, 5*time.Second)
		})
	}
}
