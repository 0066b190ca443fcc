package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/GintGld/kshana-timeline/internal/lib/logger/sl"
	"github.com/GintGld/kshana-timeline/internal/models"
	"github.com/GintGld/kshana-timeline/internal/service"
)

type Auth struct {
	log          *slog.Logger
	jwtMaker     jwtMaker
	rootPassHash []byte
	tokenTTL     time.Duration
}

type jwtMaker interface {
	NewToken(login string, duration time.Duration) (string, error)
}

// New returns new instance of authentication service
func New(
	log *slog.Logger,
	jwtMaker jwtMaker,
	rootPassHash []byte,
	tokenTTL time.Duration,
) *Auth {
	return &Auth{
		log:          log,
		jwtMaker:     jwtMaker,
		rootPassHash: rootPassHash,
		tokenTTL:     tokenTTL,
	}
}

// Login checks the operator's credentials and returns access token.
func (a *Auth) Login(_ context.Context, login string, password string) (string, error) {
	const op = "Auth.Login"

	log := a.log.With(
		slog.String("op", op),
		slog.String("login", login),
	)

	log.Info("attempting to login")

	if login != models.RootLogin {
		log.Info("unknown login")

		return "", fmt.Errorf("%s: %w", op, service.ErrInvalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword(a.rootPassHash, []byte(password)); err != nil {
		log.Info("invalid credentials", sl.Err(err))

		return "", fmt.Errorf("%s: %w", op, service.ErrInvalidCredentials)
	}

	token, err := a.jwtMaker.NewToken(login, a.tokenTTL)
	if err != nil {
		log.Error("failed to generate token", sl.Err(err))

		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("logged in successfully")

	return token, nil
}
