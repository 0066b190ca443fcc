package auth

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"

	"github.com/GintGld/kshana-timeline/internal/controller/reply"
	"github.com/GintGld/kshana-timeline/internal/models"
)

// New returns an fiber.App that exchanges
// the operator's credentials for a session token.
func New(
	timeout time.Duration,
	a Auth,
) *fiber.App {
	authCtr := authController{
		timeout: timeout,
		srv:     a,
	}

	app := fiber.New(fiber.Config{
		JSONEncoder: sonic.Marshal,
		JSONDecoder: sonic.Unmarshal,
	})

	app.Post("/", authCtr.login)

	return app
}

type authController struct {
	timeout time.Duration
	srv     Auth
}

type Auth interface {
	Login(ctx context.Context, login string, password string) (string, error)
}

func (authCtr *authController) login(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), authCtr.timeout)
	defer cancel()

	var form models.Credentials
	if err := c.BodyParser(&form); err != nil {
		return reply.BadRequest(c, "invalid form")
	}

	switch {
	case form.Login == "":
		return reply.BadRequest(c, "login required")
	case form.Pass == "":
		return reply.BadRequest(c, "password required")
	}

	token, err := authCtr.srv.Login(ctx, form.Login, form.Pass)
	if err != nil {
		return reply.Error(c, err)
	}

	return c.JSON(fiber.Map{
		"token": token,
	})
}
