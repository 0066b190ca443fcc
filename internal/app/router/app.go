package router

import (
	"log/slog"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/crypto/bcrypt"

	authSrv "github.com/GintGld/kshana-timeline/internal/service/auth"
	jwtSrv "github.com/GintGld/kshana-timeline/internal/service/jwt"
	librarySrv "github.com/GintGld/kshana-timeline/internal/service/library"
	"github.com/GintGld/kshana-timeline/internal/service/workspace"
	"github.com/GintGld/kshana-timeline/internal/storage/sqlite"

	authCtr "github.com/GintGld/kshana-timeline/internal/controller/auth"
	jwtCtr "github.com/GintGld/kshana-timeline/internal/controller/jwt"
	libraryCtr "github.com/GintGld/kshana-timeline/internal/controller/library"
	markerCtr "github.com/GintGld/kshana-timeline/internal/controller/marker"
	projectCtr "github.com/GintGld/kshana-timeline/internal/controller/project"
	timelineCtr "github.com/GintGld/kshana-timeline/internal/controller/timeline"
	trackCtr "github.com/GintGld/kshana-timeline/internal/controller/track"
)

type App struct {
	log     *slog.Logger
	address string
	app     *fiber.App
}

// New returns configured router.App
func New(
	log *slog.Logger,
	manager *workspace.Manager,
	storage *sqlite.Storage,
	address string,
	timeout time.Duration,
	idleTimeout time.Duration,
	tokenTTL time.Duration,
	secret []byte,
	rootPass []byte,
	tmpDir string,
) *App {
	// Create sevices
	jwt := jwtSrv.New(secret)

	rootPassHash, err := bcrypt.GenerateFromPassword(rootPass, bcrypt.DefaultCost)
	if err != nil {
		panic("invalid root password")
	}
	auth := authSrv.New(
		log,
		jwt,
		rootPassHash,
		tokenTTL,
	)

	lib := librarySrv.New(log)

	// Create controller helper
	jwtCtr := jwtCtr.New(secret)

	app := fiber.New(fiber.Config{
		JSONEncoder: sonic.Marshal,
		JSONDecoder: sonic.Unmarshal,
		ReadTimeout: timeout,
		IdleTimeout: idleTimeout,
	})

	app.Use(recover.New())

	// Mount controllers to an app
	app.Mount("/login", authCtr.New(timeout, auth))
	app.Mount("/projects", projectCtr.New(manager, storage, jwtCtr, timeout))
	app.Mount("/timeline", timelineCtr.New(manager, jwtCtr))
	app.Mount("/markers", markerCtr.New(manager, jwtCtr, timeout))
	app.Mount("/tracks", trackCtr.New(manager, jwtCtr, timeout, tmpDir))
	app.Mount("/library", libraryCtr.New(manager, lib, jwtCtr))

	return &App{
		log:     log,
		address: address,
		app:     app,
	}
}

func (a *App) MustRun() {
	if err := a.Run(); err != nil {
		panic(err)
	}
}

func (a *App) Run() error {
	a.log.Info("http server is running", slog.String("address", a.address))

	return a.app.Listen(a.address)
}

func (a *App) Stop() {
	if err := a.app.Shutdown(); err != nil {
		a.log.Warn("failed to shutdown http server", slog.String("error", err.Error()))
	}
}
