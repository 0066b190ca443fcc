package library

import (
	"context"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"

	jwtController "github.com/GintGld/kshana-timeline/internal/controller/jwt"
	"github.com/GintGld/kshana-timeline/internal/controller/reply"
	"github.com/GintGld/kshana-timeline/internal/models"
	"github.com/GintGld/kshana-timeline/internal/service/library"
	"github.com/GintGld/kshana-timeline/internal/service/workspace"
)

// New returns fiber app that searches a project's placements.
func New(ws Workspaces, lib Library, jwtC *jwtController.JWT) *fiber.App {
	libCtr := libraryController{
		ws:  ws,
		lib: lib,
	}

	app := fiber.New(fiber.Config{
		JSONEncoder:              sonic.Marshal,
		JSONDecoder:              sonic.Unmarshal,
		EnableSplittingOnParsers: true,
	})

	app.Use(jwtC.AuthRequired())

	app.Get("/:project", libCtr.search)

	return app
}

type libraryController struct {
	ws  Workspaces
	lib Library
}

type Workspaces interface {
	Get(project string) (*workspace.Workspace, error)
}

type Library interface {
	Search(
		ctx context.Context,
		placements []models.Placement,
		assets []models.Asset,
		active models.ActiveVersions,
		filter library.Filter,
	) []library.Hit
}

// search returns placements ranked by prompt match
// with their generated versions.
func (libCtr *libraryController) search(c *fiber.Ctx) error {
	w, err := libCtr.ws.Get(c.Params("project"))
	if err != nil {
		return reply.Error(c, err)
	}

	var kinds []models.PlacementKind
	if s := c.Query("kinds"); s != "" {
		for _, k := range strings.Split(s, ",") {
			kind := models.PlacementKind(strings.TrimSpace(k))
			if !kind.Valid() {
				return reply.BadRequest(c, "unknown kind "+string(kind))
			}
			kinds = append(kinds, kind)
		}
	}

	filter := library.Filter{
		Query: c.Query("q"),
		Kinds: kinds,
		Limit: c.QueryInt("limit"),
	}

	hits := libCtr.lib.Search(context.TODO(), w.Placements(), w.Assets(), w.State().ActiveVersions, filter)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"hits": hits,
	})
}
