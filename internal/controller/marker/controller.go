package marker

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"

	jwtController "github.com/GintGld/kshana-timeline/internal/controller/jwt"
	"github.com/GintGld/kshana-timeline/internal/controller/reply"
	"github.com/GintGld/kshana-timeline/internal/models"
	"github.com/GintGld/kshana-timeline/internal/service"
	"github.com/GintGld/kshana-timeline/internal/service/workspace"
)

// New returns fiber app that manages generation markers. The status
// route is where the generator reports progress.
func New(ws Workspaces, jwtC *jwtController.JWT, timeout time.Duration) *fiber.App {
	mCtr := markerController{
		ws:      ws,
		timeout: timeout,
	}

	app := fiber.New(fiber.Config{
		JSONEncoder: sonic.Marshal,
		JSONDecoder: sonic.Unmarshal,
	})

	app.Use(jwtC.AuthRequired())

	app.Get("/:project", mCtr.markers)
	app.Post("/:project", mCtr.createMarker)
	app.Put("/:project/:id/position", mCtr.moveMarker)
	app.Put("/:project/:id/status", mCtr.updateStatus)
	app.Delete("/:project/:id", mCtr.deleteMarker)

	return app
}

type markerController struct {
	ws      Workspaces
	timeout time.Duration
}

type Workspaces interface {
	Get(project string) (*workspace.Workspace, error)
}

func (mCtr *markerController) markers(c *fiber.Ctx) error {
	w, err := mCtr.ws.Get(c.Params("project"))
	if err != nil {
		return reply.Error(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"markers": w.Markers(),
	})
}

// createMarker adds a marker and sends it to the generator. When
// delivery fails the marker stays in error state and is still returned.
func (mCtr *markerController) createMarker(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), mCtr.timeout)
	defer cancel()

	w, err := mCtr.ws.Get(c.Params("project"))
	if err != nil {
		return reply.Error(c, err)
	}

	var form struct {
		Position *float64 `json:"position"`
		Prompt   string   `json:"prompt"`
	}
	if err := c.BodyParser(&form); err != nil {
		return fiber.ErrBadRequest
	}
	if form.Position == nil {
		return reply.BadRequest(c, "position required")
	}

	m, err := w.CreateMarker(ctx, *form.Position, form.Prompt)
	if err != nil {
		if errors.Is(err, service.ErrMessengerFailed) {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error":  "failed to send marker",
				"marker": m,
			})
		}
		return reply.Error(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(m)
}

func (mCtr *markerController) moveMarker(c *fiber.Ctx) error {
	w, err := mCtr.ws.Get(c.Params("project"))
	if err != nil {
		return reply.Error(c, err)
	}

	var form struct {
		Position *float64 `json:"position"`
	}
	if err := c.BodyParser(&form); err != nil || form.Position == nil {
		return reply.BadRequest(c, "position required")
	}

	ok, err := w.MoveMarker(c.Params("id"), *form.Position)
	if err != nil {
		return reply.Error(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"changed": ok,
	})
}

func (mCtr *markerController) updateStatus(c *fiber.Ctx) error {
	w, err := mCtr.ws.Get(c.Params("project"))
	if err != nil {
		return reply.Error(c, err)
	}

	var form struct {
		Status     models.MarkerStatus `json:"status"`
		ArtifactID string              `json:"artifactId"`
	}
	if err := c.BodyParser(&form); err != nil {
		return fiber.ErrBadRequest
	}

	m, err := w.OnMarkerUpdate(c.Params("id"), form.Status, form.ArtifactID)
	if err != nil {
		return reply.Error(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(m)
}

func (mCtr *markerController) deleteMarker(c *fiber.Ctx) error {
	w, err := mCtr.ws.Get(c.Params("project"))
	if err != nil {
		return reply.Error(c, err)
	}

	if err := w.DeleteMarker(c.Params("id")); err != nil {
		return reply.Error(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}
