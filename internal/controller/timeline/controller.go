package timeline

import (
	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"

	jwtController "github.com/GintGld/kshana-timeline/internal/controller/jwt"
	"github.com/GintGld/kshana-timeline/internal/controller/reply"
	"github.com/GintGld/kshana-timeline/internal/models"
	"github.com/GintGld/kshana-timeline/internal/service/workspace"
)

// New returns fiber app that edits the timeline of open projects.
func New(ws Workspaces, jwtC *jwtController.JWT) *fiber.App {
	tlCtr := timelineController{
		ws: ws,
	}

	app := fiber.New(fiber.Config{
		JSONEncoder: sonic.Marshal,
		JSONDecoder: sonic.Unmarshal,
	})

	app.Use(jwtC.AuthRequired())

	app.Get("/:project", tlCtr.view)
	app.Get("/:project/items", tlCtr.items)
	app.Post("/:project/undo", tlCtr.undo)

	// Timing edits
	app.Post("/:project/images/:placement/resize", tlCtr.resizeImage)
	app.Post("/:project/infographics/:placement/move", tlCtr.moveInfographic)
	app.Post("/:project/videos/:placement/split", tlCtr.splitVideo)
	app.Delete("/:project/videos/:placement/split", tlCtr.removeSplit)
	app.Delete("/:project/placements/:placement/timing", tlCtr.resetTiming)
	app.Put("/:project/placements/:placement/version", tlCtr.selectVersion)

	// Drags
	app.Post("/:project/interactions", tlCtr.beginInteraction)
	app.Put("/:project/interactions/:id", tlCtr.updateInteraction)
	app.Delete("/:project/interactions/:id", tlCtr.endInteraction)

	// Playback
	app.Post("/:project/play", tlCtr.play)
	app.Post("/:project/pause", tlCtr.pause)
	app.Post("/:project/seek", tlCtr.seek)
	app.Put("/:project/zoom", tlCtr.zoom)

	return app
}

type timelineController struct {
	ws Workspaces
}

type Workspaces interface {
	Get(project string) (*workspace.Workspace, error)
}

func (tlCtr *timelineController) workspace(c *fiber.Ctx) (*workspace.Workspace, error) {
	return tlCtr.ws.Get(c.Params("project"))
}

func changed(c *fiber.Ctx, w *workspace.Workspace, ok bool) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"changed": ok,
		"version": w.Version(),
	})
}

func (tlCtr *timelineController) view(c *fiber.Ctx) error {
	w, err := tlCtr.workspace(c)
	if err != nil {
		return reply.Error(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(w.View())
}

func (tlCtr *timelineController) items(c *fiber.Ctx) error {
	w, err := tlCtr.workspace(c)
	if err != nil {
		return reply.Error(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"items":    w.Items(),
		"duration": w.Duration(),
	})
}

func (tlCtr *timelineController) undo(c *fiber.Ctx) error {
	w, err := tlCtr.workspace(c)
	if err != nil {
		return reply.Error(c, err)
	}

	return changed(c, w, w.UndoLastEdit())
}

// resizeImage trims an image to end at the given time.
func (tlCtr *timelineController) resizeImage(c *fiber.Ctx) error {
	w, err := tlCtr.workspace(c)
	if err != nil {
		return reply.Error(c, err)
	}

	p, err := c.ParamsInt("placement")
	if err != nil {
		return reply.BadRequest(c, "invalid placement")
	}

	var form struct {
		End *float64 `json:"end"`
	}
	if err := c.BodyParser(&form); err != nil || form.End == nil {
		return reply.BadRequest(c, "end required")
	}

	ok, err := w.ResizeImage(p, *form.End)
	if err != nil {
		return reply.Error(c, err)
	}

	return changed(c, w, ok)
}

func (tlCtr *timelineController) moveInfographic(c *fiber.Ctx) error {
	w, err := tlCtr.workspace(c)
	if err != nil {
		return reply.Error(c, err)
	}

	p, err := c.ParamsInt("placement")
	if err != nil {
		return reply.BadRequest(c, "invalid placement")
	}

	var form struct {
		Start *float64 `json:"start"`
	}
	if err := c.BodyParser(&form); err != nil || form.Start == nil {
		return reply.BadRequest(c, "start required")
	}

	ok, err := w.MoveInfographic(p, *form.Start)
	if err != nil {
		return reply.Error(c, err)
	}

	return changed(c, w, ok)
}

func (tlCtr *timelineController) splitVideo(c *fiber.Ctx) error {
	w, err := tlCtr.workspace(c)
	if err != nil {
		return reply.Error(c, err)
	}

	p, err := c.ParamsInt("placement")
	if err != nil {
		return reply.BadRequest(c, "invalid placement")
	}

	var form struct {
		At *float64 `json:"at"`
	}
	if err := c.BodyParser(&form); err != nil || form.At == nil {
		return reply.BadRequest(c, "split time required")
	}

	ok, err := w.SplitVideo(p, *form.At)
	if err != nil {
		return reply.Error(c, err)
	}

	return changed(c, w, ok)
}

// removeSplit joins parts at the source offset given in the query.
func (tlCtr *timelineController) removeSplit(c *fiber.Ctx) error {
	w, err := tlCtr.workspace(c)
	if err != nil {
		return reply.Error(c, err)
	}

	p, err := c.ParamsInt("placement")
	if err != nil {
		return reply.BadRequest(c, "invalid placement")
	}

	if c.Query("offset") == "" {
		return reply.BadRequest(c, "offset required")
	}

	return changed(c, w, w.RemoveSplit(p, c.QueryFloat("offset")))
}

func (tlCtr *timelineController) resetTiming(c *fiber.Ctx) error {
	w, err := tlCtr.workspace(c)
	if err != nil {
		return reply.Error(c, err)
	}

	p, err := c.ParamsInt("placement")
	if err != nil {
		return reply.BadRequest(c, "invalid placement")
	}

	return changed(c, w, w.ResetTiming(p))
}

// selectVersion pins an asset version; a null version follows the
// latest again.
func (tlCtr *timelineController) selectVersion(c *fiber.Ctx) error {
	w, err := tlCtr.workspace(c)
	if err != nil {
		return reply.Error(c, err)
	}

	p, err := c.ParamsInt("placement")
	if err != nil {
		return reply.BadRequest(c, "invalid placement")
	}

	var form struct {
		Slot    models.VersionSlot `json:"slot"`
		Version *int               `json:"version"`
	}
	if err := c.BodyParser(&form); err != nil {
		return fiber.ErrBadRequest
	}

	ok, err := w.SelectVersion(p, form.Slot, form.Version)
	if err != nil {
		return reply.Error(c, err)
	}

	return changed(c, w, ok)
}

func (tlCtr *timelineController) beginInteraction(c *fiber.Ctx) error {
	w, err := tlCtr.workspace(c)
	if err != nil {
		return reply.Error(c, err)
	}

	var form struct {
		Kind workspace.InteractionKind `json:"kind"`
		workspace.Target
	}
	if err := c.BodyParser(&form); err != nil {
		return fiber.ErrBadRequest
	}

	id, err := w.BeginInteraction(form.Kind, form.Target)
	if err != nil {
		return reply.Error(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id": id,
	})
}

func (tlCtr *timelineController) updateInteraction(c *fiber.Ctx) error {
	w, err := tlCtr.workspace(c)
	if err != nil {
		return reply.Error(c, err)
	}

	var form struct {
		Value *float64 `json:"value"`
	}
	if err := c.BodyParser(&form); err != nil || form.Value == nil {
		return reply.BadRequest(c, "value required")
	}

	ok, err := w.UpdateInteraction(c.Params("id"), *form.Value)
	if err != nil {
		return reply.Error(c, err)
	}

	return changed(c, w, ok)
}

func (tlCtr *timelineController) endInteraction(c *fiber.Ctx) error {
	w, err := tlCtr.workspace(c)
	if err != nil {
		return reply.Error(c, err)
	}

	if err := w.EndInteraction(c.Params("id")); err != nil {
		return reply.Error(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (tlCtr *timelineController) play(c *fiber.Ctx) error {
	w, err := tlCtr.workspace(c)
	if err != nil {
		return reply.Error(c, err)
	}

	w.Play()

	return playback(c, w)
}

func (tlCtr *timelineController) pause(c *fiber.Ctx) error {
	w, err := tlCtr.workspace(c)
	if err != nil {
		return reply.Error(c, err)
	}

	w.Pause()

	return playback(c, w)
}

func (tlCtr *timelineController) seek(c *fiber.Ctx) error {
	w, err := tlCtr.workspace(c)
	if err != nil {
		return reply.Error(c, err)
	}

	var form struct {
		Position *float64 `json:"position"`
	}
	if err := c.BodyParser(&form); err != nil || form.Position == nil {
		return reply.BadRequest(c, "position required")
	}

	w.Seek(*form.Position)

	return playback(c, w)
}

func playback(c *fiber.Ctx, w *workspace.Workspace) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"playhead": w.Playhead(),
		"playing":  w.Playing(),
	})
}

func (tlCtr *timelineController) zoom(c *fiber.Ctx) error {
	w, err := tlCtr.workspace(c)
	if err != nil {
		return reply.Error(c, err)
	}

	var form struct {
		Level float64 `json:"level"`
	}
	if err := c.BodyParser(&form); err != nil {
		return fiber.ErrBadRequest
	}
	if form.Level <= 0 {
		return reply.BadRequest(c, "zoom level must be positive")
	}

	return changed(c, w, w.SetZoom(form.Level))
}
