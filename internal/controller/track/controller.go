package track

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	jwtController "github.com/GintGld/kshana-timeline/internal/controller/jwt"
	"github.com/GintGld/kshana-timeline/internal/controller/reply"
	"github.com/GintGld/kshana-timeline/internal/models"
	"github.com/GintGld/kshana-timeline/internal/service/schema"
	"github.com/GintGld/kshana-timeline/internal/service/workspace"
)

// New returns fiber app that edits overlay tracks and imports clips.
// Uploaded files are staged in tmpDir.
func New(ws Workspaces, jwtC *jwtController.JWT, timeout time.Duration, tmpDir string) *fiber.App {
	trCtr := trackController{
		ws:      ws,
		timeout: timeout,
		tmpDir:  tmpDir,
	}

	app := fiber.New(fiber.Config{
		JSONEncoder: sonic.Marshal,
		JSONDecoder: sonic.Unmarshal,
	})

	app.Use(jwtC.AuthRequired())

	app.Get("/:project", trCtr.tracks)
	app.Post("/:project/elements", trCtr.addElement)
	app.Delete("/:project/elements/:id", trCtr.removeElement)
	app.Post("/:project/clips", trCtr.importClip)

	return app
}

type trackController struct {
	ws      Workspaces
	timeout time.Duration
	tmpDir  string
}

type Workspaces interface {
	Get(project string) (*workspace.Workspace, error)
}

func (trCtr *trackController) tracks(c *fiber.Ctx) error {
	w, err := trCtr.ws.Get(c.Params("project"))
	if err != nil {
		return reply.Error(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"tracks": w.View().Tracks,
	})
}

func (trCtr *trackController) addElement(c *fiber.Ctx) error {
	w, err := trCtr.ws.Get(c.Params("project"))
	if err != nil {
		return reply.Error(c, err)
	}

	var form struct {
		Type      models.ElementType `json:"type"`
		StartTime float64            `json:"start_time_seconds"`
		Preset    models.TextPreset  `json:"preset"`
		Text      string             `json:"text"`
		StickerID string             `json:"sticker_id"`
		Shape     models.ShapeType   `json:"shape_type"`
		SVG       string             `json:"svg_content"`
	}
	if err := c.BodyParser(&form); err != nil {
		return fiber.ErrBadRequest
	}

	e, err := w.AddElement(workspace.ElementSpec{
		Type:      form.Type,
		StartTime: form.StartTime,
		Preset:    form.Preset,
		Text:      form.Text,
		StickerID: form.StickerID,
		Shape:     form.Shape,
		SVG:       form.SVG,
	})
	if err != nil {
		return reply.Error(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(schema.LegacyElementOf(e))
}

func (trCtr *trackController) removeElement(c *fiber.Ctx) error {
	w, err := trCtr.ws.Get(c.Params("project"))
	if err != nil {
		return reply.Error(c, err)
	}

	if err := w.RemoveElement(c.Params("id")); err != nil {
		return reply.Error(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

// importClip takes either an uploaded "source" file or a JSON body
// with a local path.
func (trCtr *trackController) importClip(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), trCtr.timeout)
	defer cancel()

	w, err := trCtr.ws.Get(c.Params("project"))
	if err != nil {
		return reply.Error(c, err)
	}

	var path string
	if file, err := c.FormFile("source"); err == nil {
		// keep the extension, the importer names the copy after it
		path = filepath.Join(trCtr.tmpDir, uuid.NewString()+filepath.Ext(file.Filename))
		if err := c.SaveFile(file, path); err != nil {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		defer os.Remove(path)
	} else {
		var form struct {
			Path string `json:"path"`
		}
		if err := c.BodyParser(&form); err != nil || form.Path == "" {
			return reply.BadRequest(c, "source file or path required")
		}
		if _, err := os.Stat(form.Path); err != nil {
			return reply.BadRequest(c, "file not found")
		}
		path = form.Path
	}

	clip, err := w.ImportClip(ctx, path)
	if err != nil {
		return reply.Error(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(clip)
}
