package project

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
	"github.com/GintGld/kshana-timeline/internal/storage"
)

// New returns fiber app that opens and closes projects
// and controls their persistence.
func New(ws Workspaces, states States, jwtC *jwtController.JWT, timeout time.Duration) *fiber.App {
	prCtr := projectController{
		ws:      ws,
		states:  states,
		timeout: timeout,
	}

	app := fiber.New(fiber.Config{
		JSONEncoder: sonic.Marshal,
		JSONDecoder: sonic.Unmarshal,
	})

	app.Use(jwtC.AuthRequired())

	app.Get("/", prCtr.projects)
	app.Post("/:project/open", prCtr.open)
	app.Post("/:project/close", prCtr.close)
	app.Get("/:project/save", prCtr.saveStatus)
	app.Post("/:project/save", prCtr.save)
	app.Delete("/:project/save/error", prCtr.dismissSaveError)
	app.Delete("/:project/state", prCtr.deleteState)

	return app
}

type projectController struct {
	ws      Workspaces
	states  States
	timeout time.Duration
}

type Workspaces interface {
	Projects() ([]workspace.ProjectInfo, error)
	Open(ctx context.Context, project string) (*workspace.Workspace, error)
	Get(project string) (*workspace.Workspace, error)
	Close(ctx context.Context, project string) error
}

type States interface {
	States(ctx context.Context) ([]models.StateInfo, error)
	DeleteState(ctx context.Context, project string) error
}

type projectOut struct {
	Name    string     `json:"name"`
	Open    bool       `json:"open"`
	SavedAt *time.Time `json:"savedAt,omitempty"`
	Size    int64      `json:"size,omitempty"`
}

// projects lists project directories with
// the time their timeline was last saved.
func (prCtr *projectController) projects(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), prCtr.timeout)
	defer cancel()

	list, err := prCtr.ws.Projects()
	if err != nil {
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	states, err := prCtr.states.States(ctx)
	if err != nil {
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	saved := make(map[string]models.StateInfo, len(states))
	for _, s := range states {
		saved[s.Project] = s
	}

	res := make([]projectOut, 0, len(list))
	for _, p := range list {
		out := projectOut{Name: p.Name, Open: p.Open}
		if s, ok := saved[p.Name]; ok {
			out.SavedAt = &s.UpdatedAt
			out.Size = s.Size
		}
		res = append(res, out)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"projects": res,
	})
}

func (prCtr *projectController) open(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), prCtr.timeout)
	defer cancel()

	w, err := prCtr.ws.Open(ctx, c.Params("project"))
	if err != nil {
		return reply.Error(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(w.View())
}

func (prCtr *projectController) close(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), prCtr.timeout)
	defer cancel()

	if err := prCtr.ws.Close(ctx, c.Params("project")); err != nil {
		return reply.Error(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (prCtr *projectController) saveStatus(c *fiber.Ctx) error {
	w, err := prCtr.ws.Get(c.Params("project"))
	if err != nil {
		return reply.Error(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(w.SaveStatus())
}

// save writes the timeline now instead of waiting for the debounce.
func (prCtr *projectController) save(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), prCtr.timeout)
	defer cancel()

	w, err := prCtr.ws.Get(c.Params("project"))
	if err != nil {
		return reply.Error(c, err)
	}

	if err := w.Flush(ctx); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(w.SaveStatus())
	}

	return c.Status(fiber.StatusOK).JSON(w.SaveStatus())
}

func (prCtr *projectController) dismissSaveError(c *fiber.Ctx) error {
	w, err := prCtr.ws.Get(c.Params("project"))
	if err != nil {
		return reply.Error(c, err)
	}

	w.DismissSaveError()

	return c.SendStatus(fiber.StatusOK)
}

// deleteState forgets the stored timeline of a closed project.
func (prCtr *projectController) deleteState(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), prCtr.timeout)
	defer cancel()

	project := c.Params("project")

	if _, err := prCtr.ws.Get(project); err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "project is open",
		})
	} else if !errors.Is(err, service.ErrProjectClosed) {
		return reply.Error(c, err)
	}

	if err := prCtr.states.DeleteState(ctx, project); err != nil {
		if errors.Is(err, storage.ErrStateNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "no stored timeline",
			})
		}
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.SendStatus(fiber.StatusOK)
}
