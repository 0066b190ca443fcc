// Package reply maps service errors to HTTP responses.
package reply

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/GintGld/kshana-timeline/internal/service"
	"github.com/GintGld/kshana-timeline/internal/service/schema"
)

var statuses = []struct {
	err    error
	status int
	msg    string
}{
	{service.ErrInvalidCredentials, fiber.StatusBadRequest, "invalid credentials"},
	{service.ErrInvalidProjectName, fiber.StatusBadRequest, "invalid project name"},
	{service.ErrProjectNotFound, fiber.StatusNotFound, "project not found"},
	{service.ErrProjectClosed, fiber.StatusConflict, "project is not open"},
	{service.ErrProjectLocked, fiber.StatusConflict, "project is opened by another process"},

	{service.ErrItemNotFound, fiber.StatusNotFound, "item not found"},
	{service.ErrMarkerNotFound, fiber.StatusNotFound, "marker not found"},
	{service.ErrInteractionNotFound, fiber.StatusNotFound, "interaction not found"},
	{schema.ErrElementMissing, fiber.StatusNotFound, "element not found"},

	{service.ErrMarkerTerminal, fiber.StatusConflict, "marker already finished"},
	{service.ErrInvalidTransition, fiber.StatusConflict, "invalid marker transition"},

	{service.ErrInvalidStatus, fiber.StatusBadRequest, "invalid marker status"},
	{service.ErrEmptyPrompt, fiber.StatusBadRequest, "prompt required"},
	{service.ErrInvalidPosition, fiber.StatusBadRequest, "invalid position"},
	{service.ErrInteractionKind, fiber.StatusBadRequest, "unknown interaction kind"},
	{service.ErrUnknownSlot, fiber.StatusBadRequest, "unknown version slot"},
	{service.ErrUnknownElement, fiber.StatusBadRequest, "unsupported element type"},
	{service.ErrUnsupportedMedia, fiber.StatusBadRequest, "unsupported media"},
	{schema.ErrUnknownPreset, fiber.StatusBadRequest, "unknown text preset"},
	{schema.ErrUnknownShape, fiber.StatusBadRequest, "unknown shape type"},
	{schema.ErrEmptyContent, fiber.StatusBadRequest, "content required"},
	{schema.ErrNegativeStart, fiber.StatusBadRequest, "negative start time"},

	{service.ErrMessengerFailed, fiber.StatusBadGateway, "failed to send marker"},
}

// Error writes the response for err. Unknown errors are internal.
func Error(c *fiber.Ctx, err error) error {
	for _, s := range statuses {
		if errors.Is(err, s.err) {
			return c.Status(s.status).JSON(fiber.Map{
				"error": s.msg,
			})
		}
	}
	return c.SendStatus(fiber.StatusInternalServerError)
}

// BadRequest writes a 400 with msg.
func BadRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
	})
}
