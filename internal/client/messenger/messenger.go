// Package messenger delivers generation markers to the content
// generator.
package messenger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"

	"github.com/GintGld/kshana-timeline/internal/lib/logger/sl"
	"github.com/GintGld/kshana-timeline/internal/service/markers"
)

var ErrRejected = errors.New("generator rejected marker")

// Client posts markers as JSON to the generator endpoint.
type Client struct {
	log     *slog.Logger
	url     string
	timeout time.Duration
}

func New(
	log *slog.Logger,
	url string,
	timeout time.Duration,
) *Client {
	return &Client{
		log:     log,
		url:     url,
		timeout: timeout,
	}
}

func (c *Client) SendMarker(ctx context.Context, req markers.Request) error {
	const op = "Client.SendMarker"

	log := c.log.With(
		slog.String("op", op),
		slog.String("marker", req.MarkerID),
	)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}

	agent := fiber.Post(c.url)
	agent.JSONEncoder(sonic.Marshal)
	agent.JSON(req)
	agent.Timeout(timeout)

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		err := errors.Join(errs...)
		log.Error("failed to send marker", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		log.Error("generator rejected marker", slog.Int("status", code), slog.String("body", string(body)))
		return fmt.Errorf("%s: %w: status %d", op, ErrRejected, code)
	}

	log.Debug("marker sent")

	return nil
}

// Log only records markers. It is used when no generator is
// configured.
type Log struct {
	log *slog.Logger
}

func NewLog(log *slog.Logger) *Log {
	return &Log{log: log}
}

func (l *Log) SendMarker(_ context.Context, req markers.Request) error {
	l.log.Info(
		"marker requested",
		slog.String("marker", req.MarkerID),
		slog.Float64("position", req.Position),
		slog.String("prompt", req.Prompt),
	)
	return nil
}
