package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/GintGld/kshana-timeline/internal/lib/logger/sl"
	"github.com/GintGld/kshana-timeline/internal/models"
	"github.com/GintGld/kshana-timeline/internal/service"
	"github.com/GintGld/kshana-timeline/internal/service/markers"
)

// CreateMarker adds a pending marker and hands it to the generator.
// The marker moves to processing once delivered, or to error when
// delivery fails. Creation is undoable; the status changes are not.
func (w *Workspace) CreateMarker(ctx context.Context, position float64, prompt string) (models.Marker, error) {
	const op = "Workspace.CreateMarker"

	log := w.log.With(slog.String("op", op))

	m, err := markers.New(position, prompt, time.Now())
	if err != nil {
		return models.Marker{}, fmt.Errorf("%s: %w", op, err)
	}

	w.mu.Lock()
	if m.Position > w.durationLocked() {
		w.mu.Unlock()
		return models.Marker{}, fmt.Errorf("%s: %w", op, service.ErrInvalidPosition)
	}
	w.editLocked(func() bool {
		w.state.Markers = append(append([]models.Marker{}, w.state.Markers...), m)
		return true
	})
	req := markers.Request{
		MarkerID: m.ID,
		Position: m.Position,
		Prompt:   m.Prompt,
		Context:  w.markerContextLocked(m.Position),
	}
	w.mu.Unlock()

	log = log.With(slog.String("marker", m.ID))

	status := models.MarkerProcessing
	sendErr := w.messenger.SendMarker(ctx, req)
	if sendErr != nil {
		log.Error("failed to deliver marker", sl.Err(sendErr))
		status = models.MarkerError
	}

	if updated, err := w.OnMarkerUpdate(m.ID, status, ""); err == nil {
		m = updated
	} else {
		// undone or deleted while the request was in flight
		log.Warn("marker gone before delivery finished", sl.Err(err))
	}

	if sendErr != nil {
		return m, fmt.Errorf("%s: %w: %w", op, service.ErrMessengerFailed, sendErr)
	}

	log.Info("marker created", slog.Float64("position", m.Position))

	return m, nil
}

// OnMarkerUpdate applies a status reported by the generator.
func (w *Workspace) OnMarkerUpdate(id string, status models.MarkerStatus, artifactID string) (models.Marker, error) {
	const op = "Workspace.OnMarkerUpdate"

	w.mu.Lock()
	defer w.mu.Unlock()

	next, changed, err := markers.Update(w.state.Markers, id, status, artifactID)
	if err != nil {
		return models.Marker{}, fmt.Errorf("%s: %w", op, err)
	}
	if changed {
		w.state.Markers = next
		w.refreshLocked()
	}

	return next[markers.Index(next, id)], nil
}

// MoveMarker repositions a marker.
func (w *Workspace) MoveMarker(id string, position float64) (bool, error) {
	const op = "Workspace.MoveMarker"

	w.mu.Lock()
	defer w.mu.Unlock()

	var err error
	changed := w.editLocked(func() bool {
		var ok bool
		ok, err = w.moveMarkerLocked(id, position)
		return ok
	})
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return changed, nil
}

// moveMarkerLocked clamps position to the timeline.
func (w *Workspace) moveMarkerLocked(id string, position float64) (bool, error) {
	if math.IsNaN(position) || math.IsInf(position, 0) {
		return false, service.ErrInvalidPosition
	}

	i := markers.Index(w.state.Markers, id)
	if i == -1 {
		return false, service.ErrMarkerNotFound
	}

	position = min(max(position, 0), w.durationLocked())
	if w.state.Markers[i].Position == position {
		return false, nil
	}

	next := append([]models.Marker{}, w.state.Markers...)
	next[i].Position = position
	w.state.Markers = next

	return true, nil
}

func (w *Workspace) DeleteMarker(id string) error {
	const op = "Workspace.DeleteMarker"

	w.mu.Lock()
	defer w.mu.Unlock()

	var err error
	w.editLocked(func() bool {
		var next []models.Marker
		if next, err = markers.Remove(w.state.Markers, id); err != nil {
			return false
		}
		w.state.Markers = next
		return true
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (w *Workspace) Markers() []models.Marker {
	w.mu.Lock()
	defer w.mu.Unlock()

	return append([]models.Marker{}, w.state.Markers...)
}
