package workspace

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/GintGld/kshana-timeline/internal/models"
	"github.com/GintGld/kshana-timeline/internal/service"
	"github.com/GintGld/kshana-timeline/internal/service/markers"
	"github.com/GintGld/kshana-timeline/internal/service/override"
)

// InteractionKind is the gesture a pointer drag performs.
type InteractionKind string

const (
	InteractionResizeImage     InteractionKind = "resize_image"
	InteractionMoveInfographic InteractionKind = "move_infographic"
	InteractionMoveMarker      InteractionKind = "move_marker"
)

// Target names what an interaction drags.
type Target struct {
	PlacementNumber int    `json:"placementNumber,omitempty"`
	MarkerID        string `json:"markerId,omitempty"`
}

// interaction is one in-flight drag. The state before the drag is
// pushed to the history on the first change only, so a click without
// movement leaves no undo entry.
type interaction struct {
	kind       InteractionKind
	target     Target
	before     models.UndoSnapshot
	pushed     bool
	wasPlaying bool

	resize override.Resize
	move   override.Move
}

// BeginInteraction starts a drag. Playback pauses for its duration.
func (w *Workspace) BeginInteraction(kind InteractionKind, target Target) (string, error) {
	const op = "Workspace.BeginInteraction"

	log := w.log.With(
		slog.String("op", op),
		slog.String("kind", string(kind)),
	)

	it := &interaction{kind: kind, target: target}

	w.mu.Lock()
	var err error
	switch kind {
	case InteractionResizeImage:
		it.resize, err = w.resizeBoundsLocked(target.PlacementNumber)
	case InteractionMoveInfographic:
		it.move, err = w.moveBoundsLocked(target.PlacementNumber)
	case InteractionMoveMarker:
		if markers.Index(w.state.Markers, target.MarkerID) == -1 {
			err = service.ErrMarkerNotFound
		}
	default:
		err = service.ErrInteractionKind
	}
	if err != nil {
		w.mu.Unlock()
		log.Warn("cannot begin interaction", slog.String("error", err.Error()))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	it.before = w.state.Snapshot()
	id := uuid.NewString()
	w.interactions[id] = it
	w.mu.Unlock()

	wasPlaying := w.player.Pause()

	w.mu.Lock()
	it.wasPlaying = wasPlaying
	w.mu.Unlock()

	log.Debug("interaction started", slog.String("id", id))

	return id, nil
}

// UpdateInteraction applies the drag at value: the desired end for a
// resize, the desired start or position for a move.
func (w *Workspace) UpdateInteraction(id string, value float64) (bool, error) {
	const op = "Workspace.UpdateInteraction"

	if math.IsNaN(value) || math.IsInf(value, 0) {
		return false, fmt.Errorf("%s: %w", op, service.ErrInvalidPosition)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	it, ok := w.interactions[id]
	if !ok {
		return false, fmt.Errorf("%s: %w", op, service.ErrInteractionNotFound)
	}

	var changed bool
	switch it.kind {
	case InteractionResizeImage:
		r := it.resize
		r.DesiredEnd = value
		changed = w.applyResizeLocked(it.target.PlacementNumber, r)
	case InteractionMoveInfographic:
		m := it.move
		m.DesiredStart = value
		changed = w.applyMoveLocked(it.target.PlacementNumber, m)
	case InteractionMoveMarker:
		var err error
		changed, err = w.moveMarkerLocked(it.target.MarkerID, value)
		if err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}
	}
	if !changed {
		return false, nil
	}

	if !it.pushed {
		w.history.Push(it.before)
		it.pushed = true
	}
	w.refreshLocked()

	return true, nil
}

// EndInteraction finishes a drag and resumes playback if the drag
// paused it.
func (w *Workspace) EndInteraction(id string) error {
	const op = "Workspace.EndInteraction"

	w.mu.Lock()
	it, ok := w.interactions[id]
	delete(w.interactions, id)
	w.mu.Unlock()

	if !ok {
		return fmt.Errorf("%s: %w", op, service.ErrInteractionNotFound)
	}

	if it.wasPlaying {
		w.player.Play()
	}

	w.log.Debug("interaction finished", slog.String("op", op), slog.String("id", id), slog.Bool("changed", it.pushed))

	return nil
}
