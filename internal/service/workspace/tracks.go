package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/GintGld/kshana-timeline/internal/models"
	"github.com/GintGld/kshana-timeline/internal/service"
	"github.com/GintGld/kshana-timeline/internal/service/schema"
)

// ElementSpec describes an overlay element to add.
type ElementSpec struct {
	Type      models.ElementType
	StartTime float64
	Preset    models.TextPreset
	Text      string
	StickerID string
	Shape     models.ShapeType
	SVG       string
}

// AddElement places a text, sticker, shape or svg element on its track.
func (w *Workspace) AddElement(spec ElementSpec) (models.TrackElement, error) {
	const op = "Workspace.AddElement"

	var (
		e   models.TrackElement
		err error
	)
	switch spec.Type {
	case models.ElementText:
		e, err = schema.TextElement(spec.Preset, spec.StartTime, spec.Text)
	case models.ElementSticker:
		e, err = schema.StickerElement(spec.StartTime, spec.StickerID)
	case models.ElementShape:
		e, err = schema.ShapeElement(spec.StartTime, spec.Shape)
	case models.ElementSVG:
		e, err = schema.SVGElement(spec.StartTime, spec.SVG)
	default:
		err = fmt.Errorf("%w: %q", service.ErrUnknownElement, spec.Type)
	}
	if err != nil {
		return models.TrackElement{}, fmt.Errorf("%s: %w", op, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.state.Tracks = schema.AppendElement(w.state.Tracks, e)
	w.refreshLocked()

	w.log.Debug("element added", slog.String("op", op), slog.String("id", e.ID), slog.String("type", string(spec.Type)))

	return e, nil
}

// RemoveElement deletes an element from its track. Removing a clip
// element also forgets the imported clip it came from.
func (w *Workspace) RemoveElement(id string) error {
	const op = "Workspace.RemoveElement"

	w.mu.Lock()
	defer w.mu.Unlock()

	tracks, err := schema.RemoveElement(w.state.Tracks, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	w.state.Tracks = tracks

	clips := make([]models.ImportedClip, 0, len(w.state.ImportedClips))
	for _, c := range w.state.ImportedClips {
		if c.ID != id {
			clips = append(clips, c)
		}
	}
	w.state.ImportedClips = clips

	w.refreshLocked()

	return nil
}

// ImportClip copies a media file into the project and appends it after
// all existing content.
func (w *Workspace) ImportClip(ctx context.Context, path string) (models.ImportedClip, error) {
	const op = "Workspace.ImportClip"

	imported, err := w.src.ImportFile(ctx, path)
	if err != nil {
		return models.ImportedClip{}, fmt.Errorf("%s: %w", op, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	clip := models.ImportedClip{
		ID:               uuid.NewString(),
		Path:             imported.Path,
		DurationSeconds:  imported.DurationSeconds,
		StartTimeSeconds: max(w.contentEnd(), w.clipsEnd()),
	}

	w.state.ImportedClips = append(append([]models.ImportedClip{}, w.state.ImportedClips...), clip)
	w.state.Tracks = schema.AppendElement(w.state.Tracks, schema.ClipElement(clip))
	w.refreshLocked()

	w.log.Info(
		"clip imported",
		slog.String("op", op),
		slog.String("path", clip.Path),
		slog.Float64("start", clip.StartTimeSeconds),
	)

	return clip, nil
}

func (w *Workspace) Play() {
	w.player.Play()

	w.mu.Lock()
	w.version++
	w.mu.Unlock()
}

// Pause stops playback and keeps the playhead where it stopped.
func (w *Workspace) Pause() {
	w.player.Pause()

	w.mu.Lock()
	defer w.mu.Unlock()

	w.version++
	w.saver.Schedule(w.persistedLocked())
}

// Seek moves the playhead, clamped to the timeline.
func (w *Workspace) Seek(position float64) {
	if math.IsNaN(position) {
		return
	}

	w.player.Seek(position)

	w.mu.Lock()
	defer w.mu.Unlock()

	w.version++
	w.saver.Schedule(w.persistedLocked())
}

func (w *Workspace) Playhead() float64 {
	return w.player.Position()
}

func (w *Workspace) Playing() bool {
	return w.player.Playing()
}

// SetZoom stores the zoom level. Non-positive levels are ignored.
func (w *Workspace) SetZoom(level float64) bool {
	if !(level > 0) || math.IsInf(level, 0) {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state.ZoomLevel == level {
		return false
	}
	w.state.ZoomLevel = level
	w.version++
	w.saver.Schedule(w.persistedLocked())

	return true
}
