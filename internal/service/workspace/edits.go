package workspace

import (
	"fmt"
	"log/slog"

	"github.com/GintGld/kshana-timeline/internal/models"
	"github.com/GintGld/kshana-timeline/internal/service"
	"github.com/GintGld/kshana-timeline/internal/service/markers"
	"github.com/GintGld/kshana-timeline/internal/service/override"
)

const boundEpsilon = 1e-6

// CaptureSnapshot copies the undoable part of the state.
func (w *Workspace) CaptureSnapshot() models.UndoSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.state.Snapshot()
}

// PushUndoSnapshot records snap as the state to return to on the next
// undo. A nil snapshot records the current state.
func (w *Workspace) PushUndoSnapshot(snap *models.UndoSnapshot) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if snap == nil {
		return w.history.Push(w.state.Snapshot())
	}
	return w.history.Push(*snap)
}

// UndoLastEdit restores the most recent snapshot. Marker status and
// artifact are owned by the generator, so markers that still exist
// keep their current values.
func (w *Workspace) UndoLastEdit() bool {
	const op = "Workspace.UndoLastEdit"

	log := w.log.With(slog.String("op", op))

	w.mu.Lock()
	defer w.mu.Unlock()

	snap, ok := w.history.Pop()
	if !ok {
		return false
	}

	current := make(map[string]models.Marker, len(w.state.Markers))
	for _, m := range w.state.Markers {
		current[m.ID] = m
	}

	w.state.Restore(snap)
	for i, m := range w.state.Markers {
		if c, ok := current[m.ID]; ok {
			w.state.Markers[i].Status = c.Status
			w.state.Markers[i].GeneratedArtifactID = c.GeneratedArtifactID
		}
	}

	w.refreshLocked()

	log.Debug("edit undone", slog.Int("depth", w.history.Len()))

	return true
}

// editLocked runs fn and records the prior state when fn reports a
// change.
func (w *Workspace) editLocked(fn func() bool) bool {
	before := w.state.Snapshot()
	if !fn() {
		return false
	}

	w.history.Push(before)
	w.refreshLocked()

	return true
}

// itemFor finds the first view item of placement p with type t.
func itemFor(items []models.TimelineItem, t models.ItemType, p int) (models.TimelineItem, bool) {
	for _, it := range items {
		if it.Type == t && it.PlacementNumber != nil && *it.PlacementNumber == p {
			return it, true
		}
	}
	return models.TimelineItem{}, false
}

// neighbours returns the end of the closest main-track content before
// item and the start of the closest after it, bounded by [0, duration].
// Placeholders are free space.
func neighbours(items []models.TimelineItem, item models.TimelineItem, duration float64) (prevEnd, nextStart float64) {
	nextStart = duration
	for _, it := range items {
		if it.ID == item.ID || it.Type == models.ItemPlaceholder || !it.Type.IsMainTrack() {
			continue
		}
		if it.PlacementNumber != nil && item.PlacementNumber != nil &&
			it.Type == item.Type && *it.PlacementNumber == *item.PlacementNumber {
			continue
		}
		if it.EndTime <= item.StartTime+boundEpsilon {
			prevEnd = max(prevEnd, it.EndTime)
		}
		if it.StartTime >= item.StartTime+boundEpsilon {
			nextStart = min(nextStart, it.StartTime)
		}
	}
	return prevEnd, nextStart
}

func (w *Workspace) resizeBoundsLocked(p int) (override.Resize, error) {
	items := w.itemsLocked()
	item, ok := itemFor(items, models.ItemImage, p)
	if !ok {
		return override.Resize{}, service.ErrItemNotFound
	}

	_, next := neighbours(items, item, w.durationLocked())

	return override.Resize{
		StartTime:   item.StartTime,
		DesiredEnd:  item.EndTime,
		MaxEnd:      next,
		MinDuration: w.cfg.MinImageDuration,
	}, nil
}

func (w *Workspace) moveBoundsLocked(p int) (override.Move, error) {
	items := w.itemsLocked()
	item, ok := itemFor(items, models.ItemInfographic, p)
	if !ok {
		return override.Move{}, service.ErrItemNotFound
	}

	prev, _ := neighbours(items, item, w.durationLocked())

	// the next neighbour is looked up from the item's end so a move
	// cannot jump over other content
	maxEnd := w.durationLocked()
	for _, it := range items {
		if it.ID == item.ID || it.Type == models.ItemPlaceholder || !it.Type.IsMainTrack() {
			continue
		}
		if it.StartTime >= item.EndTime-boundEpsilon {
			maxEnd = min(maxEnd, it.StartTime)
		}
	}

	return override.Move{
		DesiredStart: item.StartTime,
		Duration:     item.Duration,
		MinStart:     prev,
		MaxEnd:       maxEnd,
	}, nil
}

// ResizeImage trims the image of placement p to end at desiredEnd.
func (w *Workspace) ResizeImage(p int, desiredEnd float64) (bool, error) {
	const op = "Workspace.ResizeImage"

	w.mu.Lock()
	defer w.mu.Unlock()

	r, err := w.resizeBoundsLocked(p)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	r.DesiredEnd = desiredEnd

	return w.editLocked(func() bool {
		return w.applyResizeLocked(p, r)
	}), nil
}

// MoveInfographic drags the infographic of placement p to start at
// desiredStart.
func (w *Workspace) MoveInfographic(p int, desiredStart float64) (bool, error) {
	const op = "Workspace.MoveInfographic"

	w.mu.Lock()
	defer w.mu.Unlock()

	m, err := w.moveBoundsLocked(p)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	m.DesiredStart = desiredStart

	return w.editLocked(func() bool {
		return w.applyMoveLocked(p, m)
	}), nil
}

func (w *Workspace) applyResizeLocked(p int, r override.Resize) bool {
	next, changed := override.ResizeImage(w.state.ImageOverrides, p, r)
	w.state.ImageOverrides = next
	return changed
}

func (w *Workspace) applyMoveLocked(p int, m override.Move) bool {
	next, changed := override.MoveInfographic(w.state.InfographicOverrides, p, m)
	w.state.InfographicOverrides = next
	return changed
}

// SplitVideo cuts the video part of placement p under the timeline
// position at.
func (w *Workspace) SplitVideo(p int, at float64) (bool, error) {
	const op = "Workspace.SplitVideo"

	w.mu.Lock()
	defer w.mu.Unlock()

	var part *models.TimelineItem
	for _, it := range w.itemsLocked() {
		if it.Type != models.ItemVideo || it.PlacementNumber == nil || *it.PlacementNumber != p {
			continue
		}
		if it.StartTime <= at && at < it.EndTime {
			part = &it
			break
		}
	}
	if part == nil {
		return false, fmt.Errorf("%s: %w", op, service.ErrItemNotFound)
	}

	s := override.Split{
		SplitTimelineSeconds:  at,
		ItemStartTime:         part.StartTime,
		SourceOffsetSeconds:   part.SourceOffsetSeconds,
		SourceDurationSeconds: part.SourceDurationSeconds,
	}

	return w.editLocked(func() bool {
		next, changed := override.SplitVideo(w.state.VideoSplitOverrides, p, s)
		w.state.VideoSplitOverrides = next
		return changed
	}), nil
}

// RemoveSplit joins the video parts of placement p at the source
// offset.
func (w *Workspace) RemoveSplit(p int, offset float64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.editLocked(func() bool {
		next, changed := override.RemoveSplit(w.state.VideoSplitOverrides, p, offset)
		w.state.VideoSplitOverrides = next
		return changed
	})
}

// ResetTiming drops every timing edit of placement p.
func (w *Workspace) ResetTiming(p int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.editLocked(func() bool {
		var a, b, c bool
		w.state.ImageOverrides, a = override.Reset(w.state.ImageOverrides, p)
		w.state.InfographicOverrides, b = override.Reset(w.state.InfographicOverrides, p)
		if _, ok := w.state.VideoSplitOverrides[p]; ok {
			next := w.state.VideoSplitOverrides.Clone()
			delete(next, p)
			w.state.VideoSplitOverrides = next
			c = true
		}
		return a || b || c
	})
}

// SelectVersion pins the asset version shown for placement p. A nil
// version follows the latest.
func (w *Workspace) SelectVersion(p int, slot models.VersionSlot, version *int) (bool, error) {
	const op = "Workspace.SelectVersion"

	if slot != models.SlotImage && slot != models.SlotVideo {
		return false, fmt.Errorf("%s: %w: %q", op, service.ErrUnknownSlot, slot)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	current, pinned := w.state.ActiveVersions.Pinned(p, slot)
	if (version == nil && !pinned) || (version != nil && pinned && *version == current) {
		return false, nil
	}

	w.state.ActiveVersions = w.state.ActiveVersions.With(p, slot, version)
	w.refreshLocked()

	return true, nil
}

// markerContextLocked describes the timeline around position.
func (w *Workspace) markerContextLocked(position float64) markers.Context {
	return markers.ContextAt(w.itemsLocked(), position, w.durationLocked())
}
