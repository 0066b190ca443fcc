// Package markers owns the marker lifecycle. Transport of marker
// requests belongs to a Messenger.
package markers

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GintGld/kshana-timeline/internal/models"
	"github.com/GintGld/kshana-timeline/internal/service"
)

// Request is what a Messenger delivers to the generator.
type Request struct {
	MarkerID string  `json:"markerId"`
	Position float64 `json:"position"`
	Prompt   string  `json:"prompt"`
	Context  Context `json:"context"`
}

// Context describes the timeline around the marker.
type Context struct {
	ProjectDuration float64              `json:"projectDuration"`
	Item            *models.TimelineItem `json:"item,omitempty"`
	Previous        *models.TimelineItem `json:"previous,omitempty"`
	Next            *models.TimelineItem `json:"next,omitempty"`
}

type Messenger interface {
	SendMarker(ctx context.Context, req Request) error
}

// New creates a pending marker.
func New(position float64, prompt string, now time.Time) (models.Marker, error) {
	const op = "markers.New"

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return models.Marker{}, fmt.Errorf("%s: %w", op, service.ErrEmptyPrompt)
	}
	if position < 0 || math.IsNaN(position) || math.IsInf(position, 0) {
		return models.Marker{}, fmt.Errorf("%s: %w", op, service.ErrInvalidPosition)
	}

	return models.Marker{
		ID:        uuid.NewString(),
		Position:  position,
		Prompt:    prompt,
		Status:    models.MarkerPending,
		CreatedAt: models.Millis(now),
	}, nil
}

// Transition moves m to status. Terminal markers never change and
// processing never returns to pending. Re-applying the current status
// reports no change.
func Transition(m models.Marker, status models.MarkerStatus, artifactID string) (models.Marker, bool, error) {
	const op = "markers.Transition"

	if !status.Valid() {
		return m, false, fmt.Errorf("%s: %w", op, service.ErrInvalidStatus)
	}
	if m.Status.Terminal() {
		if m.Status == status && (artifactID == "" || artifactID == m.GeneratedArtifactID) {
			return m, false, nil
		}
		return m, false, fmt.Errorf("%s: %w", op, service.ErrMarkerTerminal)
	}
	if m.Status == models.MarkerProcessing && status == models.MarkerPending {
		return m, false, fmt.Errorf("%s: %w", op, service.ErrInvalidTransition)
	}
	if m.Status == status {
		return m, false, nil
	}

	m.Status = status
	if status == models.MarkerComplete && artifactID != "" {
		m.GeneratedArtifactID = artifactID
	}

	return m, true, nil
}

// Index returns the position of the marker with id, or -1.
func Index(markers []models.Marker, id string) int {
	return slices.IndexFunc(markers, func(m models.Marker) bool {
		return m.ID == id
	})
}

// Update applies Transition to the marker with id. The input slice is
// never modified; when nothing changes it is returned as is.
func Update(markers []models.Marker, id string, status models.MarkerStatus, artifactID string) ([]models.Marker, bool, error) {
	const op = "markers.Update"

	i := Index(markers, id)
	if i < 0 {
		return markers, false, fmt.Errorf("%s: %w", op, service.ErrMarkerNotFound)
	}

	m, changed, err := Transition(markers[i], status, artifactID)
	if err != nil {
		return markers, false, fmt.Errorf("%s: %w", op, err)
	}
	if !changed {
		return markers, false, nil
	}

	out := slices.Clone(markers)
	out[i] = m

	return out, true, nil
}

// Remove deletes the marker with id.
func Remove(markers []models.Marker, id string) ([]models.Marker, error) {
	const op = "markers.Remove"

	i := Index(markers, id)
	if i < 0 {
		return markers, fmt.Errorf("%s: %w", op, service.ErrMarkerNotFound)
	}

	return slices.Delete(slices.Clone(markers), i, i+1), nil
}

// ContextAt builds the request context of a marker at position from a
// resolved timeline.
func ContextAt(items []models.TimelineItem, position, duration float64) Context {
	c := Context{ProjectDuration: duration}

	for i := range items {
		it := items[i]
		if !it.Type.IsMainTrack() {
			continue
		}
		switch {
		case it.EndTime <= position:
			c.Previous = &it
		case it.StartTime <= position:
			c.Item = &it
		case c.Next == nil:
			c.Next = &it
		}
	}

	return c
}
