package models

import "time"

type MarkerStatus string

const (
	MarkerPending    MarkerStatus = "pending"
	MarkerProcessing MarkerStatus = "processing"
	MarkerComplete   MarkerStatus = "complete"
	MarkerError      MarkerStatus = "error"
)

func (s MarkerStatus) Valid() bool {
	switch s {
	case MarkerPending, MarkerProcessing, MarkerComplete, MarkerError:
		return true
	}
	return false
}

func (s MarkerStatus) Terminal() bool {
	return s == MarkerComplete || s == MarkerError
}

// Marker is a user request to generate content at a timeline position.
type Marker struct {
	ID                  string       `json:"id"`
	Position            float64      `json:"position"`
	Prompt              string       `json:"prompt"`
	Status              MarkerStatus `json:"status"`
	GeneratedArtifactID string       `json:"generatedArtifactId,omitempty"`
	CreatedAt           time.Time    `json:"createdAt"`
}

// ImportedClip is local media the user placed after generated content.
type ImportedClip struct {
	ID               string  `json:"id"`
	Path             string  `json:"path"`
	DurationSeconds  float64 `json:"durationSeconds"`
	StartTimeSeconds float64 `json:"startTimeSeconds"`
	Track            *int    `json:"track,omitempty"`
}

func (c ImportedClip) EndTimeSeconds() float64 {
	return c.StartTimeSeconds + c.DurationSeconds
}

// Millis truncates t to the millisecond precision markers are stored
// with, in UTC.
func Millis(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return time.UnixMilli(t.UnixMilli()).UTC()
}
