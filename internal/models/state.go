package models

import (
	"reflect"
	"slices"
	"time"
)

const (
	SchemaV1 = "1"
	SchemaV2 = "2"
)

// TimelineState is the persisted aggregate of a project's timeline.
type TimelineState struct {
	SchemaVersion        string
	PlayheadSeconds      float64
	ZoomLevel            float64
	ActiveVersions       ActiveVersions
	Markers              []Marker
	ImportedClips        []ImportedClip
	ImageOverrides       TimingOverrides
	InfographicOverrides TimingOverrides
	VideoSplitOverrides  VideoSplitOverrides
	Tracks               []Track
}

// EmptyState returns a v2 state with all collections allocated.
func EmptyState() TimelineState {
	return TimelineState{
		SchemaVersion:        SchemaV2,
		ZoomLevel:            1,
		ActiveVersions:       ActiveVersions{},
		Markers:              []Marker{},
		ImportedClips:        []ImportedClip{},
		ImageOverrides:       TimingOverrides{},
		InfographicOverrides: TimingOverrides{},
		VideoSplitOverrides:  VideoSplitOverrides{},
		Tracks:               []Track{},
	}
}

func (s TimelineState) Clone() TimelineState {
	out := s
	out.ActiveVersions = s.ActiveVersions.Clone()
	out.Markers = cloneMarkers(s.Markers)
	out.ImportedClips = cloneClips(s.ImportedClips)
	out.ImageOverrides = s.ImageOverrides.Clone()
	out.InfographicOverrides = s.InfographicOverrides.Clone()
	out.VideoSplitOverrides = s.VideoSplitOverrides.Clone()
	out.Tracks = CloneTracks(s.Tracks)
	if out.Tracks == nil {
		out.Tracks = []Track{}
	}
	return out
}

// Snapshot deep-copies the user-editable part of the state.
func (s TimelineState) Snapshot() UndoSnapshot {
	return UndoSnapshot{
		Markers:              s.Markers,
		ImageOverrides:       s.ImageOverrides,
		InfographicOverrides: s.InfographicOverrides,
		VideoSplitOverrides:  s.VideoSplitOverrides,
	}.Clone()
}

// Restore replaces the user-editable part of the state with snap.
func (s *TimelineState) Restore(snap UndoSnapshot) {
	c := snap.Clone()
	s.Markers = c.Markers
	s.ImageOverrides = c.ImageOverrides
	s.InfographicOverrides = c.InfographicOverrides
	s.VideoSplitOverrides = c.VideoSplitOverrides
}

// UndoSnapshot is a value copy of the four pieces of editable state.
type UndoSnapshot struct {
	Markers              []Marker
	ImageOverrides       TimingOverrides
	InfographicOverrides TimingOverrides
	VideoSplitOverrides  VideoSplitOverrides
}

// Clone deep-copies the snapshot. Nil collections become empty ones.
func (s UndoSnapshot) Clone() UndoSnapshot {
	return UndoSnapshot{
		Markers:              cloneMarkers(s.Markers),
		ImageOverrides:       s.ImageOverrides.Clone(),
		InfographicOverrides: s.InfographicOverrides.Clone(),
		VideoSplitOverrides:  s.VideoSplitOverrides.Clone(),
	}
}

// Equal reports structural equality, treating nil and empty
// collections alike.
func (s UndoSnapshot) Equal(o UndoSnapshot) bool {
	a, b := s.Clone(), o.Clone()

	if len(a.Markers) != len(b.Markers) {
		return false
	}
	for i := range a.Markers {
		if !markerEqual(a.Markers[i], b.Markers[i]) {
			return false
		}
	}

	return reflect.DeepEqual(a.ImageOverrides, b.ImageOverrides) &&
		reflect.DeepEqual(a.InfographicOverrides, b.InfographicOverrides) &&
		splitsEqual(a.VideoSplitOverrides, b.VideoSplitOverrides)
}

func markerEqual(a, b Marker) bool {
	return a.ID == b.ID &&
		a.Position == b.Position &&
		a.Prompt == b.Prompt &&
		a.Status == b.Status &&
		a.GeneratedArtifactID == b.GeneratedArtifactID &&
		a.CreatedAt.Equal(b.CreatedAt)
}

func splitsEqual(a, b VideoSplitOverrides) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		w, ok := b[k]
		if !ok || !slices.Equal(v.SplitOffsetsSeconds, w.SplitOffsetsSeconds) {
			return false
		}
	}
	return true
}

func cloneMarkers(m []Marker) []Marker {
	out := make([]Marker, len(m))
	copy(out, m)
	return out
}

func cloneClips(c []ImportedClip) []ImportedClip {
	out := make([]ImportedClip, len(c))
	for i, clip := range c {
		out[i] = clip
		if clip.Track != nil {
			t := *clip.Track
			out[i].Track = &t
		}
	}
	return out
}

// StateInfo describes a stored timeline state.
type StateInfo struct {
	Project   string    `json:"project"`
	UpdatedAt time.Time `json:"updatedAt"`
	Size      int64     `json:"size"`
}
