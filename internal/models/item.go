package models

// ItemType is the type of a resolved timeline item.
type ItemType string

const (
	ItemImage       ItemType = "image"
	ItemVideo       ItemType = "video"
	ItemInfographic ItemType = "infographic"
	ItemTextOverlay ItemType = "text_overlay"
	ItemAudio       ItemType = "audio"
	ItemPlaceholder ItemType = "placeholder"
)

// IsMainTrack reports whether items of this type occupy the main track.
// Text overlays and audio are layered above it and never fill gaps.
func (t ItemType) IsMainTrack() bool {
	switch t {
	case ItemImage, ItemVideo, ItemInfographic, ItemPlaceholder:
		return true
	}
	return false
}

// MediaStatus is the state of file-system resolution of an item's media.
type MediaStatus string

const (
	MediaNone       MediaStatus = ""
	MediaPending    MediaStatus = "pending"
	MediaResolved   MediaStatus = "resolved"
	MediaUnresolved MediaStatus = "unresolved"
)

// TimelineItem is a derived, renderable timeline entry.
type TimelineItem struct {
	ID                string   `json:"id"`
	Type              ItemType `json:"type"`
	StartTime         float64  `json:"startTime"`
	EndTime           float64  `json:"endTime"`
	Duration          float64  `json:"duration"`
	Label             string   `json:"label"`
	Prompt            string   `json:"prompt,omitempty"`
	PlacementNumber   *int     `json:"placementNumber,omitempty"`
	ResolvedImagePath string   `json:"resolvedImagePath,omitempty"`
	ResolvedVideoPath string   `json:"resolvedVideoPath,omitempty"`

	// SourceOffsetSeconds is the offset into the placement's source
	// material the item starts at; non-zero for split video parts.
	SourceOffsetSeconds float64 `json:"sourceOffsetSeconds,omitempty"`
	// SourceDurationSeconds is the duration of the whole source placement.
	SourceDurationSeconds float64 `json:"sourceDurationSeconds,omitempty"`

	MediaPath   string      `json:"mediaPath,omitempty"`
	MediaStatus MediaStatus `json:"mediaStatus,omitempty"`
}

// MediaRef returns the manifest path the item renders, if any.
func (i TimelineItem) MediaRef() string {
	if i.ResolvedVideoPath != "" {
		return i.ResolvedVideoPath
	}
	return i.ResolvedImagePath
}
