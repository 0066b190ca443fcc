package models

// PlacementKind is the kind of generated content a placement declares.
type PlacementKind string

const (
	KindImage       PlacementKind = "image"
	KindVideo       PlacementKind = "video"
	KindInfographic PlacementKind = "infographic"
	KindTextOverlay PlacementKind = "text_overlay"
	KindAudio       PlacementKind = "audio"
)

// Valid reports whether k is a known placement kind.
func (k PlacementKind) Valid() bool {
	switch k {
	case KindImage, KindVideo, KindInfographic, KindTextOverlay, KindAudio:
		return true
	}
	return false
}

// Placement declares where a piece of content belongs on the timeline.
// Times are in seconds, EndTime > StartTime.
type Placement struct {
	PlacementNumber int           `json:"placementNumber"`
	Kind            PlacementKind `json:"kind"`
	StartTime       float64       `json:"startTime"`
	EndTime         float64       `json:"endTime"`
	Prompt          string        `json:"prompt,omitempty"`
}

func (p Placement) Duration() float64 {
	return p.EndTime - p.StartTime
}
