package models

import "slices"

type TrackType string

const (
	TrackVideo    TrackType = "video"
	TrackText     TrackType = "text"
	TrackSticker  TrackType = "sticker"
	TrackGraphics TrackType = "graphics"
)

func (t TrackType) Valid() bool {
	switch t {
	case TrackVideo, TrackText, TrackSticker, TrackGraphics:
		return true
	}
	return false
}

// Track is one layer of the multi-track timeline.
type Track struct {
	ID       string
	Type     TrackType
	Name     string
	IsMain   bool
	Muted    bool
	Hidden   bool
	Elements []TrackElement
}

func (t Track) Clone() Track {
	t.Elements = slices.Clone(t.Elements)
	return t
}

// CloneTracks deep-copies a track list.
func CloneTracks(tracks []Track) []Track {
	if tracks == nil {
		return nil
	}
	out := make([]Track, len(tracks))
	for i, t := range tracks {
		out[i] = t.Clone()
	}
	return out
}

type BlendMode string

const (
	BlendNormal   BlendMode = "normal"
	BlendMultiply BlendMode = "multiply"
	BlendScreen   BlendMode = "screen"
	BlendOverlay  BlendMode = "overlay"
)

type Transform struct {
	X        float64
	Y        float64
	Scale    float64
	Rotation float64
}

// IdentityTransform leaves an element where the renderer puts it.
var IdentityTransform = Transform{Scale: 1}

// TrackElement is a timed item on a track. Type-specific data lives
// in Payload.
type TrackElement struct {
	ID        string
	Name      string
	StartTime float64
	Duration  float64
	TrimStart float64
	TrimEnd   float64
	Transform Transform
	Opacity   float64
	BlendMode BlendMode
	Payload   ElementPayload
}

func (e TrackElement) EndTime() float64 {
	return e.StartTime + e.Duration
}

// Type returns the payload type; elements without payload are clips.
func (e TrackElement) Type() ElementType {
	if e.Payload == nil {
		return ElementClip
	}
	return e.Payload.Type()
}

type ElementType string

const (
	ElementClip    ElementType = "clip"
	ElementText    ElementType = "text"
	ElementSticker ElementType = "sticker"
	ElementShape   ElementType = "shape"
	ElementSVG     ElementType = "svg"
)

// TrackType returns the kind of track elements of type t live on.
func (t ElementType) TrackType() TrackType {
	switch t {
	case ElementText:
		return TrackText
	case ElementSticker:
		return TrackSticker
	case ElementShape, ElementSVG:
		return TrackGraphics
	}
	return TrackVideo
}

// ElementPayload is implemented by ClipPayload, TextPayload,
// StickerPayload, ShapePayload and SVGPayload only.
type ElementPayload interface {
	Type() ElementType
	payload()
}

type MediaType string

const (
	MediaVideo MediaType = "video"
	MediaImage MediaType = "image"
	MediaAudio MediaType = "audio"
)

type ClipPayload struct {
	Path      string
	MediaType MediaType
}

type TextPreset string

const (
	PresetNone       TextPreset = ""
	PresetTitle      TextPreset = "title"
	PresetSubtitle   TextPreset = "subtitle"
	PresetLowerThird TextPreset = "lower_third"
	PresetCaption    TextPreset = "caption"
)

type TextPayload struct {
	Content    string
	Preset     TextPreset
	FontSize   float64
	FontWeight int
	Color      string
	Align      string
}

type StickerPayload struct {
	StickerID string
}

type ShapeType string

const (
	ShapeRectangle ShapeType = "rectangle"
	ShapeEllipse   ShapeType = "ellipse"
	ShapeLine      ShapeType = "line"
	ShapeArrow     ShapeType = "arrow"
)

type ShapePayload struct {
	ShapeType   ShapeType
	Fill        string
	Stroke      string
	StrokeWidth float64
}

type SVGPayload struct {
	Content string
}

func (ClipPayload) Type() ElementType    { return ElementClip }
func (TextPayload) Type() ElementType    { return ElementText }
func (StickerPayload) Type() ElementType { return ElementSticker }
func (ShapePayload) Type() ElementType   { return ElementShape }
func (SVGPayload) Type() ElementType     { return ElementSVG }

func (ClipPayload) payload()    {}
func (TextPayload) payload()    {}
func (StickerPayload) payload() {}
func (ShapePayload) payload()   {}
func (SVGPayload) payload()     {}
