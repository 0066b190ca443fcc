package schema

import (
	"github.com/GintGld/kshana-timeline/internal/models"
)

// LegacyTrack is the persisted form of a track.
type LegacyTrack struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Name     string          `json:"name,omitempty"`
	IsMain   bool            `json:"is_main,omitempty"`
	Muted    bool            `json:"muted,omitempty"`
	Hidden   bool            `json:"hidden,omitempty"`
	Elements []LegacyElement `json:"elements"`
}

// LegacyElement flattens every element type into one record; only the
// fields of its type are populated.
type LegacyElement struct {
	ID               string           `json:"id"`
	Type             string           `json:"type"`
	Name             string           `json:"name,omitempty"`
	StartTimeSeconds float64          `json:"start_time_seconds"`
	DurationSeconds  float64          `json:"duration_seconds"`
	TrimStartSeconds float64          `json:"trim_start_seconds,omitempty"`
	TrimEndSeconds   float64          `json:"trim_end_seconds,omitempty"`
	Transform        *LegacyTransform `json:"transform,omitempty"`
	Opacity          *float64         `json:"opacity,omitempty"`
	BlendMode        string           `json:"blend_mode,omitempty"`

	Path      string `json:"path,omitempty"`
	MediaType string `json:"media_type,omitempty"`

	Text       string  `json:"text,omitempty"`
	Preset     string  `json:"preset,omitempty"`
	FontSize   float64 `json:"font_size,omitempty"`
	FontWeight int     `json:"font_weight,omitempty"`
	Color      string  `json:"color,omitempty"`
	Align      string  `json:"align,omitempty"`

	StickerID string `json:"sticker_id,omitempty"`

	ShapeType   string  `json:"shape_type,omitempty"`
	Fill        string  `json:"fill,omitempty"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"stroke_width,omitempty"`

	SVGContent string `json:"svg_content,omitempty"`
}

type LegacyTransform struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Scale    float64 `json:"scale"`
	Rotation float64 `json:"rotation"`
}

// ToLegacyShape converts tracks to their persisted form.
func ToLegacyShape(tracks []models.Track) []LegacyTrack {
	out := make([]LegacyTrack, 0, len(tracks))
	for _, t := range tracks {
		lt := LegacyTrack{
			ID:       t.ID,
			Type:     string(t.Type),
			Name:     t.Name,
			IsMain:   t.IsMain,
			Muted:    t.Muted,
			Hidden:   t.Hidden,
			Elements: make([]LegacyElement, 0, len(t.Elements)),
		}
		for _, e := range t.Elements {
			lt.Elements = append(lt.Elements, toLegacyElement(e))
		}
		out = append(out, lt)
	}
	return out
}

func toLegacyElement(e models.TrackElement) LegacyElement {
	opacity := e.Opacity
	le := LegacyElement{
		ID:               e.ID,
		Type:             string(e.Type()),
		Name:             e.Name,
		StartTimeSeconds: e.StartTime,
		DurationSeconds:  e.Duration,
		TrimStartSeconds: e.TrimStart,
		TrimEndSeconds:   e.TrimEnd,
		Transform: &LegacyTransform{
			X:        e.Transform.X,
			Y:        e.Transform.Y,
			Scale:    e.Transform.Scale,
			Rotation: e.Transform.Rotation,
		},
		Opacity:   &opacity,
		BlendMode: string(e.BlendMode),
	}

	switch p := e.Payload.(type) {
	case models.ClipPayload:
		le.Path = p.Path
		le.MediaType = string(p.MediaType)
	case models.TextPayload:
		le.Text = p.Content
		le.Preset = string(p.Preset)
		le.FontSize = p.FontSize
		le.FontWeight = p.FontWeight
		le.Color = p.Color
		le.Align = p.Align
	case models.StickerPayload:
		le.StickerID = p.StickerID
	case models.ShapePayload:
		le.ShapeType = string(p.ShapeType)
		le.Fill = p.Fill
		le.Stroke = p.Stroke
		le.StrokeWidth = p.StrokeWidth
	case models.SVGPayload:
		le.SVGContent = p.Content
	}

	return le
}

// FromLegacyShape converts persisted tracks back. Missing transform,
// opacity and blend mode take their defaults. Elements of unknown type
// are dropped; tracks of unknown type are treated as video tracks.
func FromLegacyShape(tracks []LegacyTrack) []models.Track {
	out := make([]models.Track, 0, len(tracks))
	for _, lt := range tracks {
		t := models.Track{
			ID:       lt.ID,
			Type:     models.TrackType(lt.Type),
			Name:     lt.Name,
			IsMain:   lt.IsMain,
			Muted:    lt.Muted,
			Hidden:   lt.Hidden,
			Elements: make([]models.TrackElement, 0, len(lt.Elements)),
		}
		if !t.Type.Valid() {
			t.Type = models.TrackVideo
		}
		for _, le := range lt.Elements {
			e, ok := fromLegacyElement(le)
			if !ok {
				continue
			}
			t.Elements = append(t.Elements, e)
		}
		out = append(out, t)
	}
	return out
}

func fromLegacyElement(le LegacyElement) (models.TrackElement, bool) {
	e := models.TrackElement{
		ID:        le.ID,
		Name:      le.Name,
		StartTime: le.StartTimeSeconds,
		Duration:  le.DurationSeconds,
		TrimStart: le.TrimStartSeconds,
		TrimEnd:   le.TrimEndSeconds,
		Transform: models.IdentityTransform,
		Opacity:   1,
		BlendMode: models.BlendMode(le.BlendMode),
	}
	if le.Transform != nil {
		e.Transform = models.Transform{
			X:        le.Transform.X,
			Y:        le.Transform.Y,
			Scale:    le.Transform.Scale,
			Rotation: le.Transform.Rotation,
		}
	}
	if le.Opacity != nil {
		e.Opacity = *le.Opacity
	}
	if e.BlendMode == "" {
		e.BlendMode = models.BlendNormal
	}

	switch models.ElementType(le.Type) {
	case models.ElementClip, "":
		e.Payload = models.ClipPayload{
			Path:      le.Path,
			MediaType: models.MediaType(le.MediaType),
		}
	case models.ElementText:
		e.Payload = models.TextPayload{
			Content:    le.Text,
			Preset:     models.TextPreset(le.Preset),
			FontSize:   le.FontSize,
			FontWeight: le.FontWeight,
			Color:      le.Color,
			Align:      le.Align,
		}
	case models.ElementSticker:
		e.Payload = models.StickerPayload{StickerID: le.StickerID}
	case models.ElementShape:
		e.Payload = models.ShapePayload{
			ShapeType:   models.ShapeType(le.ShapeType),
			Fill:        le.Fill,
			Stroke:      le.Stroke,
			StrokeWidth: le.StrokeWidth,
		}
	case models.ElementSVG:
		e.Payload = models.SVGPayload{Content: le.SVGContent}
	default:
		return models.TrackElement{}, false
	}

	return e, true
}

// LegacyElementOf converts a single element to its persisted form.
func LegacyElementOf(e models.TrackElement) LegacyElement {
	return toLegacyElement(e)
}
