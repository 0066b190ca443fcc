package schema

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/GintGld/kshana-timeline/internal/models"
)

const DefaultElementDuration = 5.0

var (
	ErrUnknownPreset  = errors.New("unknown text preset")
	ErrUnknownShape   = errors.New("unknown shape type")
	ErrEmptyContent   = errors.New("empty content")
	ErrNegativeStart  = errors.New("negative start time")
	ErrElementMissing = errors.New("element not found")
)

var trackNames = map[models.TrackType]string{
	models.TrackVideo:    "Video",
	models.TrackText:     "Text",
	models.TrackSticker:  "Stickers",
	models.TrackGraphics: "Graphics",
}

// EnsureTrack returns tracks with a track of type t present and the
// index of that track. Video elements go to the main track. The input
// slice is never modified.
func EnsureTrack(tracks []models.Track, t models.TrackType) ([]models.Track, int) {
	out := models.CloneTracks(tracks)
	if out == nil {
		out = []models.Track{}
	}

	if t == models.TrackVideo {
		out = ensureMain(out)
		for i, tr := range out {
			if tr.IsMain {
				return out, i
			}
		}
	}

	for i, tr := range out {
		if tr.Type == t {
			return out, i
		}
	}

	out = append(out, models.Track{
		ID:       string(t) + "-" + uuid.NewString(),
		Type:     t,
		Name:     trackNames[t],
		Elements: []models.TrackElement{},
	})

	return out, len(out) - 1
}

// AppendElement places e on the track its type belongs to, creating the
// track when missing. Elements stay ordered by start time.
func AppendElement(tracks []models.Track, e models.TrackElement) []models.Track {
	out, i := EnsureTrack(tracks, e.Type().TrackType())

	elements := append(out[i].Elements, e)
	sort.SliceStable(elements, func(a, b int) bool {
		return elements[a].StartTime < elements[b].StartTime
	})
	out[i].Elements = elements

	return out
}

// RemoveElement deletes the element with the given id from whichever
// track holds it.
func RemoveElement(tracks []models.Track, id string) ([]models.Track, error) {
	const op = "schema.RemoveElement"

	out := models.CloneTracks(tracks)
	for i, t := range out {
		for j, e := range t.Elements {
			if e.ID != id {
				continue
			}
			out[i].Elements = append(t.Elements[:j:j], t.Elements[j+1:]...)
			return out, nil
		}
	}

	return nil, fmt.Errorf("%s: %w", op, ErrElementMissing)
}

type textStyle struct {
	fontSize   float64
	fontWeight int
	align      string
	y          float64
	duration   float64
}

var presets = map[models.TextPreset]textStyle{
	models.PresetNone:       {fontSize: 36, fontWeight: 400, align: "center", duration: DefaultElementDuration},
	models.PresetTitle:      {fontSize: 72, fontWeight: 700, align: "center", y: -0.3, duration: DefaultElementDuration},
	models.PresetSubtitle:   {fontSize: 48, fontWeight: 500, align: "center", y: -0.15, duration: DefaultElementDuration},
	models.PresetLowerThird: {fontSize: 32, fontWeight: 600, align: "left", y: 0.3, duration: DefaultElementDuration},
	models.PresetCaption:    {fontSize: 24, fontWeight: 400, align: "center", y: 0.4, duration: 3},
}

// TextElement builds a text element styled by preset.
func TextElement(preset models.TextPreset, start float64, content string) (models.TrackElement, error) {
	const op = "schema.TextElement"

	style, ok := presets[preset]
	if !ok {
		return models.TrackElement{}, fmt.Errorf("%s: %w", op, ErrUnknownPreset)
	}
	if start < 0 {
		return models.TrackElement{}, fmt.Errorf("%s: %w", op, ErrNegativeStart)
	}

	e := newElement(start, style.duration)
	e.Name = content
	e.Transform.Y = style.y
	e.Payload = models.TextPayload{
		Content:    content,
		Preset:     preset,
		FontSize:   style.fontSize,
		FontWeight: style.fontWeight,
		Color:      "#FFFFFF",
		Align:      style.align,
	}

	return e, nil
}

func StickerElement(start float64, stickerID string) (models.TrackElement, error) {
	const op = "schema.StickerElement"

	if stickerID == "" {
		return models.TrackElement{}, fmt.Errorf("%s: %w", op, ErrEmptyContent)
	}
	if start < 0 {
		return models.TrackElement{}, fmt.Errorf("%s: %w", op, ErrNegativeStart)
	}

	e := newElement(start, DefaultElementDuration)
	e.Name = stickerID
	e.Payload = models.StickerPayload{StickerID: stickerID}

	return e, nil
}

func ShapeElement(start float64, shape models.ShapeType) (models.TrackElement, error) {
	const op = "schema.ShapeElement"

	switch shape {
	case models.ShapeRectangle, models.ShapeEllipse, models.ShapeLine, models.ShapeArrow:
	default:
		return models.TrackElement{}, fmt.Errorf("%s: %w", op, ErrUnknownShape)
	}
	if start < 0 {
		return models.TrackElement{}, fmt.Errorf("%s: %w", op, ErrNegativeStart)
	}

	e := newElement(start, DefaultElementDuration)
	e.Name = string(shape)
	e.Payload = models.ShapePayload{
		ShapeType:   shape,
		Fill:        "#FFFFFF",
		Stroke:      "#000000",
		StrokeWidth: 2,
	}

	return e, nil
}

func SVGElement(start float64, content string) (models.TrackElement, error) {
	const op = "schema.SVGElement"

	if content == "" {
		return models.TrackElement{}, fmt.Errorf("%s: %w", op, ErrEmptyContent)
	}
	if start < 0 {
		return models.TrackElement{}, fmt.Errorf("%s: %w", op, ErrNegativeStart)
	}

	e := newElement(start, DefaultElementDuration)
	e.Name = "svg"
	e.Payload = models.SVGPayload{Content: content}

	return e, nil
}

func newElement(start, duration float64) models.TrackElement {
	return models.TrackElement{
		ID:        uuid.NewString(),
		StartTime: start,
		Duration:  duration,
		Transform: models.IdentityTransform,
		Opacity:   1,
		BlendMode: models.BlendNormal,
	}
}
