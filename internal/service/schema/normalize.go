package schema

import (
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/GintGld/kshana-timeline/internal/models"
)

const MainTrackID = "main"

// Normalize upgrades a document of either generation to a v2 state.
// Semantically intact fields pass through unchanged; a document without
// tracks gets a main video track built one element per imported clip.
func Normalize(doc Document) models.TimelineState {
	state := models.EmptyState()

	if doc.PlayheadSeconds > 0 {
		state.PlayheadSeconds = doc.PlayheadSeconds
	}
	if doc.ZoomLevel > 0 {
		state.ZoomLevel = doc.ZoomLevel
	}

	for key, v := range doc.ActiveVersions {
		p, err := strconv.Atoi(key)
		if err != nil || (v.Image == nil && v.Video == nil) {
			continue
		}
		state.ActiveVersions[p] = models.VersionSelection{
			Image: copyInt(v.Image),
			Video: copyInt(v.Video),
		}
	}

	for _, m := range doc.Markers {
		status := models.MarkerStatus(m.Status)
		if !status.Valid() {
			status = models.MarkerPending
		}
		var created time.Time
		if m.CreatedAt != 0 {
			created = time.UnixMilli(m.CreatedAt).UTC()
		}
		state.Markers = append(state.Markers, models.Marker{
			ID:                  m.ID,
			Position:            m.Position,
			Prompt:              m.Prompt,
			Status:              status,
			GeneratedArtifactID: m.GeneratedArtifactID,
			CreatedAt:           created,
		})
	}

	for _, c := range doc.ImportedClips {
		state.ImportedClips = append(state.ImportedClips, models.ImportedClip{
			ID:               c.ID,
			Path:             c.Path,
			DurationSeconds:  c.DurationSeconds,
			StartTimeSeconds: c.StartTimeSeconds,
			Track:            copyInt(c.Track),
		})
	}

	state.ImageOverrides = timings(doc.ImageTimingOverrides)
	state.InfographicOverrides = timings(doc.InfographicTimingOverrides)

	for key, v := range doc.VideoSplitOverrides {
		p, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		offsets := make([]float64, 0, len(v.SplitOffsetsSeconds))
		for _, o := range v.SplitOffsetsSeconds {
			if o > 0 {
				offsets = append(offsets, o)
			}
		}
		slices.Sort(offsets)
		offsets = slices.Compact(offsets)
		if len(offsets) == 0 {
			continue
		}
		state.VideoSplitOverrides[p] = models.VideoSplitOverride{SplitOffsetsSeconds: offsets}
	}

	if len(doc.Tracks) == 0 {
		state.Tracks = tracksFromClips(state.ImportedClips)
	} else {
		state.Tracks = ensureMain(FromLegacyShape(doc.Tracks))
	}

	return state
}

// Export converts a state to its v2 document.
func Export(state models.TimelineState) Document {
	doc := Document{
		SchemaVersion:              models.SchemaV2,
		PlayheadSeconds:            state.PlayheadSeconds,
		ZoomLevel:                  state.ZoomLevel,
		ActiveVersions:             make(map[string]DocVersion, len(state.ActiveVersions)),
		Markers:                    make([]DocMarker, 0, len(state.Markers)),
		ImportedClips:              make([]DocClip, 0, len(state.ImportedClips)),
		ImageTimingOverrides:       docTimings(state.ImageOverrides),
		InfographicTimingOverrides: docTimings(state.InfographicOverrides),
		VideoSplitOverrides:        make(map[string]DocSplit, len(state.VideoSplitOverrides)),
		Tracks:                     ToLegacyShape(state.Tracks),
	}

	for p, v := range state.ActiveVersions {
		doc.ActiveVersions[strconv.Itoa(p)] = DocVersion{
			Image: copyInt(v.Image),
			Video: copyInt(v.Video),
		}
	}

	for _, m := range state.Markers {
		var created int64
		if !m.CreatedAt.IsZero() {
			created = m.CreatedAt.UnixMilli()
		}
		doc.Markers = append(doc.Markers, DocMarker{
			ID:                  m.ID,
			Position:            m.Position,
			Prompt:              m.Prompt,
			Status:              string(m.Status),
			GeneratedArtifactID: m.GeneratedArtifactID,
			CreatedAt:           created,
		})
	}

	for _, c := range state.ImportedClips {
		doc.ImportedClips = append(doc.ImportedClips, DocClip{
			ID:               c.ID,
			Path:             c.Path,
			DurationSeconds:  c.DurationSeconds,
			StartTimeSeconds: c.StartTimeSeconds,
			Track:            copyInt(c.Track),
		})
	}

	for p, v := range state.VideoSplitOverrides {
		doc.VideoSplitOverrides[strconv.Itoa(p)] = DocSplit{
			SplitOffsetsSeconds: slices.Clone(v.SplitOffsetsSeconds),
		}
	}

	return doc
}

// tracksFromClips builds the v2 track list of a v1 document. Clips on
// track 0 (or none) go to the main track; others get a video track each.
func tracksFromClips(clips []models.ImportedClip) []models.Track {
	tracks := []models.Track{mainTrack()}
	index := map[int]int{0: 0}

	for _, c := range clips {
		n := 0
		if c.Track != nil && *c.Track > 0 {
			n = *c.Track
		}
		i, ok := index[n]
		if !ok {
			tracks = append(tracks, models.Track{
				ID:       "video-" + strconv.Itoa(n),
				Type:     models.TrackVideo,
				Name:     "Video " + strconv.Itoa(n+1),
				Elements: []models.TrackElement{},
			})
			i = len(tracks) - 1
			index[n] = i
		}
		tracks[i].Elements = append(tracks[i].Elements, ClipElement(c))
	}

	return tracks
}

// ClipElement is the track element of an imported clip.
func ClipElement(c models.ImportedClip) models.TrackElement {
	return models.TrackElement{
		ID:        c.ID,
		Name:      filepath.Base(c.Path),
		StartTime: c.StartTimeSeconds,
		Duration:  c.DurationSeconds,
		Transform: models.IdentityTransform,
		Opacity:   1,
		BlendMode: models.BlendNormal,
		Payload: models.ClipPayload{
			Path:      c.Path,
			MediaType: MediaTypeOf(c.Path),
		},
	}
}

// MediaTypeOf guesses the media type from the file extension.
func MediaTypeOf(path string) models.MediaType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".webp", ".gif", ".bmp":
		return models.MediaImage
	case ".mp3", ".wav", ".aac", ".flac", ".ogg", ".m4a":
		return models.MediaAudio
	}
	return models.MediaVideo
}

func mainTrack() models.Track {
	return models.Track{
		ID:       MainTrackID,
		Type:     models.TrackVideo,
		Name:     "Main",
		IsMain:   true,
		Elements: []models.TrackElement{},
	}
}

// ensureMain marks the first video track as main when none is, or
// prepends a main track when there is no video track at all.
func ensureMain(tracks []models.Track) []models.Track {
	first := -1
	for i, t := range tracks {
		if t.IsMain {
			return tracks
		}
		if first < 0 && t.Type == models.TrackVideo {
			first = i
		}
	}
	if first >= 0 {
		tracks[first].IsMain = true
		return tracks
	}
	return append([]models.Track{mainTrack()}, tracks...)
}

func timings(m map[string]DocTiming) models.TimingOverrides {
	out := make(models.TimingOverrides, len(m))
	for key, v := range m {
		p, err := strconv.Atoi(key)
		if err != nil || v.EndTimeSeconds <= v.StartTimeSeconds {
			continue
		}
		out[p] = models.TimingOverride{
			StartTimeSeconds: v.StartTimeSeconds,
			EndTimeSeconds:   v.EndTimeSeconds,
		}
	}
	return out
}

func docTimings(o models.TimingOverrides) map[string]DocTiming {
	out := make(map[string]DocTiming, len(o))
	for p, v := range o {
		out[strconv.Itoa(p)] = DocTiming{
			StartTimeSeconds: v.StartTimeSeconds,
			EndTimeSeconds:   v.EndTimeSeconds,
		}
	}
	return out
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
