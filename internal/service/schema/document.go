// Package schema translates between persisted timeline-state documents
// (legacy flat v1 and multi-track v2) and the in-memory state.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/bytedance/sonic"
)

var ErrNotObject = errors.New("timeline state is not a JSON object")

// Document is the persisted and interchange shape of a timeline state.
// A v1 document has no schema version and no tracks.
type Document struct {
	SchemaVersion              string                `json:"schema_version,omitempty"`
	PlayheadSeconds            float64               `json:"playhead_seconds"`
	ZoomLevel                  float64               `json:"zoom_level"`
	ActiveVersions             map[string]DocVersion `json:"active_versions"`
	Markers                    []DocMarker           `json:"markers"`
	ImportedClips              []DocClip             `json:"imported_clips"`
	ImageTimingOverrides       map[string]DocTiming  `json:"image_timing_overrides"`
	InfographicTimingOverrides map[string]DocTiming  `json:"infographic_timing_overrides"`
	VideoSplitOverrides        map[string]DocSplit   `json:"video_split_overrides"`
	Tracks                     []LegacyTrack         `json:"tracks,omitempty"`
}

type DocVersion struct {
	Image *int `json:"image,omitempty"`
	Video *int `json:"video,omitempty"`
}

type DocMarker struct {
	ID                  string  `json:"id"`
	Position            float64 `json:"position"`
	Prompt              string  `json:"prompt"`
	Status              string  `json:"status"`
	GeneratedArtifactID string  `json:"generated_artifact_id,omitempty"`
	// CreatedAt is unix milliseconds, 0 when unknown.
	CreatedAt int64 `json:"created_at"`
}

type DocClip struct {
	ID               string  `json:"id"`
	Path             string  `json:"path"`
	DurationSeconds  float64 `json:"duration_seconds"`
	StartTimeSeconds float64 `json:"start_time_seconds"`
	Track            *int    `json:"track,omitempty"`
}

type DocTiming struct {
	StartTimeSeconds float64 `json:"start_time_seconds"`
	EndTimeSeconds   float64 `json:"end_time_seconds"`
}

type DocSplit struct {
	SplitOffsetsSeconds []float64 `json:"split_offsets_seconds"`
}

// Parse decodes a document of either generation. Fields that fail to
// decode are left empty and their keys are returned as anomalies;
// malformed entries of list fields are skipped one by one. Only a
// top-level value that is not an object is an error.
func Parse(data []byte) (Document, []string, error) {
	const op = "schema.Parse"

	var raw map[string]json.RawMessage
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return Document{}, nil, fmt.Errorf("%s: %w", op, errors.Join(ErrNotObject, err))
	}
	if raw == nil {
		return Document{}, nil, fmt.Errorf("%s: %w", op, ErrNotObject)
	}

	var (
		doc       Document
		anomalies []string
	)
	field := func(key string, dst any) {
		v, ok := raw[key]
		if !ok || string(v) == "null" {
			return
		}
		if err := sonic.Unmarshal(v, dst); err != nil {
			anomalies = append(anomalies, key)
		}
	}

	field("schema_version", &doc.SchemaVersion)
	field("playhead_seconds", &doc.PlayheadSeconds)
	field("zoom_level", &doc.ZoomLevel)
	field("active_versions", &doc.ActiveVersions)
	field("image_timing_overrides", &doc.ImageTimingOverrides)
	field("infographic_timing_overrides", &doc.InfographicTimingOverrides)
	field("video_split_overrides", &doc.VideoSplitOverrides)

	doc.Markers, anomalies = list[DocMarker](raw, "markers", anomalies)
	doc.ImportedClips, anomalies = list[DocClip](raw, "imported_clips", anomalies)
	doc.Tracks, anomalies = list[LegacyTrack](raw, "tracks", anomalies)

	sort.Strings(anomalies)

	return doc, anomalies, nil
}

func list[T any](raw map[string]json.RawMessage, key string, anomalies []string) ([]T, []string) {
	v, ok := raw[key]
	if !ok || string(v) == "null" {
		return nil, anomalies
	}

	var items []json.RawMessage
	if err := sonic.Unmarshal(v, &items); err != nil {
		return nil, append(anomalies, key)
	}

	out := make([]T, 0, len(items))
	bad := false
	for _, item := range items {
		var t T
		if err := sonic.Unmarshal(item, &t); err != nil {
			bad = true
			continue
		}
		out = append(out, t)
	}
	if bad {
		anomalies = append(anomalies, key)
	}

	return out, anomalies
}

// Encode serialises a document.
func Encode(doc Document) ([]byte, error) {
	const op = "schema.Encode"

	data, err := sonic.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return data, nil
}
