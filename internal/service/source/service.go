// Package source reads a project directory: placement declarations,
// the asset manifest and imported media.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/bytedance/sonic"

	"github.com/GintGld/kshana-timeline/internal/lib/logger/sl"
	"github.com/GintGld/kshana-timeline/internal/lib/timecode"
	"github.com/GintGld/kshana-timeline/internal/models"
)

const (
	PlacementsFile = "placements.json"
	ManifestFile   = "assets/manifest.json"
	ImportsDir     = "imports"
)

var ErrMalformed = errors.New("malformed project file")

type Source struct {
	log    *slog.Logger
	dir    string
	prober Prober
}

// Prober measures media duration in seconds.
type Prober interface {
	Duration(ctx context.Context, file string) (float64, error)
}

func New(
	log *slog.Logger,
	dir string,
	prober Prober,
) *Source {
	return &Source{
		log:    log,
		dir:    dir,
		prober: prober,
	}
}

// Dir is the project directory.
func (s *Source) Dir() string {
	return s.dir
}

// Placements is the parsed content of the placements file.
type Placements struct {
	Items []models.Placement
	// TranscriptDuration is 0 when unknown.
	TranscriptDuration float64
}

type rawPlacement struct {
	PlacementNumber int    `json:"placementNumber"`
	StartTime       string `json:"startTime"`
	EndTime         string `json:"endTime"`
	Prompt          string `json:"prompt"`
}

var kinds = []models.PlacementKind{
	models.KindImage,
	models.KindVideo,
	models.KindInfographic,
	models.KindTextOverlay,
	models.KindAudio,
}

// Placements reads the placements file. A missing file is an empty
// project; malformed entries are skipped.
func (s *Source) Placements(ctx context.Context) (Placements, error) {
	const op = "Source.Placements"

	log := s.log.With(
		slog.String("op", op),
		slog.String("dir", s.dir),
	)

	data, err := os.ReadFile(filepath.Join(s.dir, PlacementsFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Info("no placements file")
			return Placements{}, nil
		}
		log.Error("failed to read placements", sl.Err(err))
		return Placements{}, fmt.Errorf("%s: %w", op, err)
	}

	var raw map[string]json.RawMessage
	if err := sonic.Unmarshal(data, &raw); err != nil {
		log.Error("failed to decode placements", sl.Err(err))
		return Placements{}, fmt.Errorf("%s: %w", op, errors.Join(ErrMalformed, err))
	}

	var out Placements
	if v, ok := raw["transcriptDurationSeconds"]; ok {
		if err := sonic.Unmarshal(v, &out.TranscriptDuration); err != nil || out.TranscriptDuration < 0 {
			log.Warn("ignoring transcript duration", slog.String("value", string(v)))
			out.TranscriptDuration = 0
		}
	}

	for _, kind := range kinds {
		v, ok := raw[string(kind)]
		if !ok {
			continue
		}

		var entries []json.RawMessage
		if err := sonic.Unmarshal(v, &entries); err != nil {
			log.Warn("skipping placements", slog.String("kind", string(kind)), sl.Err(err))
			continue
		}

		for i, e := range entries {
			p, err := parsePlacement(kind, e)
			if err != nil {
				log.Warn(
					"skipping placement",
					slog.String("kind", string(kind)),
					slog.Int("index", i),
					sl.Err(err),
				)
				continue
			}
			out.Items = append(out.Items, p)
		}
	}

	sort.SliceStable(out.Items, func(i, j int) bool {
		return out.Items[i].StartTime < out.Items[j].StartTime
	})

	log.Debug("placements loaded", slog.Int("count", len(out.Items)))

	return out, nil
}

func parsePlacement(kind models.PlacementKind, data []byte) (models.Placement, error) {
	var r rawPlacement
	if err := sonic.Unmarshal(data, &r); err != nil {
		return models.Placement{}, err
	}

	start, err := timecode.Parse(r.StartTime)
	if err != nil {
		return models.Placement{}, err
	}
	end, err := timecode.Parse(r.EndTime)
	if err != nil {
		return models.Placement{}, err
	}
	if end <= start {
		return models.Placement{}, fmt.Errorf("%w: end %s before start %s", ErrMalformed, r.EndTime, r.StartTime)
	}

	return models.Placement{
		PlacementNumber: r.PlacementNumber,
		Kind:            kind,
		StartTime:       start,
		EndTime:         end,
		Prompt:          r.Prompt,
	}, nil
}

type manifest struct {
	Assets []json.RawMessage `json:"assets"`
}

// Manifest reads the asset manifest, either {"assets": [...]} or a bare
// list. A missing manifest has no assets; malformed assets are skipped.
func (s *Source) Manifest(ctx context.Context) ([]models.Asset, error) {
	const op = "Source.Manifest"

	log := s.log.With(
		slog.String("op", op),
		slog.String("dir", s.dir),
	)

	data, err := os.ReadFile(filepath.Join(s.dir, ManifestFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Info("no asset manifest")
			return []models.Asset{}, nil
		}
		log.Error("failed to read manifest", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var entries []json.RawMessage
	if err := sonic.Unmarshal(data, &entries); err != nil {
		var m manifest
		if err := sonic.Unmarshal(data, &m); err != nil {
			log.Error("failed to decode manifest", sl.Err(err))
			return nil, fmt.Errorf("%s: %w", op, errors.Join(ErrMalformed, err))
		}
		entries = m.Assets
	}

	assets := make([]models.Asset, 0, len(entries))
	for i, e := range entries {
		var a models.Asset
		if err := sonic.Unmarshal(e, &a); err != nil {
			log.Warn("skipping asset", slog.Int("index", i), sl.Err(err))
			continue
		}
		if a.Path == "" {
			log.Warn("skipping asset without path", slog.Int("index", i))
			continue
		}
		assets = append(assets, a)
	}

	log.Debug("manifest loaded", slog.Int("assets", len(assets)))

	return assets, nil
}
