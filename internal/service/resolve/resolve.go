// Package resolve joins placements, the asset manifest and the user's
// active-version selections into an ordered, gap-free list of timeline
// items.
//
// Every function here is pure: missing assets leave paths unset and
// gaps are covered by placeholder items, nothing is reported as an error.
package resolve

import (
	"fmt"
	"slices"

	ptr "github.com/GintGld/kshana-timeline/internal/lib/utils/pointers"
	"github.com/GintGld/kshana-timeline/internal/models"
)

// DefaultMinDuration keeps an empty or short project navigable.
const DefaultMinDuration = 10.0

// gapEpsilon ignores gaps shorter than float noise.
const gapEpsilon = 1e-6

// Resolve builds one item per placement, sorts items by start time and
// fills every gap of the main track in [0, totalDuration) with placeholders.
func Resolve(
	placements []models.Placement,
	assets []models.Asset,
	active models.ActiveVersions,
	totalDuration float64,
) []models.TimelineItem {
	items := buildItems(placements, assets, active)

	for i := range items {
		if items[i].Type == models.ItemVideo {
			items[i].SourceDurationSeconds = items[i].Duration
		}
	}

	return fillGaps(items, totalDuration)
}

// ProjectDuration returns known when it is positive (transcript or
// audio length), otherwise the end of the last placement floored at floor.
func ProjectDuration(placements []models.Placement, known float64, floor float64) float64 {
	if known > 0 {
		return known
	}

	end := 0.0
	for _, p := range placements {
		end = max(end, p.EndTime)
	}

	return max(end, floor)
}

// AssetFor returns the manifest type and the active-version slot used
// for a placement kind. ok is false for kinds that have no assets.
func AssetFor(kind models.PlacementKind) (assetType models.AssetType, slot models.VersionSlot, ok bool) {
	switch kind {
	case models.KindImage:
		return models.AssetSceneImage, models.SlotImage, true
	case models.KindVideo:
		return models.AssetSceneVideo, models.SlotVideo, true
	case models.KindInfographic:
		// infographics are never pinned
		return models.AssetSceneInfographic, "", true
	}
	return "", "", false
}

// MatchAsset finds the asset to display for placement.
//
// Assets match by type and by placement number, or by scene number for
// manifests written before placement numbers existed. A pinned version
// wins when it exists in the manifest; otherwise the highest version is
// taken, the one iterated last on ties.
func MatchAsset(
	placement models.Placement,
	assets []models.Asset,
	active models.ActiveVersions,
) (models.Asset, bool) {
	assetType, slot, ok := AssetFor(placement.Kind)
	if !ok {
		return models.Asset{}, false
	}

	var (
		pinned    int
		hasPin    bool
		pinnedIdx = -1
		latestIdx = -1
	)
	if slot != "" {
		pinned, hasPin = active.Pinned(placement.PlacementNumber, slot)
	}

	for i, a := range assets {
		if a.Type != assetType || !a.Matches(placement.PlacementNumber) {
			continue
		}
		if hasPin && a.Version == pinned {
			pinnedIdx = i
		}
		if latestIdx == -1 || a.Version >= assets[latestIdx].Version {
			latestIdx = i
		}
	}

	switch {
	case pinnedIdx != -1:
		return assets[pinnedIdx], true
	case latestIdx != -1:
		return assets[latestIdx], true
	}
	return models.Asset{}, false
}

func buildItems(
	placements []models.Placement,
	assets []models.Asset,
	active models.ActiveVersions,
) []models.TimelineItem {
	items := make([]models.TimelineItem, 0, len(placements))

	for _, p := range placements {
		// malformed declarations cannot be placed
		if !p.Kind.Valid() || p.EndTime <= p.StartTime {
			continue
		}

		item := models.TimelineItem{
			ID:              ItemID(p.Kind, p.PlacementNumber),
			Type:            itemType(p.Kind),
			StartTime:       p.StartTime,
			EndTime:         p.EndTime,
			Duration:        p.Duration(),
			Label:           label(p.Kind, p.PlacementNumber),
			Prompt:          p.Prompt,
			PlacementNumber: ptr.Ptr(p.PlacementNumber),
		}

		if asset, ok := MatchAsset(p, assets, active); ok {
			switch p.Kind {
			case models.KindImage:
				item.ResolvedImagePath = asset.Path
			case models.KindVideo, models.KindInfographic:
				item.ResolvedVideoPath = asset.Path
			}
		}

		items = append(items, item)
	}

	return items
}

// fillGaps sorts items and covers every gap of the main track between 0
// and totalDuration with placeholders. Overlay items are kept but do
// not advance the cursor.
func fillGaps(items []models.TimelineItem, totalDuration float64) []models.TimelineItem {
	sortItems(items)

	out := make([]models.TimelineItem, 0, 2*len(items)+1)
	holes := 0
	cursor := 0.0

	for _, item := range items {
		if item.Type.IsMainTrack() {
			if item.StartTime > cursor+gapEpsilon {
				holes++
				out = append(out, placeholder(holes, cursor, item.StartTime))
			}
			cursor = max(cursor, item.EndTime)
		}
		out = append(out, item)
	}

	if totalDuration > cursor+gapEpsilon {
		holes++
		out = append(out, placeholder(holes, cursor, totalDuration))
	}

	sortItems(out)

	return out
}

// sortItems orders by start time; on ties main-track items come first.
func sortItems(items []models.TimelineItem) {
	slices.SortStableFunc(items, func(a, b models.TimelineItem) int {
		switch {
		case a.StartTime < b.StartTime:
			return -1
		case a.StartTime > b.StartTime:
			return 1
		}
		return layer(a) - layer(b)
	})
}

func layer(i models.TimelineItem) int {
	if i.Type.IsMainTrack() {
		return 0
	}
	return 1
}

func placeholder(n int, start, end float64) models.TimelineItem {
	return models.TimelineItem{
		ID:        fmt.Sprintf("placeholder-%d", n),
		Type:      models.ItemPlaceholder,
		StartTime: start,
		EndTime:   end,
		Duration:  end - start,
		Label:     "Original Footage",
	}
}

// ItemID is the stable id of the item built for a placement.
func ItemID(kind models.PlacementKind, placementNumber int) string {
	return fmt.Sprintf("%s-%d", kind, placementNumber)
}

func itemType(kind models.PlacementKind) models.ItemType {
	switch kind {
	case models.KindImage:
		return models.ItemImage
	case models.KindVideo:
		return models.ItemVideo
	case models.KindInfographic:
		return models.ItemInfographic
	case models.KindTextOverlay:
		return models.ItemTextOverlay
	}
	return models.ItemAudio
}

func label(kind models.PlacementKind, n int) string {
	switch kind {
	case models.KindImage:
		return fmt.Sprintf("Image %d", n)
	case models.KindVideo:
		return fmt.Sprintf("Video %d", n)
	case models.KindInfographic:
		return fmt.Sprintf("Infographic %d", n)
	case models.KindTextOverlay:
		return fmt.Sprintf("Text %d", n)
	}
	return fmt.Sprintf("Audio %d", n)
}
