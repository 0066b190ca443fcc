package resolve

import (
	"fmt"

	"github.com/GintGld/kshana-timeline/internal/models"
)

// Edits are the user's non-destructive timing overrides.
type Edits struct {
	ImageOverrides       models.TimingOverrides
	InfographicOverrides models.TimingOverrides
	VideoSplits          models.VideoSplitOverrides
}

// ResolveEdited resolves placements like Resolve, then applies timing
// overrides and video splits before sorting and gap filling, so that a
// trimmed image leaves a placeholder behind and a split video yields one
// item per part.
func ResolveEdited(
	placements []models.Placement,
	assets []models.Asset,
	active models.ActiveVersions,
	totalDuration float64,
	edits Edits,
) []models.TimelineItem {
	base := buildItems(placements, assets, active)

	items := make([]models.TimelineItem, 0, len(base))
	for _, item := range base {
		switch item.Type {
		case models.ItemImage:
			items = append(items, applyTiming(item, edits.ImageOverrides))
		case models.ItemInfographic:
			items = append(items, applyTiming(item, edits.InfographicOverrides))
		case models.ItemVideo:
			items = append(items, splitVideo(item, edits.VideoSplits)...)
		default:
			items = append(items, item)
		}
	}

	return fillGaps(items, totalDuration)
}

func applyTiming(item models.TimelineItem, overrides models.TimingOverrides) models.TimelineItem {
	o, ok := overrides[*item.PlacementNumber]
	if !ok || o.EndTimeSeconds <= o.StartTimeSeconds {
		return item
	}

	item.StartTime = o.StartTimeSeconds
	item.EndTime = o.EndTimeSeconds
	item.Duration = o.Duration()

	return item
}

// splitVideo cuts a video item at its split offsets. Part k covers the
// source range between consecutive offsets.
func splitVideo(item models.TimelineItem, splits models.VideoSplitOverrides) []models.TimelineItem {
	source := item.Duration
	item.SourceDurationSeconds = source

	o, ok := splits[*item.PlacementNumber]
	if !ok {
		return []models.TimelineItem{item}
	}

	bounds := []float64{0}
	for _, off := range o.SplitOffsetsSeconds {
		if off > 0 && off < source && off > bounds[len(bounds)-1] {
			bounds = append(bounds, off)
		}
	}
	bounds = append(bounds, source)

	if len(bounds) == 2 {
		return []models.TimelineItem{item}
	}

	parts := make([]models.TimelineItem, 0, len(bounds)-1)
	for k := 0; k+1 < len(bounds); k++ {
		part := item
		part.ID = fmt.Sprintf("%s-part-%d", item.ID, k+1)
		part.Label = fmt.Sprintf("%s (%d/%d)", item.Label, k+1, len(bounds)-1)
		part.StartTime = item.StartTime + bounds[k]
		part.EndTime = item.StartTime + bounds[k+1]
		part.Duration = bounds[k+1] - bounds[k]
		part.SourceOffsetSeconds = bounds[k]
		parts = append(parts, part)
	}

	return parts
}
