// Package override computes new timing-override maps from proposed edits.
//
// All functions are copy-on-write: when an edit changes nothing the
// input map itself is returned with changed == false, otherwise a new
// map is returned and the input is left untouched.
package override

import (
	"math"
	"slices"

	"github.com/GintGld/kshana-timeline/internal/models"
)

const (
	// DefaultMinImageDuration is the shortest an image can be trimmed to.
	DefaultMinImageDuration = 1.0

	// timeEpsilon treats sub-microsecond differences as equal.
	timeEpsilon = 1e-6
	// splitEpsilon merges split points closer than a millisecond.
	splitEpsilon = 1e-3
)

// Resize is a trim-from-the-right gesture on an image item.
type Resize struct {
	StartTime   float64
	DesiredEnd  float64
	MaxEnd      float64
	MinDuration float64
}

// ResizeImage clamps the end of an image to
// [StartTime+MinDuration, MaxEnd]; the start never moves.
func ResizeImage(
	overrides models.TimingOverrides,
	placementNumber int,
	r Resize,
) (models.TimingOverrides, bool) {
	minDuration := r.MinDuration
	if minDuration <= 0 {
		minDuration = DefaultMinImageDuration
	}

	start := max(r.StartTime, 0)
	if invalid(start, r.DesiredEnd, r.MaxEnd) || r.MaxEnd <= start {
		return overrides, false
	}

	// MaxEnd wins when the item has no room for the minimum duration
	end := min(max(r.DesiredEnd, start+minDuration), r.MaxEnd)

	return put(overrides, placementNumber, models.TimingOverride{
		StartTimeSeconds: start,
		EndTimeSeconds:   end,
	})
}

// Move drags an infographic along the timeline keeping its duration.
type Move struct {
	DesiredStart float64
	Duration     float64
	MinStart     float64
	MaxEnd       float64
}

// MoveInfographic clamps the start to [MinStart, MaxEnd-Duration] and
// keeps the duration.
func MoveInfographic(
	overrides models.TimingOverrides,
	placementNumber int,
	m Move,
) (models.TimingOverrides, bool) {
	if invalid(m.DesiredStart, m.Duration, m.MaxEnd, m.MinStart) || m.Duration <= 0 {
		return overrides, false
	}

	minStart := max(m.MinStart, 0)
	// an item longer than the room available is pinned to the left bound
	start := max(min(m.DesiredStart, m.MaxEnd-m.Duration), minStart)

	return put(overrides, placementNumber, models.TimingOverride{
		StartTimeSeconds: start,
		EndTimeSeconds:   start + m.Duration,
	})
}

// Split cuts a video item at an absolute timeline position.
type Split struct {
	SplitTimelineSeconds  float64
	ItemStartTime         float64
	SourceOffsetSeconds   float64
	SourceDurationSeconds float64
}

// Offset is the split point relative to the placement's source material.
func (s Split) Offset() float64 {
	return s.SourceOffsetSeconds + (s.SplitTimelineSeconds - s.ItemStartTime)
}

// SplitVideo inserts the split offset into the placement's sorted,
// deduplicated offset list. Offsets outside (0, SourceDurationSeconds)
// are rejected.
func SplitVideo(
	overrides models.VideoSplitOverrides,
	placementNumber int,
	s Split,
) (models.VideoSplitOverrides, bool) {
	offset := s.Offset()
	if invalid(offset, s.SourceDurationSeconds) ||
		offset <= splitEpsilon || offset >= s.SourceDurationSeconds-splitEpsilon {
		return overrides, false
	}

	current := overrides[placementNumber].SplitOffsetsSeconds

	i, found := slices.BinarySearch(current, offset)
	if found ||
		(i > 0 && offset-current[i-1] < splitEpsilon) ||
		(i < len(current) && current[i]-offset < splitEpsilon) {
		return overrides, false
	}

	offsets := make([]float64, 0, len(current)+1)
	offsets = append(offsets, current[:i]...)
	offsets = append(offsets, offset)
	offsets = append(offsets, current[i:]...)

	out := shallowSplits(overrides)
	out[placementNumber] = models.VideoSplitOverride{SplitOffsetsSeconds: offsets}

	return out, true
}

// RemoveSplit deletes the split offset closest to offset (within a
// millisecond). The placement entry is dropped when no splits remain.
func RemoveSplit(
	overrides models.VideoSplitOverrides,
	placementNumber int,
	offset float64,
) (models.VideoSplitOverrides, bool) {
	current, ok := overrides[placementNumber]
	if !ok {
		return overrides, false
	}

	idx := slices.IndexFunc(current.SplitOffsetsSeconds, func(o float64) bool {
		return math.Abs(o-offset) < splitEpsilon
	})
	if idx == -1 {
		return overrides, false
	}

	out := shallowSplits(overrides)
	offsets := slices.Delete(slices.Clone(current.SplitOffsetsSeconds), idx, idx+1)
	if len(offsets) == 0 {
		delete(out, placementNumber)
	} else {
		out[placementNumber] = models.VideoSplitOverride{SplitOffsetsSeconds: offsets}
	}

	return out, true
}

// Reset drops the override of placement, restoring its source timing.
func Reset(overrides models.TimingOverrides, placementNumber int) (models.TimingOverrides, bool) {
	if _, ok := overrides[placementNumber]; !ok {
		return overrides, false
	}

	out := make(models.TimingOverrides, len(overrides))
	for k, v := range overrides {
		if k != placementNumber {
			out[k] = v
		}
	}

	return out, true
}

func put(
	overrides models.TimingOverrides,
	placementNumber int,
	o models.TimingOverride,
) (models.TimingOverrides, bool) {
	if cur, ok := overrides[placementNumber]; ok && same(cur, o) {
		return overrides, false
	}

	out := make(models.TimingOverrides, len(overrides)+1)
	for k, v := range overrides {
		out[k] = v
	}
	out[placementNumber] = o

	return out, true
}

// shallowSplits copies the map; offset slices of other placements are
// shared, they are never mutated in place.
func shallowSplits(overrides models.VideoSplitOverrides) models.VideoSplitOverrides {
	out := make(models.VideoSplitOverrides, len(overrides)+1)
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

func same(a, b models.TimingOverride) bool {
	return math.Abs(a.StartTimeSeconds-b.StartTimeSeconds) < timeEpsilon &&
		math.Abs(a.EndTimeSeconds-b.EndTimeSeconds) < timeEpsilon
}

func invalid(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}
