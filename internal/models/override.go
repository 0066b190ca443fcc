package models

import "slices"

// TimingOverride replaces the timing of an image or infographic placement.
type TimingOverride struct {
	StartTimeSeconds float64 `json:"startTimeSeconds"`
	EndTimeSeconds   float64 `json:"endTimeSeconds"`
}

func (o TimingOverride) Duration() float64 {
	return o.EndTimeSeconds - o.StartTimeSeconds
}

// TimingOverrides is keyed by placement number.
type TimingOverrides map[int]TimingOverride

func (o TimingOverrides) Clone() TimingOverrides {
	out := make(TimingOverrides, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// VideoSplitOverride holds split points of one video placement, relative
// to its source material, sorted and deduplicated.
type VideoSplitOverride struct {
	SplitOffsetsSeconds []float64 `json:"splitOffsetsSeconds"`
}

// VideoSplitOverrides is keyed by placement number.
type VideoSplitOverrides map[int]VideoSplitOverride

func (o VideoSplitOverrides) Clone() VideoSplitOverrides {
	out := make(VideoSplitOverrides, len(o))
	for k, v := range o {
		out[k] = VideoSplitOverride{
			SplitOffsetsSeconds: slices.Clone(v.SplitOffsetsSeconds),
		}
	}
	return out
}
