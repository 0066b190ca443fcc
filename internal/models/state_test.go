package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ptr "github.com/GintGld/kshana-timeline/internal/lib/utils/pointers"
	"github.com/GintGld/kshana-timeline/internal/models"
)

func TestSnapshotIsDeepCopy(t *testing.T) {
	st := models.EmptyState()
	st.Markers = append(st.Markers, models.Marker{ID: "m1", Position: 2, Status: models.MarkerPending})
	st.ImageOverrides[1] = models.TimingOverride{StartTimeSeconds: 0, EndTimeSeconds: 3}
	st.VideoSplitOverrides[2] = models.VideoSplitOverride{SplitOffsetsSeconds: []float64{1.5}}

	snap := st.Snapshot()

	st.Markers[0].Prompt = "changed"
	st.ImageOverrides[1] = models.TimingOverride{EndTimeSeconds: 9}
	st.VideoSplitOverrides[2].SplitOffsetsSeconds[0] = 0.5

	assert.Equal(t, "", snap.Markers[0].Prompt)
	assert.Equal(t, 3.0, snap.ImageOverrides[1].EndTimeSeconds)
	assert.Equal(t, []float64{1.5}, snap.VideoSplitOverrides[2].SplitOffsetsSeconds)
}

func TestSnapshotEqual(t *testing.T) {
	now := time.Now()

	testCases := []struct {
		desc   string
		a, b   models.UndoSnapshot
		expect bool
	}{
		{
			desc:   "nil and empty collections",
			a:      models.UndoSnapshot{},
			b:      models.UndoSnapshot{Markers: []models.Marker{}, ImageOverrides: models.TimingOverrides{}},
			expect: true,
		},
		{
			desc:   "same markers",
			a:      models.UndoSnapshot{Markers: []models.Marker{{ID: "a", CreatedAt: now}}},
			b:      models.UndoSnapshot{Markers: []models.Marker{{ID: "a", CreatedAt: now.UTC()}}},
			expect: true,
		},
		{
			desc:   "marker status differs",
			a:      models.UndoSnapshot{Markers: []models.Marker{{ID: "a", Status: models.MarkerPending}}},
			b:      models.UndoSnapshot{Markers: []models.Marker{{ID: "a", Status: models.MarkerComplete}}},
			expect: false,
		},
		{
			desc:   "override differs",
			a:      models.UndoSnapshot{InfographicOverrides: models.TimingOverrides{1: {EndTimeSeconds: 2}}},
			b:      models.UndoSnapshot{InfographicOverrides: models.TimingOverrides{1: {EndTimeSeconds: 3}}},
			expect: false,
		},
		{
			desc:   "split offsets differ",
			a:      models.UndoSnapshot{VideoSplitOverrides: models.VideoSplitOverrides{1: {SplitOffsetsSeconds: []float64{1}}}},
			b:      models.UndoSnapshot{VideoSplitOverrides: models.VideoSplitOverrides{1: {SplitOffsetsSeconds: []float64{1, 2}}}},
			expect: false,
		},
	}

	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			assert.Equal(t, tC.expect, tC.a.Equal(tC.b))
		})
	}
}

func TestActiveVersionsWith(t *testing.T) {
	av := models.ActiveVersions{}

	pinned := av.With(1, models.SlotImage, ptr.Ptr(2))
	require.Empty(t, av)

	v, ok := pinned.Pinned(1, models.SlotImage)
	require.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = pinned.Pinned(1, models.SlotVideo)
	assert.False(t, ok)

	cleared := pinned.With(1, models.SlotImage, nil)
	assert.NotContains(t, cleared, 1)
}

func TestAssetMatches(t *testing.T) {
	a := models.Asset{PlacementNumber: ptr.Ptr(3)}
	assert.True(t, a.Matches(3))
	assert.False(t, a.Matches(4))

	legacy := models.Asset{SceneNumber: ptr.Ptr(4)}
	assert.True(t, legacy.Matches(4))
}
