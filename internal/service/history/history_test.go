package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GintGld/kshana-timeline/internal/models"
)

func snapWithMarker(pos float64) models.UndoSnapshot {
	return models.UndoSnapshot{
		Markers: []models.Marker{{ID: "m", Position: pos, Status: models.MarkerPending}},
	}
}

func TestPushSkipsDuplicates(t *testing.T) {
	h := New(DefaultCapacity)

	assert.True(t, h.Push(snapWithMarker(1)))
	assert.False(t, h.Push(snapWithMarker(1)))
	assert.True(t, h.Push(snapWithMarker(2)))
	assert.True(t, h.Push(snapWithMarker(1)))

	assert.Equal(t, 3, h.Len())
}

func TestPushStoresCopy(t *testing.T) {
	h := New(DefaultCapacity)

	snap := snapWithMarker(1)
	h.Push(snap)
	snap.Markers[0].Position = 99

	top, ok := h.Peek()
	require.True(t, ok)
	assert.Equal(t, 1.0, top.Markers[0].Position)
}

func TestPopOrder(t *testing.T) {
	h := New(DefaultCapacity)

	_, ok := h.Pop()
	assert.False(t, ok)

	h.Push(snapWithMarker(1))
	h.Push(snapWithMarker(2))

	s, ok := h.Pop()
	require.True(t, ok)
	assert.Equal(t, 2.0, s.Markers[0].Position)

	s, ok = h.Pop()
	require.True(t, ok)
	assert.Equal(t, 1.0, s.Markers[0].Position)

	assert.Equal(t, 0, h.Len())
}

func TestCapacityEvictsOldest(t *testing.T) {
	h := New(DefaultCapacity)

	for i := 0; i < 150; i++ {
		require.True(t, h.Push(snapWithMarker(float64(i))))
	}

	assert.Equal(t, 100, h.Len())

	var last models.UndoSnapshot
	for h.Len() > 0 {
		last, _ = h.Pop()
	}
	// 0..49 were evicted
	assert.Equal(t, 50.0, last.Markers[0].Position)
}

func TestClear(t *testing.T) {
	h := New(2)
	h.Push(snapWithMarker(1))
	h.Clear()

	assert.Equal(t, 0, h.Len())
	assert.Equal(t, 2, h.Capacity())
}
