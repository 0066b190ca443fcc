package persist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GintGld/kshana-timeline/internal/lib/logger/slogdiscard"
	"github.com/GintGld/kshana-timeline/internal/lib/retry"
	"github.com/GintGld/kshana-timeline/internal/models"
	"github.com/GintGld/kshana-timeline/internal/service/schema"
)

var fastPolicy = retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}

type fakeStorage struct {
	mu       sync.Mutex
	failures int
	calls    int
	docs     [][]byte
}

func (f *fakeStorage) SaveState(_ context.Context, project string, document []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.failures != 0 {
		if f.failures > 0 {
			f.failures--
		}
		return errors.New("disk full")
	}
	f.docs = append(f.docs, document)
	return nil
}

func (f *fakeStorage) saved() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([][]byte(nil), f.docs...)
}

func stateAt(playhead float64) models.TimelineState {
	s := models.EmptyState()
	s.PlayheadSeconds = playhead
	return s
}

func playheadOf(t *testing.T, doc []byte) float64 {
	t.Helper()

	d, _, err := schema.Parse(doc)
	require.NoError(t, err)
	return d.PlayheadSeconds
}

func TestScheduleDebounces(t *testing.T) {
	storage := &fakeStorage{}
	s := New(slogdiscard.NewDiscardLogger(), storage, "demo", 30*time.Millisecond, fastPolicy)
	defer s.Close(context.Background())

	for i := 1; i <= 5; i++ {
		s.Schedule(stateAt(float64(i)))
	}

	require.Eventually(t, func() bool {
		return len(storage.saved()) == 1
	}, 2*time.Second, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	docs := storage.saved()
	require.Len(t, docs, 1)
	assert.Equal(t, 5.0, playheadOf(t, docs[0]))
	assert.False(t, s.Status().Failed())
	assert.False(t, s.Status().SavedAt.IsZero())
}

func TestFlush(t *testing.T) {
	storage := &fakeStorage{}
	s := New(slogdiscard.NewDiscardLogger(), storage, "demo", time.Hour, fastPolicy)
	defer s.Close(context.Background())

	require.NoError(t, s.Flush(context.Background()))
	assert.Empty(t, storage.saved())

	s.Schedule(stateAt(7))
	require.NoError(t, s.Flush(context.Background()))
	require.Len(t, storage.saved(), 1)
	assert.Equal(t, 7.0, playheadOf(t, storage.saved()[0]))

	require.NoError(t, s.Flush(context.Background()))
	assert.Len(t, storage.saved(), 1)
}

func TestScheduledStateIsCopied(t *testing.T) {
	storage := &fakeStorage{}
	s := New(slogdiscard.NewDiscardLogger(), storage, "demo", time.Hour, fastPolicy)
	defer s.Close(context.Background())

	state := stateAt(1)
	state.Markers = append(state.Markers, models.Marker{ID: "m", Status: models.MarkerPending})
	s.Schedule(state)
	state.Markers[0].ID = "changed"

	require.NoError(t, s.Flush(context.Background()))
	d, _, err := schema.Parse(storage.saved()[0])
	require.NoError(t, err)
	assert.Equal(t, "m", d.Markers[0].ID)
}

func TestRetryThenSucceed(t *testing.T) {
	storage := &fakeStorage{failures: 2}
	s := New(slogdiscard.NewDiscardLogger(), storage, "demo", time.Hour, fastPolicy)
	defer s.Close(context.Background())

	s.Schedule(stateAt(1))
	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, 3, storage.calls)
	assert.False(t, s.Status().Failed())
}

func TestFailureStatus(t *testing.T) {
	storage := &fakeStorage{failures: -1}
	s := New(slogdiscard.NewDiscardLogger(), storage, "demo", time.Hour, fastPolicy)
	defer s.Close(context.Background())

	s.Schedule(stateAt(1))
	err := s.Flush(context.Background())
	require.ErrorIs(t, err, retry.ErrExhausted)

	st := s.Status()
	assert.True(t, st.Failed())
	assert.Contains(t, st.Error, "disk full")

	s.Dismiss()
	assert.False(t, s.Status().Failed())

	storage.mu.Lock()
	storage.failures = 0
	storage.mu.Unlock()

	s.Schedule(stateAt(2))
	require.NoError(t, s.Flush(context.Background()))
	assert.Empty(t, s.Status().Error)
}

func TestCloseFlushesPending(t *testing.T) {
	storage := &fakeStorage{}
	s := New(slogdiscard.NewDiscardLogger(), storage, "demo", time.Hour, fastPolicy)

	s.Schedule(stateAt(3))
	require.NoError(t, s.Close(context.Background()))
	require.Len(t, storage.saved(), 1)

	s.Schedule(stateAt(4))
	require.NoError(t, s.Close(context.Background()))
	assert.Len(t, storage.saved(), 1)
}
