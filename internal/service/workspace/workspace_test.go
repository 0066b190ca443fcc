package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GintGld/kshana-timeline/internal/lib/logger/slogdiscard"
	"github.com/GintGld/kshana-timeline/internal/lib/retry"
	"github.com/GintGld/kshana-timeline/internal/models"
	"github.com/GintGld/kshana-timeline/internal/service"
	"github.com/GintGld/kshana-timeline/internal/service/markers"
	"github.com/GintGld/kshana-timeline/internal/service/source"
	"github.com/GintGld/kshana-timeline/internal/storage"
)

var testConfig = Config{
	MinDuration:      10,
	MinImageDuration: 1,
	UndoCapacity:     10,
	PlaybackTick:     5 * time.Millisecond,
	WatchSettle:      10 * time.Millisecond,
	Resolver:         retry.Policy{MaxAttempts: 1, BaseDelay: time.Millisecond},
	Persist:          retry.Policy{MaxAttempts: 1, BaseDelay: time.Millisecond},
	Debounce:         10 * time.Millisecond,
}

// image 1 [0,10], video 2 [10,20], infographic 3 [25,30], 40s of transcript
const testPlacements = `{
	"transcriptDurationSeconds": 40,
	"image": [{"placementNumber": 1, "startTime": "00:00:00", "endTime": "00:00:10", "prompt": "harbour at dawn"}],
	"video": [{"placementNumber": 2, "startTime": "00:00:10", "endTime": "00:00:20", "prompt": "drone over the bay"}],
	"infographic": [{"placementNumber": 3, "startTime": "00:00:25", "endTime": "00:00:30", "prompt": "tonnage by year"}]
}`

type memStorage struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{docs: make(map[string][]byte)}
}

func (m *memStorage) SaveState(_ context.Context, project string, document []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.docs[project] = document
	return nil
}

func (m *memStorage) State(_ context.Context, project string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[project]
	if !ok {
		return nil, storage.ErrStateNotFound
	}
	return doc, nil
}

type fakeMessenger struct {
	mu   sync.Mutex
	err  error
	sent []markers.Request
}

func (f *fakeMessenger) SendMarker(_ context.Context, req markers.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sent = append(f.sent, req)
	return f.err
}

type fakeProber struct{}

func (fakeProber) Duration(context.Context, string) (float64, error) {
	return 7, nil
}

func projectDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, source.PlacementsFile), []byte(testPlacements), 0o644))
	return dir
}

func openWorkspace(t *testing.T, dir string, st *memStorage, msg markers.Messenger) *Workspace {
	t.Helper()

	src := source.New(slogdiscard.NewDiscardLogger(), dir, fakeProber{})
	w, err := Open(context.Background(), slogdiscard.NewDiscardLogger(), testConfig, "harbour", src, st, msg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close(context.Background()) })
	return w
}

func newWorkspace(t *testing.T) *Workspace {
	t.Helper()
	return openWorkspace(t, projectDir(t), newMemStorage(), &fakeMessenger{})
}

type span struct {
	Type  models.ItemType
	Start float64
	End   float64
}

func spans(items []models.TimelineItem) []span {
	res := make([]span, 0, len(items))
	for _, it := range items {
		res = append(res, span{it.Type, it.StartTime, it.EndTime})
	}
	return res
}

func find(t *testing.T, items []models.TimelineItem, typ models.ItemType) models.TimelineItem {
	t.Helper()

	it, ok := itemFor(items, typ, map[models.ItemType]int{
		models.ItemImage:       1,
		models.ItemVideo:       2,
		models.ItemInfographic: 3,
	}[typ])
	require.True(t, ok)
	return it
}

func TestOpen(t *testing.T) {
	w := newWorkspace(t)

	assert.Equal(t, 40.0, w.Duration())
	assert.Equal(t, []span{
		{models.ItemImage, 0, 10},
		{models.ItemVideo, 10, 20},
		{models.ItemPlaceholder, 20, 25},
		{models.ItemInfographic, 25, 30},
		{models.ItemPlaceholder, 30, 40},
	}, spans(w.Items()))

	v := w.View()
	assert.Equal(t, "harbour", v.Project)
	assert.Equal(t, 1.0, v.ZoomLevel)
	assert.Zero(t, v.UndoDepth)
	assert.Empty(t, v.Markers)
}

func TestOpenLocked(t *testing.T) {
	dir := projectDir(t)
	openWorkspace(t, dir, newMemStorage(), &fakeMessenger{})

	src := source.New(slogdiscard.NewDiscardLogger(), dir, nil)
	_, err := Open(context.Background(), slogdiscard.NewDiscardLogger(), testConfig, "harbour", src, newMemStorage(), &fakeMessenger{})
	assert.ErrorIs(t, err, service.ErrProjectLocked)
}

func TestResizeImage(t *testing.T) {
	testCases := []struct {
		desc    string
		end     float64
		wantEnd float64
	}{
		{desc: "trim", end: 6, wantEnd: 6},
		{desc: "shorter than minimum", end: 0.2, wantEnd: 1},
		{desc: "into next item", end: 15, wantEnd: 10},
	}

	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			w := newWorkspace(t)

			_, err := w.ResizeImage(1, tC.end)
			require.NoError(t, err)

			img := find(t, w.Items(), models.ItemImage)
			assert.Equal(t, 0.0, img.StartTime)
			assert.Equal(t, tC.wantEnd, img.EndTime)
		})
	}
}

func TestResizeLeavesPlaceholderAndUndo(t *testing.T) {
	w := newWorkspace(t)

	changed, err := w.ResizeImage(1, 4)
	require.NoError(t, err)
	require.True(t, changed)

	assert.Equal(t, []span{
		{models.ItemImage, 0, 4},
		{models.ItemPlaceholder, 4, 10},
		{models.ItemVideo, 10, 20},
		{models.ItemPlaceholder, 20, 25},
		{models.ItemInfographic, 25, 30},
		{models.ItemPlaceholder, 30, 40},
	}, spans(w.Items()))

	// same edit again is a no-op and records nothing
	changed, err = w.ResizeImage(1, 4)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 1, w.View().UndoDepth)

	require.True(t, w.UndoLastEdit())
	assert.Equal(t, 10.0, find(t, w.Items(), models.ItemImage).EndTime)
	assert.False(t, w.UndoLastEdit())
}

func TestResizeUnknownItem(t *testing.T) {
	w := newWorkspace(t)

	_, err := w.ResizeImage(9, 4)
	assert.ErrorIs(t, err, service.ErrItemNotFound)
}

func TestMoveInfographic(t *testing.T) {
	testCases := []struct {
		desc      string
		start     float64
		wantStart float64
	}{
		{desc: "free space", start: 22, wantStart: 22},
		{desc: "before video end", start: 3, wantStart: 20},
		{desc: "past the end", start: 100, wantStart: 35},
	}

	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			w := newWorkspace(t)

			_, err := w.MoveInfographic(3, tC.start)
			require.NoError(t, err)

			info := find(t, w.Items(), models.ItemInfographic)
			assert.Equal(t, tC.wantStart, info.StartTime)
			assert.Equal(t, 5.0, info.Duration)
		})
	}
}

func TestSplitVideo(t *testing.T) {
	w := newWorkspace(t)

	changed, err := w.SplitVideo(2, 14)
	require.NoError(t, err)
	require.True(t, changed)

	changed, err = w.SplitVideo(2, 17)
	require.NoError(t, err)
	require.True(t, changed)

	assert.Equal(t, []span{
		{models.ItemImage, 0, 10},
		{models.ItemVideo, 10, 14},
		{models.ItemVideo, 14, 17},
		{models.ItemVideo, 17, 20},
		{models.ItemPlaceholder, 20, 25},
		{models.ItemInfographic, 25, 30},
		{models.ItemPlaceholder, 30, 40},
	}, spans(w.Items()))
	assert.Equal(t, []float64{4, 7}, w.State().VideoSplitOverrides[2].SplitOffsetsSeconds)

	// splitting exactly on a boundary changes nothing
	changed, err = w.SplitVideo(2, 14)
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = w.SplitVideo(2, 35)
	assert.ErrorIs(t, err, service.ErrItemNotFound)

	assert.True(t, w.RemoveSplit(2, 7))
	assert.Equal(t, []float64{4}, w.State().VideoSplitOverrides[2].SplitOffsetsSeconds)

	assert.True(t, w.ResetTiming(2))
	assert.Empty(t, w.State().VideoSplitOverrides)

	require.True(t, w.UndoLastEdit())
	require.True(t, w.UndoLastEdit())
	assert.Equal(t, []float64{4, 7}, w.State().VideoSplitOverrides[2].SplitOffsetsSeconds)
}

func TestInteraction(t *testing.T) {
	w := newWorkspace(t)

	id, err := w.BeginInteraction(InteractionResizeImage, Target{PlacementNumber: 1})
	require.NoError(t, err)

	for _, end := range []float64{9, 7, 5} {
		changed, err := w.UpdateInteraction(id, end)
		require.NoError(t, err)
		assert.True(t, changed)
	}
	require.NoError(t, w.EndInteraction(id))

	assert.Equal(t, 5.0, find(t, w.Items(), models.ItemImage).EndTime)
	assert.Equal(t, 1, w.View().UndoDepth)

	require.True(t, w.UndoLastEdit())
	assert.Equal(t, 10.0, find(t, w.Items(), models.ItemImage).EndTime)

	assert.ErrorIs(t, w.EndInteraction(id), service.ErrInteractionNotFound)
	_, err = w.UpdateInteraction(id, 3)
	assert.ErrorIs(t, err, service.ErrInteractionNotFound)
}

func TestInteractionWithoutChange(t *testing.T) {
	w := newWorkspace(t)

	id, err := w.BeginInteraction(InteractionMoveInfographic, Target{PlacementNumber: 3})
	require.NoError(t, err)

	changed, err := w.UpdateInteraction(id, 25)
	require.NoError(t, err)
	assert.True(t, changed, "first move records the override")

	require.NoError(t, w.EndInteraction(id))
	assert.Equal(t, 1, w.View().UndoDepth)

	id, err = w.BeginInteraction(InteractionMoveInfographic, Target{PlacementNumber: 3})
	require.NoError(t, err)
	require.NoError(t, w.EndInteraction(id))
	assert.Equal(t, 1, w.View().UndoDepth)
}

func TestInteractionErrors(t *testing.T) {
	w := newWorkspace(t)

	_, err := w.BeginInteraction("rotate", Target{PlacementNumber: 1})
	assert.ErrorIs(t, err, service.ErrInteractionKind)

	_, err = w.BeginInteraction(InteractionMoveMarker, Target{MarkerID: "missing"})
	assert.ErrorIs(t, err, service.ErrMarkerNotFound)

	_, err = w.BeginInteraction(InteractionResizeImage, Target{PlacementNumber: 3})
	assert.ErrorIs(t, err, service.ErrItemNotFound)
}

func TestInteractionResumesPlayback(t *testing.T) {
	w := newWorkspace(t)

	w.Play()
	require.True(t, w.Playing())

	id, err := w.BeginInteraction(InteractionResizeImage, Target{PlacementNumber: 1})
	require.NoError(t, err)
	assert.False(t, w.Playing())

	require.NoError(t, w.EndInteraction(id))
	assert.True(t, w.Playing())

	w.Pause()
	assert.False(t, w.Playing())
}

func TestCreateMarker(t *testing.T) {
	msg := &fakeMessenger{}
	w := openWorkspace(t, projectDir(t), newMemStorage(), msg)

	prompt := gofakeit.Sentence(5)
	m, err := w.CreateMarker(context.Background(), 12, "  "+prompt+" ")
	require.NoError(t, err)

	assert.Equal(t, prompt, m.Prompt)
	assert.Equal(t, models.MarkerProcessing, m.Status)

	require.Len(t, msg.sent, 1)
	req := msg.sent[0]
	assert.Equal(t, m.ID, req.MarkerID)
	assert.Equal(t, 40.0, req.Context.ProjectDuration)
	require.NotNil(t, req.Context.Item)
	assert.Equal(t, models.ItemVideo, req.Context.Item.Type)
	require.NotNil(t, req.Context.Previous)
	assert.Equal(t, models.ItemImage, req.Context.Previous.Type)

	_, err = w.CreateMarker(context.Background(), 12, "   ")
	assert.ErrorIs(t, err, service.ErrEmptyPrompt)

	_, err = w.CreateMarker(context.Background(), 41, prompt)
	assert.ErrorIs(t, err, service.ErrInvalidPosition)
}

func TestCreateMarkerDeliveryFails(t *testing.T) {
	msg := &fakeMessenger{err: errors.New("connection refused")}
	w := openWorkspace(t, projectDir(t), newMemStorage(), msg)

	m, err := w.CreateMarker(context.Background(), 3, gofakeit.Sentence(3))
	assert.ErrorIs(t, err, service.ErrMessengerFailed)
	assert.Equal(t, models.MarkerError, m.Status)

	require.Len(t, w.Markers(), 1)
	assert.Equal(t, models.MarkerError, w.Markers()[0].Status)
}

func TestMarkerLifecycle(t *testing.T) {
	w := newWorkspace(t)

	m, err := w.CreateMarker(context.Background(), 5, gofakeit.Sentence(4))
	require.NoError(t, err)

	changed, err := w.MoveMarker(m.ID, 8)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = w.MoveMarker(m.ID, 100)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 40.0, w.Markers()[0].Position)

	done, err := w.OnMarkerUpdate(m.ID, models.MarkerComplete, "artifact-7")
	require.NoError(t, err)
	assert.Equal(t, "artifact-7", done.GeneratedArtifactID)

	_, err = w.OnMarkerUpdate(m.ID, models.MarkerProcessing, "")
	assert.ErrorIs(t, err, service.ErrMarkerTerminal)

	// undoing the move keeps the generator's status
	require.True(t, w.UndoLastEdit())
	got := w.Markers()[0]
	assert.Equal(t, 8.0, got.Position)
	assert.Equal(t, models.MarkerComplete, got.Status)
	assert.Equal(t, "artifact-7", got.GeneratedArtifactID)

	require.NoError(t, w.DeleteMarker(m.ID))
	assert.Empty(t, w.Markers())
	assert.ErrorIs(t, w.DeleteMarker(m.ID), service.ErrMarkerNotFound)

	_, err = w.OnMarkerUpdate(m.ID, models.MarkerComplete, "")
	assert.ErrorIs(t, err, service.ErrMarkerNotFound)
}

func TestMoveMarkerInteraction(t *testing.T) {
	w := newWorkspace(t)

	m, err := w.CreateMarker(context.Background(), 5, gofakeit.Sentence(4))
	require.NoError(t, err)
	depth := w.View().UndoDepth

	id, err := w.BeginInteraction(InteractionMoveMarker, Target{MarkerID: m.ID})
	require.NoError(t, err)
	for _, pos := range []float64{6, 7, -3} {
		_, err := w.UpdateInteraction(id, pos)
		require.NoError(t, err)
	}
	require.NoError(t, w.EndInteraction(id))

	assert.Equal(t, 0.0, w.Markers()[0].Position)
	assert.Equal(t, depth+1, w.View().UndoDepth)
}

func TestSelectVersion(t *testing.T) {
	w := newWorkspace(t)

	v := 2
	changed, err := w.SelectVersion(1, models.SlotImage, &v)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = w.SelectVersion(1, models.SlotImage, &v)
	require.NoError(t, err)
	assert.False(t, changed)

	got, ok := w.State().ActiveVersions.Pinned(1, models.SlotImage)
	require.True(t, ok)
	assert.Equal(t, 2, got)

	changed, err = w.SelectVersion(1, models.SlotImage, nil)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Empty(t, w.State().ActiveVersions)

	_, err = w.SelectVersion(1, "audio", &v)
	assert.ErrorIs(t, err, service.ErrUnknownSlot)
}

func TestElements(t *testing.T) {
	w := newWorkspace(t)

	e, err := w.AddElement(ElementSpec{Type: models.ElementText, Preset: models.PresetTitle, Text: "Harbour", StartTime: 2})
	require.NoError(t, err)

	_, err = w.AddElement(ElementSpec{Type: models.ElementShape, Shape: models.ShapeEllipse, StartTime: 1})
	require.NoError(t, err)

	_, err = w.AddElement(ElementSpec{Type: models.ElementClip})
	assert.ErrorIs(t, err, service.ErrUnknownElement)

	tracks := w.View().Tracks
	require.Len(t, tracks, 3)
	assert.True(t, tracks[0].IsMain)

	require.NoError(t, w.RemoveElement(e.ID))
	assert.Error(t, w.RemoveElement(e.ID))
}

func TestImportClip(t *testing.T) {
	dir := projectDir(t)
	w := openWorkspace(t, dir, newMemStorage(), &fakeMessenger{})

	media := filepath.Join(t.TempDir(), "b-roll.mp4")
	require.NoError(t, os.WriteFile(media, []byte("\x00\x00\x00\x18ftypmp42\x00\x00\x00\x00mp42isom"), 0o644))

	clip, err := w.ImportClip(context.Background(), media)
	require.NoError(t, err)

	assert.Equal(t, 40.0, clip.StartTimeSeconds)
	assert.Equal(t, 7.0, clip.DurationSeconds)
	assert.FileExists(t, filepath.Join(dir, filepath.FromSlash(clip.Path)))
	assert.Equal(t, 47.0, w.Duration())

	next, err := w.ImportClip(context.Background(), media)
	require.NoError(t, err)
	assert.Equal(t, 47.0, next.StartTimeSeconds)

	main := w.View().Tracks[0]
	require.Len(t, main.Elements, 2)
	assert.Equal(t, clip.ID, main.Elements[0].ID)

	require.NoError(t, w.RemoveElement(clip.ID))
	require.Len(t, w.State().ImportedClips, 1)
}

func TestPlaybackAndZoom(t *testing.T) {
	w := newWorkspace(t)

	w.Seek(12.5)
	assert.Equal(t, 12.5, w.Playhead())

	w.Seek(-4)
	assert.Equal(t, 0.0, w.Playhead())

	assert.True(t, w.SetZoom(2.5))
	assert.False(t, w.SetZoom(2.5))
	assert.False(t, w.SetZoom(0))
	assert.Equal(t, 2.5, w.View().ZoomLevel)
}

func TestStateSurvivesReopen(t *testing.T) {
	dir := projectDir(t)
	st := newMemStorage()

	w := openWorkspace(t, dir, st, &fakeMessenger{})
	_, err := w.ResizeImage(1, 6)
	require.NoError(t, err)
	_, err = w.CreateMarker(context.Background(), 3, "lighthouse close-up")
	require.NoError(t, err)
	w.Seek(15)
	w.SetZoom(3)
	require.NoError(t, w.Close(context.Background()))
	require.NoError(t, w.Close(context.Background()))

	w = openWorkspace(t, dir, st, &fakeMessenger{})
	s := w.State()

	assert.Equal(t, models.TimingOverride{StartTimeSeconds: 0, EndTimeSeconds: 6}, s.ImageOverrides[1])
	require.Len(t, s.Markers, 1)
	assert.Equal(t, "lighthouse close-up", s.Markers[0].Prompt)
	assert.Equal(t, models.MarkerProcessing, s.Markers[0].Status)
	assert.Equal(t, 15.0, s.PlayheadSeconds)
	assert.Equal(t, 3.0, s.ZoomLevel)
	assert.Zero(t, w.View().UndoDepth)
}

func TestDebouncedSave(t *testing.T) {
	st := newMemStorage()
	w := openWorkspace(t, projectDir(t), st, &fakeMessenger{})

	_, err := w.ResizeImage(1, 6)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, err := st.State(context.Background(), "harbour")
		return err == nil
	}, time.Second, 5*time.Millisecond)
	assert.False(t, w.SaveStatus().Failed())
}

func TestReloadOnManifestChange(t *testing.T) {
	dir := projectDir(t)
	w := openWorkspace(t, dir, newMemStorage(), &fakeMessenger{})

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "assets", "images"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assets", "images", "p1_v1.png"), []byte("png"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, filepath.FromSlash(source.ManifestFile)), []byte(`{"assets": [
		{"id": "a1", "type": "scene_image", "path": "assets/images/p1_v1.png", "version": 1, "placementNumber": 1}
	]}`), 0o644))

	assert.Eventually(t, func() bool {
		img := find(t, w.Items(), models.ItemImage)
		return img.MediaStatus == models.MediaResolved &&
			img.MediaPath == filepath.Join(dir, "assets", "images", "p1_v1.png")
	}, 2*time.Second, 10*time.Millisecond)
}
