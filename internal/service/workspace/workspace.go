// Package workspace is the engine instance of one open project. It owns
// the timeline state, the edit history, in-flight gestures, playback,
// media path resolution and background persistence.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/GintGld/kshana-timeline/internal/lib/logger/sl"
	"github.com/GintGld/kshana-timeline/internal/lib/retry"
	chans "github.com/GintGld/kshana-timeline/internal/lib/utils/channels"
	"github.com/GintGld/kshana-timeline/internal/models"
	"github.com/GintGld/kshana-timeline/internal/service"
	"github.com/GintGld/kshana-timeline/internal/service/history"
	"github.com/GintGld/kshana-timeline/internal/service/markers"
	"github.com/GintGld/kshana-timeline/internal/service/pathresolve"
	"github.com/GintGld/kshana-timeline/internal/service/persist"
	"github.com/GintGld/kshana-timeline/internal/service/playback"
	"github.com/GintGld/kshana-timeline/internal/service/resolve"
	"github.com/GintGld/kshana-timeline/internal/service/schema"
	"github.com/GintGld/kshana-timeline/internal/service/source"
	"github.com/GintGld/kshana-timeline/internal/storage"
)

const LockFile = ".timeline.lock"

type Config struct {
	MinDuration      float64
	MinImageDuration float64
	UndoCapacity     int
	PlaybackTick     time.Duration
	WatchSettle      time.Duration
	Resolver         retry.Policy
	Persist          retry.Policy
	Debounce         time.Duration
}

// DefaultConfig mirrors the configuration file defaults.
var DefaultConfig = Config{
	MinDuration:      resolve.DefaultMinDuration,
	MinImageDuration: 1,
	UndoCapacity:     history.DefaultCapacity,
	PlaybackTick:     playback.DefaultTick,
	WatchSettle:      source.DefaultSettle,
	Resolver:         retry.Default,
	Persist:          retry.Default,
	Debounce:         persist.DefaultDebounce,
}

// Source reads the project directory.
type Source interface {
	Dir() string
	Placements(ctx context.Context) (source.Placements, error)
	Manifest(ctx context.Context) ([]models.Asset, error)
	ImportFile(ctx context.Context, path string) (source.Imported, error)
	Watch(ctx context.Context, settle time.Duration) (<-chan struct{}, error)
}

type StateStorage interface {
	persist.StateStorage
	State(ctx context.Context, project string) ([]byte, error)
}

type Workspace struct {
	log       *slog.Logger
	cfg       Config
	project   string
	src       Source
	messenger markers.Messenger
	lock      *flock.Flock

	player   *playback.Player
	resolver *pathresolve.Resolver
	saver    *persist.Saver

	mu           sync.Mutex
	state        models.TimelineState
	placements   source.Placements
	assets       []models.Asset
	history      *history.History
	interactions map[string]*interaction
	version      uint64
	closed       bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Open locks the project directory, loads placements, the manifest and
// the stored state, and starts watching the directory.
func Open(
	ctx context.Context,
	log *slog.Logger,
	cfg Config,
	project string,
	src Source,
	stateStorage StateStorage,
	messenger markers.Messenger,
) (*Workspace, error) {
	const op = "Workspace.Open"

	log = log.With(slog.String("project", project))
	opLog := log.With(slog.String("op", op))

	lock := flock.New(filepath.Join(src.Dir(), LockFile))
	locked, err := lock.TryLock()
	if err != nil {
		opLog.Error("failed to lock project", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !locked {
		opLog.Warn("project is locked")
		return nil, fmt.Errorf("%s: %w", op, service.ErrProjectLocked)
	}

	w := &Workspace{
		log:          log,
		cfg:          cfg,
		project:      project,
		src:          src,
		messenger:    messenger,
		lock:         lock,
		history:      history.New(cfg.UndoCapacity),
		interactions: make(map[string]*interaction),
	}

	fail := func(err error) (*Workspace, error) {
		_ = lock.Unlock()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if w.placements, err = src.Placements(ctx); err != nil {
		opLog.Error("failed to load placements", sl.Err(err))
		return fail(err)
	}
	if w.assets, err = src.Manifest(ctx); err != nil {
		opLog.Error("failed to load manifest", sl.Err(err))
		return fail(err)
	}
	if w.state, err = loadState(ctx, opLog, stateStorage, project); err != nil {
		return fail(err)
	}

	updates := make(chan struct{}, 1)
	w.player = playback.New(log, cfg.PlaybackTick)
	w.resolver = pathresolve.New(log, src.Dir(), cfg.Resolver, nil, updates)
	w.saver = persist.New(log, stateStorage, project, cfg.Debounce, cfg.Persist)

	w.player.SetDuration(w.durationLocked())
	w.player.Seek(w.state.PlayheadSeconds)
	w.resolver.Sync(w.itemsLocked())

	runCtx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	changes, err := src.Watch(runCtx, cfg.WatchSettle)
	if err != nil {
		// Editing still works without live manifest refresh.
		opLog.Warn("project directory is not watched", sl.Err(err))
	}

	w.wg.Add(1)
	go w.loop(runCtx, changes, updates)

	opLog.Info(
		"project opened",
		slog.Int("placements", len(w.placements.Items)),
		slog.Int("assets", len(w.assets)),
	)

	return w, nil
}

func loadState(ctx context.Context, log *slog.Logger, stateStorage StateStorage, project string) (models.TimelineState, error) {
	data, err := stateStorage.State(ctx, project)
	if err != nil {
		if errors.Is(err, storage.ErrStateNotFound) {
			log.Info("no stored state, starting empty")
			return schema.Normalize(schema.Document{}), nil
		}
		log.Error("failed to load state", sl.Err(err))
		return models.TimelineState{}, err
	}

	doc, anomalies, err := schema.Parse(data)
	if err != nil {
		log.Warn("stored state is unreadable, starting empty", sl.Err(err))
		return schema.Normalize(schema.Document{}), nil
	}
	if len(anomalies) > 0 {
		log.Warn("stored state has malformed fields", slog.Any("fields", anomalies))
	}
	if doc.SchemaVersion != models.SchemaV2 {
		log.Info("upgrading stored state", slog.String("from", doc.SchemaVersion))
	}

	return schema.Normalize(doc), nil
}

func (w *Workspace) loop(ctx context.Context, changes <-chan struct{}, updates <-chan struct{}) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-changes:
			if err := w.Reload(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.log.Warn("failed to reload project files", sl.Err(err))
			}
		case <-updates:
			chans.Drain(updates)
			w.mu.Lock()
			w.version++
			w.mu.Unlock()
		}
	}
}

// Reload re-reads placements and the manifest.
func (w *Workspace) Reload(ctx context.Context) error {
	const op = "Workspace.Reload"

	log := w.log.With(slog.String("op", op))

	placements, err := w.src.Placements(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	assets, err := w.src.Manifest(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.placements = placements
	w.assets = assets
	w.refreshLocked()

	log.Info("project files reloaded", slog.Int("placements", len(placements.Items)), slog.Int("assets", len(assets)))

	return nil
}

// Close stops background work, writes the final state and unlocks the
// project.
func (w *Workspace) Close(ctx context.Context) error {
	const op = "Workspace.Close"

	log := w.log.With(slog.String("op", op))

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	w.cancel()
	w.wg.Wait()
	w.player.Close()
	w.resolver.Close()

	w.mu.Lock()
	w.saver.Schedule(w.persistedLocked())
	w.mu.Unlock()

	var errs []error
	if err := w.saver.Close(ctx); err != nil {
		log.Error("failed to save state on close", sl.Err(err))
		errs = append(errs, err)
	}
	if err := w.lock.Unlock(); err != nil {
		log.Error("failed to unlock project", sl.Err(err))
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s: %w", op, errors.Join(errs...))
	}

	log.Info("project closed")

	return nil
}

// View is everything a client renders.
type View struct {
	Project        string                `json:"project"`
	Version        uint64                `json:"version"`
	Duration       float64               `json:"duration"`
	Playhead       float64               `json:"playhead"`
	Playing        bool                  `json:"playing"`
	ZoomLevel      float64               `json:"zoomLevel"`
	Items          []models.TimelineItem `json:"items"`
	Markers        []models.Marker       `json:"markers"`
	ActiveVersions models.ActiveVersions `json:"activeVersions"`
	ImportedClips  []models.ImportedClip `json:"importedClips"`
	Tracks         []schema.LegacyTrack  `json:"tracks"`
	UndoDepth      int                   `json:"undoDepth"`
	Save           persist.Status        `json:"save"`
}

func (w *Workspace) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := w.state.Clone()

	return View{
		Project:        w.project,
		Version:        w.version,
		Duration:       w.durationLocked(),
		Playhead:       w.player.Position(),
		Playing:        w.player.Playing(),
		ZoomLevel:      s.ZoomLevel,
		Items:          w.resolver.Decorate(w.itemsLocked()),
		Markers:        s.Markers,
		ActiveVersions: s.ActiveVersions,
		ImportedClips:  s.ImportedClips,
		Tracks:         schema.ToLegacyShape(s.Tracks),
		UndoDepth:      w.history.Len(),
		Save:           w.saver.Status(),
	}
}

// Items returns the resolved, edited timeline with media paths.
func (w *Workspace) Items() []models.TimelineItem {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.resolver.Decorate(w.itemsLocked())
}

// State returns a copy of the current timeline state.
func (w *Workspace) State() models.TimelineState {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.persistedLocked()
}

func (w *Workspace) Duration() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.durationLocked()
}

func (w *Workspace) Placements() []models.Placement {
	w.mu.Lock()
	defer w.mu.Unlock()

	return append([]models.Placement(nil), w.placements.Items...)
}

func (w *Workspace) Assets() []models.Asset {
	w.mu.Lock()
	defer w.mu.Unlock()

	return append([]models.Asset(nil), w.assets...)
}

func (w *Workspace) Version() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.version
}

func (w *Workspace) SaveStatus() persist.Status {
	return w.saver.Status()
}

func (w *Workspace) DismissSaveError() {
	w.saver.Dismiss()

	w.mu.Lock()
	w.version++
	w.mu.Unlock()
}

// Flush writes the current state now.
func (w *Workspace) Flush(ctx context.Context) error {
	w.mu.Lock()
	w.saver.Schedule(w.persistedLocked())
	w.mu.Unlock()

	return w.saver.Flush(ctx)
}

func (w *Workspace) itemsLocked() []models.TimelineItem {
	return resolve.ResolveEdited(
		w.placements.Items,
		w.assets,
		w.state.ActiveVersions,
		w.durationLocked(),
		resolve.Edits{
			ImageOverrides:       w.state.ImageOverrides,
			InfographicOverrides: w.state.InfographicOverrides,
			VideoSplits:          w.state.VideoSplitOverrides,
		},
	)
}

// contentEnd is where placement-derived content ends.
func (w *Workspace) contentEnd() float64 {
	return resolve.ProjectDuration(w.placements.Items, w.placements.TranscriptDuration, 0)
}

func (w *Workspace) clipsEnd() float64 {
	end := 0.0
	for _, c := range w.state.ImportedClips {
		end = max(end, c.EndTimeSeconds())
	}
	return end
}

func (w *Workspace) durationLocked() float64 {
	d := resolve.ProjectDuration(w.placements.Items, w.placements.TranscriptDuration, w.cfg.MinDuration)
	return max(d, w.clipsEnd())
}

func (w *Workspace) persistedLocked() models.TimelineState {
	s := w.state.Clone()
	s.PlayheadSeconds = w.player.Position()
	return s
}

// refreshLocked propagates a state change: media resolution follows
// the new items, playback the new duration, and the state is queued
// for saving.
func (w *Workspace) refreshLocked() {
	w.version++
	w.player.SetDuration(w.durationLocked())
	w.resolver.Sync(w.itemsLocked())
	w.saver.Schedule(w.persistedLocked())
}
