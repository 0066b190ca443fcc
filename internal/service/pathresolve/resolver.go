// Package pathresolve resolves item media references to files on disk
// in the background, with bounded retry and per-item abort.
package pathresolve

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/GintGld/kshana-timeline/internal/lib/logger/sl"
	"github.com/GintGld/kshana-timeline/internal/lib/retry"
	chans "github.com/GintGld/kshana-timeline/internal/lib/utils/channels"
	"github.com/GintGld/kshana-timeline/internal/models"
)

var errNotRegular = errors.New("not a regular file")

// StatFunc is os.Stat in production.
type StatFunc func(name string) (fs.FileInfo, error)

// Result is the outcome of resolving one item.
type Result struct {
	ItemID string
	Ref    string
	Path   string
	Status models.MediaStatus
}

type job struct {
	ref    string
	cancel context.CancelFunc
}

type Resolver struct {
	log    *slog.Logger
	root   string
	policy retry.Policy
	stat   StatFunc

	updates chan<- struct{}

	mu       sync.Mutex
	wg       sync.WaitGroup
	inflight map[string]*job
	results  map[string]Result
	closed   bool
}

// New creates a resolver of references relative to root. A receive on
// updates follows every finished resolution; updates may be nil.
func New(
	log *slog.Logger,
	root string,
	policy retry.Policy,
	stat StatFunc,
	updates chan<- struct{},
) *Resolver {
	if stat == nil {
		stat = os.Stat
	}
	return &Resolver{
		log:      log,
		root:     root,
		policy:   policy,
		stat:     stat,
		updates:  updates,
		inflight: make(map[string]*job),
		results:  make(map[string]Result),
	}
}

// Resolve starts resolving ref for itemID. A resolution already running
// or finished for the same ref is kept; one for another ref is aborted.
func (r *Resolver) Resolve(itemID, ref string) {
	const op = "Resolver.Resolve"

	log := r.log.With(
		slog.String("op", op),
		slog.String("item", itemID),
	)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	if j, ok := r.inflight[itemID]; ok {
		if j.ref == ref {
			return
		}
		j.cancel()
		delete(r.inflight, itemID)
	}
	if res, ok := r.results[itemID]; ok && res.Ref == ref {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	j := &job{ref: ref, cancel: cancel}
	r.inflight[itemID] = j
	r.results[itemID] = Result{ItemID: itemID, Ref: ref, Status: models.MediaPending}

	log.Debug("resolving", slog.String("ref", ref))

	r.wg.Add(1)
	go r.run(ctx, itemID, j)
}

func (r *Resolver) run(ctx context.Context, itemID string, j *job) {
	const op = "Resolver.run"

	defer r.wg.Done()

	log := r.log.With(
		slog.String("op", op),
		slog.String("item", itemID),
	)

	var path string
	err := retry.Do(ctx, r.policy, func(ctx context.Context, attempt int) error {
		p, err := r.lookup(j.ref)
		if err != nil {
			log.Debug("attempt failed", slog.Int("attempt", attempt), sl.Err(err))
			return err
		}
		path = p
		return nil
	})

	r.mu.Lock()
	defer r.mu.Unlock()

	// Superseded or aborted while running.
	if r.inflight[itemID] != j {
		return
	}
	delete(r.inflight, itemID)
	j.cancel()

	res := Result{ItemID: itemID, Ref: j.ref, Path: path, Status: models.MediaResolved}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			delete(r.results, itemID)
			return
		}
		log.Warn("media unresolved", slog.String("ref", j.ref), sl.Err(err))
		res = Result{ItemID: itemID, Ref: j.ref, Status: models.MediaUnresolved}
	}
	r.results[itemID] = res

	chans.Notify(r.updates)
}

func (r *Resolver) lookup(ref string) (string, error) {
	const op = "Resolver.lookup"

	path := ref
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.root, filepath.FromSlash(ref))
	}

	info, err := r.stat(path)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%s: %w", op, errNotRegular)
	}

	return path, nil
}

// Abort cancels the resolution of itemID and forgets its result.
func (r *Resolver) Abort(itemID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.abort(itemID)
}

func (r *Resolver) abort(itemID string) {
	if j, ok := r.inflight[itemID]; ok {
		j.cancel()
		delete(r.inflight, itemID)
	}
	delete(r.results, itemID)
}

// Sync resolves the media of every item and aborts resolutions of
// items no longer present or no longer carrying media.
func (r *Resolver) Sync(items []models.TimelineItem) {
	want := make(map[string]string, len(items))
	for _, it := range items {
		if ref := it.MediaRef(); ref != "" {
			want[it.ID] = ref
		}
	}

	r.mu.Lock()
	for id := range r.results {
		if _, ok := want[id]; !ok {
			r.abort(id)
		}
	}
	r.mu.Unlock()

	for id, ref := range want {
		r.Resolve(id, ref)
	}
}

// Result returns what is known about itemID.
func (r *Resolver) Result(itemID string) (Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, ok := r.results[itemID]
	return res, ok
}

// Decorate fills MediaPath and MediaStatus of items whose reference
// matches a known result.
func (r *Resolver) Decorate(items []models.TimelineItem) []models.TimelineItem {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.TimelineItem, len(items))
	for i, it := range items {
		out[i] = it
		ref := it.MediaRef()
		if ref == "" {
			continue
		}
		res, ok := r.results[it.ID]
		if !ok || res.Ref != ref {
			out[i].MediaStatus = models.MediaPending
			continue
		}
		out[i].MediaPath = res.Path
		out[i].MediaStatus = res.Status
	}

	return out
}

// Pending returns the number of resolutions in flight.
func (r *Resolver) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.inflight)
}

// Close aborts everything in flight and waits for the workers.
func (r *Resolver) Close() {
	r.mu.Lock()
	r.closed = true
	for id, j := range r.inflight {
		j.cancel()
		delete(r.inflight, id)
	}
	r.mu.Unlock()

	r.wg.Wait()
}
