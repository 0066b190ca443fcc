package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/GintGld/kshana-timeline/internal/lib/logger/sl"
	chans "github.com/GintGld/kshana-timeline/internal/lib/utils/channels"
)

// DefaultSettle is how long the watcher waits for writes to a project
// file to stop before reporting it.
const DefaultSettle = 100 * time.Millisecond

// Watch reports changes of the placements file and the asset manifest
// on the returned channel until ctx is done. Bursts of writes within
// settle are reported once.
func (s *Source) Watch(ctx context.Context, settle time.Duration) (<-chan struct{}, error) {
	const op = "Source.Watch"

	log := s.log.With(
		slog.String("op", op),
		slog.String("dir", s.dir),
	)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Error("failed to create watcher", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Writers replace files atomically, so directories are watched.
	manifestDir := filepath.Dir(filepath.Join(s.dir, ManifestFile))
	if err := os.MkdirAll(manifestDir, 0o755); err != nil {
		watcher.Close()
		log.Error("failed to create assets directory", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, dir := range []string{s.dir, manifestDir} {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			log.Error("failed to watch directory", slog.String("watch", dir), sl.Err(err))
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	watched := map[string]bool{
		filepath.Clean(filepath.Join(s.dir, PlacementsFile)): true,
		filepath.Clean(filepath.Join(s.dir, ManifestFile)):   true,
	}

	changes := make(chan struct{}, 1)

	go func() {
		defer watcher.Close()

		var (
			timer *time.Timer
			fire  <-chan time.Time
		)

		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !watched[filepath.Clean(event.Name)] || event.Op == fsnotify.Chmod {
					continue
				}
				log.Debug("project file changed", slog.String("file", event.Name), slog.String("event", event.Op.String()))
				if timer == nil {
					timer = time.NewTimer(settle)
				} else {
					timer.Reset(settle)
				}
				fire = timer.C

			case <-fire:
				fire = nil
				chans.Notify(changes)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("watcher error", sl.Err(err))
			}
		}
	}()

	return changes, nil
}
