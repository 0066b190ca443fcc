// Package persist writes timeline state in the background. Writes are
// debounced and the latest state always wins.
package persist

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/GintGld/kshana-timeline/internal/lib/logger/sl"
	"github.com/GintGld/kshana-timeline/internal/lib/retry"
	"github.com/GintGld/kshana-timeline/internal/models"
	"github.com/GintGld/kshana-timeline/internal/service/schema"
)

const DefaultDebounce = 500 * time.Millisecond

type StateStorage interface {
	SaveState(ctx context.Context, project string, document []byte) error
}

// Status is the outcome of the last save. A failed save stays visible
// until a later save succeeds or the user dismisses it.
type Status struct {
	Error     string    `json:"error,omitempty"`
	FailedAt  time.Time `json:"failedAt,omitempty"`
	SavedAt   time.Time `json:"savedAt,omitempty"`
	Dismissed bool      `json:"dismissed,omitempty"`
}

func (s Status) Failed() bool {
	return s.Error != "" && !s.Dismissed
}

type Saver struct {
	log      *slog.Logger
	storage  StateStorage
	project  string
	debounce time.Duration
	policy   retry.Policy

	mu      sync.Mutex
	pending *models.TimelineState
	seq     uint64
	timer   *time.Timer
	status  Status
	closed  bool

	saveMu sync.Mutex
	saved  uint64

	kick chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
}

func New(
	log *slog.Logger,
	storage StateStorage,
	project string,
	debounce time.Duration,
	policy retry.Policy,
) *Saver {
	s := &Saver{
		log:      log,
		storage:  storage,
		project:  project,
		debounce: debounce,
		policy:   policy,
		kick:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	s.wg.Add(1)
	go s.run()

	return s
}

func (s *Saver) run() {
	defer s.wg.Done()

	for {
		select {
		case <-s.done:
			return
		case <-s.kick:
			ctx, cancel := context.WithTimeout(context.Background(), s.timeout())
			_ = s.Flush(ctx)
			cancel()
		}
	}
}

// Schedule queues state for saving after the debounce interval.
// A state scheduled later replaces any state not yet written.
func (s *Saver) Schedule(state models.TimelineState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	c := state.Clone()
	s.pending = &c
	s.seq++

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		select {
		case s.kick <- struct{}{}:
		default:
		}
	})
}

func (s *Saver) timeout() time.Duration {
	total := 10 * time.Second
	for i := 1; i <= s.policy.MaxAttempts; i++ {
		total += s.policy.Delay(i)
	}
	return total
}

// Flush writes the pending state now, if any.
func (s *Saver) Flush(ctx context.Context) error {
	const op = "Saver.Flush"

	log := s.log.With(
		slog.String("op", op),
		slog.String("project", s.project),
	)

	s.mu.Lock()
	state, seq := s.pending, s.seq
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	if state == nil {
		return nil
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	// A newer state was written meanwhile.
	if seq <= s.saved {
		return nil
	}

	doc, err := schema.Encode(schema.Export(*state))
	if err != nil {
		log.Error("failed to encode state", sl.Err(err))
		s.fail(err)
		return fmt.Errorf("%s: %w", op, err)
	}

	err = retry.Do(ctx, s.policy, func(ctx context.Context, attempt int) error {
		if err := s.storage.SaveState(ctx, s.project, doc); err != nil {
			log.Warn("save attempt failed", slog.Int("attempt", attempt), sl.Err(err))
			return err
		}
		return nil
	})
	if err != nil {
		log.Error("failed to save state", sl.Err(err))
		s.fail(err)
		return fmt.Errorf("%s: %w", op, err)
	}

	s.saved = seq

	s.mu.Lock()
	s.status = Status{SavedAt: time.Now()}
	s.mu.Unlock()

	log.Debug("state saved", slog.Int("bytes", len(doc)))

	return nil
}

func (s *Saver) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status.Error = err.Error()
	s.status.FailedAt = time.Now()
	s.status.Dismissed = false
}

func (s *Saver) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.status
}

// Dismiss hides the current error.
func (s *Saver) Dismiss() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status.Dismissed = true
}

// Close stops the timer and writes whatever is pending.
func (s *Saver) Close(ctx context.Context) error {
	const op = "Saver.Close"

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()

	close(s.done)
	s.wg.Wait()

	if err := s.Flush(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
