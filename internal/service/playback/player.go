// Package playback advances the playhead on a fixed interval.
package playback

import (
	"log/slog"
	"sync"
	"time"
)

const DefaultTick = 50 * time.Millisecond

type Player struct {
	log  *slog.Logger
	tick time.Duration

	mu       sync.Mutex
	position float64
	duration float64
	playing  bool
	last     time.Time
	stop     chan struct{}
	wg       sync.WaitGroup
}

func New(log *slog.Logger, tick time.Duration) *Player {
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Player{
		log:  log,
		tick: tick,
	}
}

// Play starts the playhead. Playing from the end restarts at zero.
func (p *Player) Play() {
	const op = "Player.Play"

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.playing {
		return
	}
	if p.duration > 0 && p.position >= p.duration {
		p.position = 0
	}

	p.playing = true
	p.last = time.Now()
	p.stop = make(chan struct{})

	p.log.Debug("play", slog.String("op", op), slog.Float64("position", p.position))

	p.wg.Add(1)
	go p.loop(p.stop)
}

func (p *Player) loop(stop <-chan struct{}) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			if !p.advance(now) {
				return
			}
		}
	}
}

func (p *Player) advance(now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.playing {
		return false
	}

	p.position += now.Sub(p.last).Seconds()
	p.last = now

	if p.duration > 0 && p.position >= p.duration {
		p.position = p.duration
		p.playing = false
		close(p.stop)
		return false
	}

	return true
}

// Pause stops the playhead and reports whether it was playing.
func (p *Player) Pause() bool {
	p.mu.Lock()
	if !p.playing {
		p.mu.Unlock()
		return false
	}
	p.position += time.Since(p.last).Seconds()
	if p.duration > 0 && p.position > p.duration {
		p.position = p.duration
	}
	p.playing = false
	close(p.stop)
	p.mu.Unlock()

	p.wg.Wait()

	return true
}

// Seek moves the playhead, clamped to the duration.
func (p *Player) Seek(position float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.position = p.clamp(position)
	p.last = time.Now()
}

// SetDuration sets the end of playback.
func (p *Player) SetDuration(d float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.duration = d
	p.position = p.clamp(p.position)
}

func (p *Player) clamp(pos float64) float64 {
	if pos < 0 {
		return 0
	}
	if p.duration > 0 && pos > p.duration {
		return p.duration
	}
	return pos
}

func (p *Player) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.position
}

func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.playing
}

// Close stops playback.
func (p *Player) Close() {
	p.Pause()
}
