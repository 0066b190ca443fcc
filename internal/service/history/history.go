// Package history keeps a bounded stack of undo snapshots.
package history

import (
	"sync"

	"github.com/GintGld/kshana-timeline/internal/models"
)

// DefaultCapacity is the number of undo steps kept per project.
const DefaultCapacity = 100

// History is a bounded LIFO of snapshots; when full the oldest
// entry is evicted.
type History struct {
	mu       sync.Mutex
	capacity int
	stack    []models.UndoSnapshot
}

func New(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &History{
		capacity: capacity,
		stack:    make([]models.UndoSnapshot, 0, capacity),
	}
}

// Push stores a deep copy of snap unless it equals the top of the
// stack. It reports whether the snapshot was stored.
func (h *History) Push(snap models.UndoSnapshot) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n := len(h.stack); n > 0 && h.stack[n-1].Equal(snap) {
		return false
	}

	if len(h.stack) == h.capacity {
		copy(h.stack, h.stack[1:])
		h.stack = h.stack[:len(h.stack)-1]
	}
	h.stack = append(h.stack, snap.Clone())

	return true
}

// Pop removes and returns the most recent snapshot.
func (h *History) Pop() (models.UndoSnapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := len(h.stack)
	if n == 0 {
		return models.UndoSnapshot{}, false
	}

	snap := h.stack[n-1]
	h.stack[n-1] = models.UndoSnapshot{}
	h.stack = h.stack[:n-1]

	return snap, true
}

// Peek returns a copy of the most recent snapshot without removing it.
func (h *History) Peek() (models.UndoSnapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := len(h.stack)
	if n == 0 {
		return models.UndoSnapshot{}, false
	}
	return h.stack[n-1].Clone(), true
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.stack)
}

func (h *History) Capacity() int {
	return h.capacity
}

// Clear drops every snapshot, used when a project is reloaded.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.stack = h.stack[:0]
}
