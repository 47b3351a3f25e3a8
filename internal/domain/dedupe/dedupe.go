// Package dedupe defines the interface for match-event idempotency tracking.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records seen match-event IDs so retried feed submissions are
// processed at most once.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an ID from the seen set, allowing it to be retried.
	// Used when an event was recorded but processing failed afterwards
	// (e.g., the target session did not exist).
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// slotNone marks ids tracked without a window slot (unbounded mode).
const slotNone = -1

// defaultMaxSize bounds the window when no option overrides it.
const defaultMaxSize = 50000

// inMemoryDeduper tracks event ids in a map. In bounded mode a circular
// window of the last maxSize recorded ids backs the map; when the window
// wraps, the id falling out of it is forgotten, so eviction is oldest-first.
// Unrecord leaves its window slot stale; the slot check on eviction keeps a
// stale slot from forgetting an id that was recorded again later.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]int // id -> window slot, or slotNone when unbounded
	window  []string
	cursor  int
	maxSize int // 0 or negative means unbounded
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
	}

	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[string]int)
	if d.maxSize > 0 {
		d.window = make([]string, d.maxSize)
	}

	return d
}

// SeenAndRecord atomically checks if id was seen and records it if not.
// Returns true if id was already seen, false if it was newly recorded.
func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		return true
	}

	if d.maxSize > 0 {
		// Reclaim the slot being overwritten. The slot check skips entries
		// left stale by Unrecord or by a later re-record of the same id.
		if old := d.window[d.cursor]; old != "" {
			if slot, ok := d.seen[old]; ok && slot == d.cursor {
				delete(d.seen, old)
				d.size.Add(-1)
			}
		}
		d.window[d.cursor] = id
		d.seen[id] = d.cursor
		d.cursor = (d.cursor + 1) % d.maxSize
	} else {
		d.seen[id] = slotNone
	}
	d.size.Add(1)
	return false
}

// Unrecord removes an ID from the seen set, allowing it to be retried.
func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	slot, exists := d.seen[id]
	if !exists {
		return
	}
	delete(d.seen, id)
	if slot != slotNone && d.window[slot] == id {
		d.window[slot] = ""
	}
	d.size.Add(-1)
}

// Size returns the current number of tracked ids.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
