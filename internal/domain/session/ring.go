package session

import (
	model "github.com/okian/touchline/internal/domain/model"
)

// insightBufferCap bounds how many recent insights a session retains.
const insightBufferCap = 50

// ring is a fixed-capacity FIFO over the most recent insights. Appending
// at capacity evicts the oldest entry. The owning session serializes
// access.
type ring struct {
	buf  []model.CoachingInsight
	head int // index of the oldest entry
	size int
}

func newRing() *ring {
	return &ring{buf: make([]model.CoachingInsight, insightBufferCap)}
}

// append adds an insight, reporting whether an older entry was evicted to
// make room.
func (r *ring) append(ins model.CoachingInsight) bool {
	if r.size < len(r.buf) {
		r.buf[(r.head+r.size)%len(r.buf)] = ins
		r.size++
		return false
	}
	r.buf[r.head] = ins
	r.head = (r.head + 1) % len(r.buf)
	return true
}

// items returns the buffered insights oldest first.
func (r *ring) items() []model.CoachingInsight {
	if r.size == 0 {
		return nil
	}
	out := make([]model.CoachingInsight, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}
