// Package timers schedules callbacks against logical frame time.
package timers

import (
	"sort"
	"time"
)

type ID uint64

type entry struct {
	id  ID
	due time.Duration
	fn  func()
}

// Queue holds deferred callbacks. It is not safe for concurrent use; the
// owner advances it from its single frame loop.
type Queue struct {
	now     time.Duration
	nextID  ID
	pending []entry
}

// Now returns the logical time the queue has been advanced to.
func (q *Queue) Now() time.Duration { return q.now }

// After schedules fn to run once delay has elapsed. Negative delays count as zero.
func (q *Queue) After(delay time.Duration, fn func()) ID {
	if delay < 0 {
		delay = 0
	}
	q.nextID++
	e := entry{id: q.nextID, due: q.now + delay, fn: fn}

	// Keep pending sorted by due time, ties in scheduling order.
	i := sort.Search(len(q.pending), func(i int) bool { return q.pending[i].due > e.due })
	q.pending = append(q.pending, entry{})
	copy(q.pending[i+1:], q.pending[i:])
	q.pending[i] = e
	return e.id
}

// Cancel drops a pending callback. It reports whether one was removed.
func (q *Queue) Cancel(id ID) bool {
	for i, e := range q.pending {
		if e.id == id {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return true
		}
	}
	return false
}

// Advance moves logical time forward by d and runs every callback that has
// become due, in order. Callbacks may schedule further callbacks; those run in
// the same call when they fall due within it.
func (q *Queue) Advance(d time.Duration) {
	if d < 0 {
		return
	}
	target := q.now + d
	for len(q.pending) > 0 && q.pending[0].due <= target {
		e := q.pending[0]
		q.pending = q.pending[1:]
		if e.due > q.now {
			q.now = e.due
		}
		e.fn()
	}
	q.now = target
}

func (q *Queue) Len() int { return len(q.pending) }

// Seconds converts a frame delta in seconds to a Duration.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
