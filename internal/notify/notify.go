// Package notify delivers typed notifications to registered listeners.
package notify

import (
	"fmt"
	"log/slog"
)

// List is an ordered set of listeners for values of type T. Delivery is
// synchronous. A listener that panics is logged and skipped; the remaining
// listeners still receive the value.
type List[T any] struct {
	name   string
	logger *slog.Logger
	nextID int
	subs   []sub[T]
}

type sub[T any] struct {
	id int
	fn func(T)
}

func NewList[T any](name string, logger *slog.Logger) *List[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &List[T]{name: name, logger: logger}
}

// Add registers fn and returns a func that removes it.
func (l *List[T]) Add(fn func(T)) (remove func()) {
	l.nextID++
	id := l.nextID
	l.subs = append(l.subs, sub[T]{id: id, fn: fn})
	return func() {
		for i, s := range l.subs {
			if s.id == id {
				l.subs = append(l.subs[:i:i], l.subs[i+1:]...)
				return
			}
		}
	}
}

func (l *List[T]) Emit(v T) {
	for _, s := range append([]sub[T](nil), l.subs...) {
		l.call(s.fn, v)
	}
}

func (l *List[T]) Len() int { return len(l.subs) }

func (l *List[T]) call(fn func(T), v T) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("listener panicked", "event", l.name, "error", fmt.Sprint(r))
		}
	}()
	fn(v)
}
