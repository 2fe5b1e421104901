package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/playperu/brainlab/internal/brainlab"
	"github.com/playperu/brainlab/internal/catalog"
	"github.com/playperu/brainlab/internal/session"
	"github.com/playperu/brainlab/internal/tuning"
)

var ErrNotFound = errors.New("not found")

// EntitySource supplies the catalog snapshot a new session is built from.
type EntitySource interface {
	List(ctx context.Context) ([]catalog.Doc, error)
}

type entry struct {
	mu       sync.Mutex
	sess     *session.Session
	lastSeen atomic.Int64
	unsub    func()
}

// Sessions holds the live in-memory sessions. Each session is mutated under
// its own mutex; the map lock is never held while a session runs.
type Sessions struct {
	src    EntitySource
	tuning tuning.Tuning
	idle   time.Duration
	broker *Broker
	logger *slog.Logger

	now     func() time.Time
	newRand func() brainlab.Rand

	mu      sync.RWMutex
	entries map[string]*entry
}

func NewSessions(src EntitySource, tn tuning.Tuning, idle time.Duration, logger *slog.Logger) *Sessions {
	return &Sessions{
		src:     src,
		tuning:  tn,
		idle:    idle,
		broker:  NewBroker(),
		logger:  logger,
		now:     time.Now,
		newRand: func() brainlab.Rand { return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) },
		entries: make(map[string]*entry),
	}
}

// Create builds a session over the current catalog and publishes its
// notifications on the broker.
func (s *Sessions) Create(ctx context.Context) (session.Snapshot, error) {
	docs, err := s.src.List(ctx)
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("loading catalog: %w", err)
	}

	sess := session.New(catalog.Expand(docs), s.tuning, s.newRand(), s.logger)
	e := &entry{sess: sess}
	e.lastSeen.Store(s.now().UnixNano())
	e.unsub = sess.Subscribe(func(ev session.Event) {
		s.broker.Publish(sess.ID, ev)
	})

	s.mu.Lock()
	s.entries[sess.ID] = e
	s.mu.Unlock()

	s.logger.Info("session created", "session", sess.ID, "entities", len(docs))
	return sess.Snapshot(), nil
}

// With runs fn with exclusive access to the session. A panic inside fn is
// returned as an error.
func (s *Sessions) With(id string, fn func(*session.Session) error) (err error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("session %s: panic: %v", id, r)
		}
	}()
	e.lastSeen.Store(s.now().UnixNano())
	return fn(e.sess)
}

func (s *Sessions) Delete(id string) error {
	s.mu.Lock()
	e, ok := s.entries[id]
	delete(s.entries, id)
	s.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	s.release(id, e)
	s.logger.Info("session deleted", "session", id)
	return nil
}

func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Reap drops sessions idle for longer than the idle timeout and returns how
// many were removed.
func (s *Sessions) Reap() int {
	cutoff := s.now().Add(-s.idle).UnixNano()

	s.mu.Lock()
	stale := make(map[string]*entry)
	for id, e := range s.entries {
		if e.lastSeen.Load() < cutoff {
			stale[id] = e
			delete(s.entries, id)
		}
	}
	s.mu.Unlock()

	for id, e := range stale {
		s.release(id, e)
		s.logger.Info("session expired", "session", id)
	}
	return len(stale)
}

// Run reaps idle sessions until ctx is done.
func (s *Sessions) Run(ctx context.Context) error {
	t := time.NewTicker(max(s.idle/4, time.Second))
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			s.Reap()
		}
	}
}

func (s *Sessions) release(id string, e *entry) {
	e.mu.Lock()
	e.unsub()
	e.mu.Unlock()
	s.broker.Close(id)
}
