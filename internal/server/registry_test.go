package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/playperu/brainlab/internal/session"
)

func TestSessionsReapIdle(t *testing.T) {
	_, deps := setupTestStore(t)
	sessions := deps.Sessions

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	sessions.now = func() time.Time { return now }

	stale, err := sessions.Create(context.Background())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	now = now.Add(20 * time.Minute)
	fresh, err := sessions.Create(context.Background())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	ch := sessions.broker.Subscribe(stale.ID)

	now = now.Add(15 * time.Minute)
	if n := sessions.Reap(); n != 1 {
		t.Fatalf("reaped %d, want 1", n)
	}

	if _, ok := <-ch; ok {
		t.Error("stream of reaped session still open")
	}
	if err := sessions.With(stale.ID, func(*session.Session) error { return nil }); !errors.Is(err, ErrNotFound) {
		t.Errorf("stale session: %v, want ErrNotFound", err)
	}
	if err := sessions.With(fresh.ID, func(*session.Session) error { return nil }); err != nil {
		t.Errorf("fresh session: %v", err)
	}
}

func TestSessionsWithRefreshesIdle(t *testing.T) {
	_, deps := setupTestStore(t)
	sessions := deps.Sessions

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	sessions.now = func() time.Time { return now }

	snap, _ := sessions.Create(context.Background())
	for range 3 {
		now = now.Add(20 * time.Minute)
		if err := sessions.With(snap.ID, func(s *session.Session) error {
			s.Tick(1.0 / 60)
			return nil
		}); err != nil {
			t.Fatalf("with: %v", err)
		}
		if n := sessions.Reap(); n != 0 {
			t.Fatalf("reaped an active session")
		}
	}
}

func TestSessionsPublishEvents(t *testing.T) {
	_, deps := setupTestStore(t)
	sessions := deps.Sessions

	snap, _ := sessions.Create(context.Background())
	ch := sessions.broker.Subscribe(snap.ID)
	defer sessions.broker.Unsubscribe(snap.ID, ch)

	sessions.With(snap.ID, func(s *session.Session) error {
		return s.Quiz.StartGame()
	})

	select {
	case msg := <-ch:
		if msg.Type != session.EventMode {
			t.Errorf("first event = %q, want mode", msg.Type)
		}
	default:
		t.Fatal("no event published")
	}
}
