package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/playperu/brainlab/internal/catalog"
	"github.com/playperu/brainlab/internal/database"
	"github.com/playperu/brainlab/internal/migrations"
	"github.com/playperu/brainlab/internal/session"
	"github.com/playperu/brainlab/internal/tuning"
)

const testPassword = "cortex"

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func setupTestStore(t *testing.T) (*catalog.Store, Deps) {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := migrations.Run(db); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	store := catalog.NewStore(db)
	if err := SeedCatalog(ctx, discardLogger, store, ""); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	return store, Deps{
		DB:        db,
		Catalog:   store,
		Sessions:  NewSessions(store, tuning.Default(), 30*time.Minute, discardLogger),
		AdminHash: string(hash),
	}
}

func testRouter(t *testing.T) (chi.Router, Deps) {
	t.Helper()
	_, deps := setupTestStore(t)
	return newRouter(discardLogger, deps), deps
}

// do sends body (JSON-encoded unless nil) and returns the recorder.
func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encoding body: %v", err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, h http.Handler) session.Snapshot {
	t.Helper()
	w := do(t, h, http.MethodPost, "/api/sessions", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create session: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var snap session.Snapshot
	if err := json.NewDecoder(w.Body).Decode(&snap); err != nil {
		t.Fatalf("decoding snapshot: %v", err)
	}
	return snap
}

func decodeResult(t *testing.T, w *httptest.ResponseRecorder) CommandResult {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var res CommandResult
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	return res
}

func TestHealthz(t *testing.T) {
	r, _ := testRouter(t)

	w := do(t, r, http.MethodGet, "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body map[string]struct{ Status string }
	json.NewDecoder(w.Body).Decode(&body)
	for _, name := range []string{"sqlite", "catalog"} {
		if body[name].Status != "ok" {
			t.Errorf("%s = %q, want ok", name, body[name].Status)
		}
	}
}

func TestHealthzEmptyCatalog(t *testing.T) {
	store, deps := setupTestStore(t)
	for _, d := range catalog.Default() {
		if err := store.Delete(context.Background(), d.Name); err != nil {
			t.Fatalf("delete %s: %v", d.Name, err)
		}
	}
	r := newRouter(discardLogger, deps)

	w := do(t, r, http.MethodGet, "/healthz", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}
