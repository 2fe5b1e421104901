package server

import (
	"net/http"
	"strings"
	"testing"

	"github.com/playperu/brainlab/internal/brainlab"
	"github.com/playperu/brainlab/internal/quiz"
)

func TestCreateGetDeleteSession(t *testing.T) {
	r, deps := testRouter(t)

	snap := createSession(t, r)
	if snap.ID == "" {
		t.Fatal("expected a session id")
	}
	if snap.Quiz.Mode != brainlab.ModeFreeExplore {
		t.Errorf("mode = %q, want free_explore", snap.Quiz.Mode)
	}
	if snap.Clock.Playing || snap.Clock.Phase != brainlab.PhaseResting || snap.Clock.Potential != -70 {
		t.Errorf("clock = %+v, want paused resting at -70", snap.Clock)
	}
	if len(snap.Channels) != 6 || len(snap.Pumps) != 2 {
		t.Errorf("got %d channels, %d pumps", len(snap.Channels), len(snap.Pumps))
	}
	if snap.IonsInside.Sodium != 10 || snap.IonsInside.Potassium != 40 {
		t.Errorf("ions inside = %+v, want 10 sodium / 40 potassium", snap.IonsInside)
	}

	path := "/api/sessions/" + snap.ID
	if w := do(t, r, http.MethodGet, path, nil); w.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", w.Code)
	}
	if w := do(t, r, http.MethodDelete, path, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", w.Code)
	}
	if w := do(t, r, http.MethodGet, path, nil); w.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", w.Code)
	}
	if w := do(t, r, http.MethodDelete, path, nil); w.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", w.Code)
	}
	if deps.Sessions.Len() != 0 {
		t.Errorf("sessions = %d, want 0", deps.Sessions.Len())
	}
}

func TestGetBrokenSessionIsServerError(t *testing.T) {
	r, deps := testRouter(t)

	// An entry without a session panics on Snapshot.
	deps.Sessions.mu.Lock()
	deps.Sessions.entries["broken"] = &entry{unsub: func() {}}
	deps.Sessions.mu.Unlock()

	w := do(t, r, http.MethodGet, "/api/sessions/broken", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"error":"internal error"`) {
		t.Errorf("body = %s, want internal error object", w.Body.String())
	}

	// The entry stays usable by other requests after the failure.
	if w := do(t, r, http.MethodDelete, "/api/sessions/broken", nil); w.Code != http.StatusNoContent {
		t.Errorf("delete: expected 204, got %d", w.Code)
	}
}

func TestSimulatorControls(t *testing.T) {
	r, _ := testRouter(t)
	base := "/api/sessions/" + createSession(t, r).ID

	// Time does not pass while paused.
	res := decodeResult(t, do(t, r, http.MethodPost, base+"/tick", DeltaRequest{Delta: 0.25}))
	if res.Snapshot.Clock.Elapsed != 0 {
		t.Errorf("elapsed while paused = %v, want 0", res.Snapshot.Clock.Elapsed)
	}

	res = decodeResult(t, do(t, r, http.MethodPost, base+"/sim/play", nil))
	if !res.Snapshot.Clock.Playing {
		t.Fatal("expected playing after play")
	}

	do(t, r, http.MethodPost, base+"/tick", DeltaRequest{Delta: 0.25})
	res = decodeResult(t, do(t, r, http.MethodPost, base+"/tick", DeltaRequest{Delta: 0.25}))
	if res.Snapshot.Clock.Phase != brainlab.PhaseDepolarizing {
		t.Errorf("phase = %q, want depolarizing", res.Snapshot.Clock.Phase)
	}
	for _, ch := range res.Snapshot.Channels {
		if ch.Species == brainlab.Sodium && ch.State != brainlab.ChannelOpen {
			t.Errorf("%s = %q, want open", ch.ID, ch.State)
		}
	}

	res = decodeResult(t, do(t, r, http.MethodPost, base+"/sim/pause", nil))
	if res.Snapshot.Clock.Playing {
		t.Error("expected paused")
	}

	res = decodeResult(t, do(t, r, http.MethodPost, base+"/sim/step", DeltaRequest{Delta: 0.25}))
	if res.Snapshot.Clock.Elapsed != 0.75 || res.Snapshot.Clock.Playing {
		t.Errorf("after step clock = %+v, want elapsed 0.75 paused", res.Snapshot.Clock)
	}

	res = decodeResult(t, do(t, r, http.MethodPost, base+"/sim/reset", nil))
	c := res.Snapshot.Clock
	if c.Elapsed != 0 || c.Phase != brainlab.PhaseResting || c.Potential != -70 || c.Playing {
		t.Errorf("after reset clock = %+v", c)
	}
	for _, ch := range res.Snapshot.Channels {
		if ch.State != brainlab.ChannelClosed {
			t.Errorf("%s = %q after reset, want closed", ch.ID, ch.State)
		}
	}
}

func TestQuizOverHTTP(t *testing.T) {
	r, _ := testRouter(t)
	base := "/api/sessions/" + createSession(t, r).ID

	res := decodeResult(t, do(t, r, http.MethodPost, base+"/quiz/mode", ModeRequest{Mode: brainlab.ModeLobeID}))
	if res.Snapshot.Quiz.Mode != brainlab.ModeLobeID {
		t.Fatalf("mode = %q, want lobe_id", res.Snapshot.Quiz.Mode)
	}
	// Five distinct lobe names, though nine lobe meshes.
	if n := len(res.Snapshot.Quiz.Queue); n != 5 {
		t.Errorf("queue length = %d, want 5", n)
	}
	target := res.Snapshot.Quiz.Target
	if target == nil || target.Category != brainlab.CategoryLobe {
		t.Fatalf("target = %+v, want a lobe", target)
	}

	res = decodeResult(t, do(t, r, http.MethodPost, base+"/select", SelectRequest{Name: "Thalamus"}))
	if res.Outcome != quiz.Incorrect || res.Snapshot.Quiz.Score != 0 {
		t.Errorf("wrong category: outcome %q score %d, want incorrect 0", res.Outcome, res.Snapshot.Quiz.Score)
	}

	res = decodeResult(t, do(t, r, http.MethodPost, base+"/select", SelectRequest{Name: target.Name}))
	if res.Outcome != quiz.Correct || res.Snapshot.Quiz.Score != 10 {
		t.Errorf("correct: outcome %q score %d, want correct 10", res.Outcome, res.Snapshot.Quiz.Score)
	}
	if n := len(res.Snapshot.Quiz.Queue); n != 4 {
		t.Errorf("queue length = %d, want 4", n)
	}

	res = decodeResult(t, do(t, r, http.MethodPost, base+"/select", SelectRequest{Name: "Pons"}))
	if res.Outcome != quiz.Ignored || res.Snapshot.Quiz.Score != 10 {
		t.Errorf("unknown name: outcome %q score %d, want ignored 10", res.Outcome, res.Snapshot.Quiz.Score)
	}
}

func TestQuizClearsAndAdvancesOnTick(t *testing.T) {
	r, _ := testRouter(t)
	base := "/api/sessions/" + createSession(t, r).ID

	res := decodeResult(t, do(t, r, http.MethodPost, base+"/quiz/mode", ModeRequest{Mode: brainlab.ModeLobeID}))
	for res.Snapshot.Quiz.Target != nil {
		res = decodeResult(t, do(t, r, http.MethodPost, base+"/select", SelectRequest{Name: res.Snapshot.Quiz.Target.Name}))
	}
	if res.Snapshot.Quiz.Score != 50 || res.Snapshot.Quiz.Mode != brainlab.ModeLobeID {
		t.Fatalf("after clearing: %+v", res.Snapshot.Quiz)
	}

	// Advance happens on frame time, not wall time.
	res = decodeResult(t, do(t, r, http.MethodPost, base+"/tick", DeltaRequest{Delta: 3}))
	if res.Snapshot.Quiz.Mode != brainlab.ModeLobeID {
		t.Fatalf("advanced early to %q", res.Snapshot.Quiz.Mode)
	}
	res = decodeResult(t, do(t, r, http.MethodPost, base+"/tick", DeltaRequest{Delta: 0.5}))
	if res.Snapshot.Quiz.Mode != brainlab.ModeStructureMatch {
		t.Errorf("mode = %q, want structure_match", res.Snapshot.Quiz.Mode)
	}
	if res.Snapshot.Quiz.Score != 50 {
		t.Errorf("score = %d, want 50 carried over", res.Snapshot.Quiz.Score)
	}
}

func TestCommandErrors(t *testing.T) {
	r, _ := testRouter(t)
	base := "/api/sessions/" + createSession(t, r).ID

	tests := []struct {
		name       string
		path       string
		body       any
		wantStatus int
	}{
		{"unknown mode", base + "/quiz/mode", ModeRequest{Mode: "surgery"}, http.StatusBadRequest},
		{"missing body", base + "/tick", nil, http.StatusBadRequest},
		{"unknown field", base + "/select", map[string]string{"entity": "Thalamus"}, http.StatusBadRequest},
		{"unknown session", "/api/sessions/nope/tick", DeltaRequest{Delta: 0.1}, http.StatusNotFound},
		{"unknown session play", "/api/sessions/nope/sim/play", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, tt.path, tt.body)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), `"error"`) {
				t.Errorf("body = %s, want error object", w.Body.String())
			}
		})
	}
}

func TestNegativeTickIsNoop(t *testing.T) {
	r, _ := testRouter(t)
	base := "/api/sessions/" + createSession(t, r).ID

	do(t, r, http.MethodPost, base+"/sim/play", nil)
	res := decodeResult(t, do(t, r, http.MethodPost, base+"/tick", DeltaRequest{Delta: -1}))
	if res.Snapshot.Clock.Elapsed != 0 {
		t.Errorf("elapsed = %v, want 0", res.Snapshot.Clock.Elapsed)
	}
}
