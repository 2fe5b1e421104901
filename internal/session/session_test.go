package session

import (
	"io"
	"log/slog"
	"math/rand/v2"
	"testing"

	"github.com/playperu/brainlab/internal/brainlab"
	"github.com/playperu/brainlab/internal/quiz"
	"github.com/playperu/brainlab/internal/tuning"
)

func newSession(t *testing.T, entities []brainlab.Entity) *Session {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(entities, tuning.Default(), rand.New(rand.NewPCG(3, 4)), logger)
}

var brain = []brainlab.Entity{
	{Name: "Frontal Lobe", Category: brainlab.CategoryLobe, InfoText: "Executive functions."},
	{Name: "Frontal Lobe", Category: brainlab.CategoryLobe, InfoText: "Right hemisphere copy."},
	{Name: "Thalamus", Category: brainlab.CategoryDeepStructure, Function: "Relays sensory signals"},
}

func TestSingleLobeRoundAdvances(t *testing.T) {
	s := newSession(t, brain)
	if err := s.Quiz.StartGame(); err != nil {
		t.Fatal(err)
	}

	if got := s.Select("Frontal Lobe"); got != quiz.Correct {
		t.Fatalf("select = %s, want correct", got)
	}
	if got := s.Quiz.State().Score; got != 10 {
		t.Fatalf("score = %d, want 10", got)
	}

	for i := 0; i < 3; i++ {
		s.Tick(1)
	}
	if got := s.Quiz.State().Mode; got != brainlab.ModeLobeID {
		t.Fatalf("mode at 3s = %s, want lobe_id", got)
	}
	s.Tick(0.5)
	if got := s.Quiz.State().Mode; got != brainlab.ModeStructureMatch {
		t.Fatalf("mode at 3.5s = %s, want structure_match", got)
	}
}

func TestSelectUnknownNameIgnored(t *testing.T) {
	s := newSession(t, brain)
	s.Quiz.StartGame()

	if got := s.Select("Pineal Gland"); got != quiz.Ignored {
		t.Errorf("select = %s, want ignored", got)
	}
	if got := s.Select(""); got != quiz.Ignored {
		t.Errorf("select empty = %s, want ignored", got)
	}
}

func TestEntitiesDeduplicated(t *testing.T) {
	s := newSession(t, brain)
	got := s.Entities()
	if len(got) != 2 || got[0].Name != "Frontal Lobe" || got[0].InfoText != "Executive functions." {
		t.Errorf("entities = %+v", got)
	}
}

func TestTickDrivesSimulator(t *testing.T) {
	s := newSession(t, brain)
	s.Sim.Play()
	s.Tick(0.3)
	s.Tick(0.3)

	if got := s.Sim.State().Phase; got != brainlab.PhaseDepolarizing {
		t.Errorf("phase = %s, want depolarizing", got)
	}

	before := s.Sim.State()
	s.Tick(-0.1)
	if got := s.Sim.State(); got != before {
		t.Errorf("negative tick changed state: %+v", got)
	}
}

func TestStepWhilePlaying(t *testing.T) {
	s := newSession(t, brain)
	s.Sim.Play()
	s.Sim.Step(0.05)

	c := s.Sim.State()
	if c.Playing || c.Elapsed != 0.05 {
		t.Errorf("clock = %+v, want paused at 0.05", c)
	}
}

func TestSubscribeFlattensEvents(t *testing.T) {
	s := newSession(t, brain)
	counts := map[string]int{}
	unsubscribe := s.Subscribe(func(e Event) { counts[e.Type]++ })

	s.Quiz.StartGame()
	s.Select("Thalamus")
	s.Sim.Play()
	s.Tick(0.25)
	s.Tick(0.25)

	for _, typ := range []string{EventMode, EventInstruction, EventScore, EventFeedback, EventPhase, EventChannel, EventPotential} {
		if counts[typ] == 0 {
			t.Errorf("no %s events, got %v", typ, counts)
		}
	}

	unsubscribe()
	total := 0
	for _, n := range counts {
		total += n
	}
	s.Sim.Reset()
	after := 0
	for _, n := range counts {
		after += n
	}
	if after != total {
		t.Errorf("events after unsubscribe: %d -> %d", total, after)
	}
}

func TestSnapshot(t *testing.T) {
	s := newSession(t, brain)
	snap := s.Snapshot()

	if snap.ID != s.ID || snap.Clock.Potential != -70 {
		t.Errorf("snapshot = %+v", snap)
	}
	if len(snap.Channels) != 6 || len(snap.Pumps) != 2 {
		t.Errorf("channels=%d pumps=%d", len(snap.Channels), len(snap.Pumps))
	}
	if snap.IonsInside.Sodium != 10 || snap.IonsInside.Potassium != 40 {
		t.Errorf("ions inside = %+v", snap.IonsInside)
	}
	if snap.Quiz.Mode != brainlab.ModeFreeExplore {
		t.Errorf("quiz mode = %s", snap.Quiz.Mode)
	}
}
