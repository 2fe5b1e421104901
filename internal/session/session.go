// Package session owns one learner's simulator and quiz and routes frame
// ticks and selections into them.
package session

import (
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/playperu/brainlab/internal/brainlab"
	"github.com/playperu/brainlab/internal/neuron"
	"github.com/playperu/brainlab/internal/quiz"
	"github.com/playperu/brainlab/internal/timers"
	"github.com/playperu/brainlab/internal/tuning"
)

type Session struct {
	ID      string
	Created time.Time

	Sim    *neuron.Simulator
	Quiz   *quiz.Quiz
	Timers *timers.Queue

	entities map[string]brainlab.Entity
	names    []string
}

// New builds a session over a snapshot of entities. The same random source
// feeds the simulator and the quiz.
func New(entities []brainlab.Entity, tn tuning.Tuning, rng brainlab.Rand, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	logger = logger.With("session", id)

	tq := &timers.Queue{}
	s := &Session{
		ID:       id,
		Created:  time.Now(),
		Sim:      neuron.New(tn.Neuron, rng, logger),
		Quiz:     quiz.New(entities, tn.Quiz, rng, tq, logger),
		Timers:   tq,
		entities: make(map[string]brainlab.Entity, len(entities)),
	}
	for _, e := range entities {
		if _, dup := s.entities[e.Name]; dup || e.Name == "" {
			continue
		}
		s.entities[e.Name] = e
		s.names = append(s.names, e.Name)
	}
	return s
}

// Tick advances one frame: deferred callbacks first, then the simulator and
// its interpolations. Negative, NaN or infinite deltas are ignored.
func (s *Session) Tick(delta float64) {
	if delta < 0 || math.IsNaN(delta) || math.IsInf(delta, 0) {
		return
	}
	s.Timers.Advance(timers.Seconds(delta))
	s.Sim.Update(delta)
}

// Select routes a click on the named entity into the quiz. Unknown names
// carry no metadata and are ignored.
func (s *Session) Select(name string) quiz.Outcome {
	e, ok := s.entities[name]
	if !ok {
		return quiz.Ignored
	}
	return s.Quiz.Select(&e)
}

func (s *Session) Entity(name string) (brainlab.Entity, bool) {
	e, ok := s.entities[name]
	return e, ok
}

// Entities returns the snapshot in registry order.
func (s *Session) Entities() []brainlab.Entity {
	out := make([]brainlab.Entity, 0, len(s.names))
	for _, n := range s.names {
		out = append(out, s.entities[n])
	}
	return out
}

type ChannelView struct {
	ID      string                `json:"id"`
	Species brainlab.Species      `json:"species"`
	State   brainlab.ChannelState `json:"state"`
	Color   string                `json:"color"`
	Glow    float64               `json:"glow"`
	Opacity float64               `json:"opacity"`
}

type PumpView struct {
	ID     string  `json:"id"`
	Scale  float64 `json:"scale"`
	Pulses int     `json:"pulses"`
}

type Snapshot struct {
	ID            string        `json:"id"`
	Clock         neuron.Clock  `json:"clock"`
	MembraneColor string        `json:"membraneColor"`
	Channels      []ChannelView `json:"channels"`
	Pumps         []PumpView    `json:"pumps"`
	IonsInside    IonCounts     `json:"ionsInside"`
	Quiz          quiz.State    `json:"quiz"`
}

type IonCounts struct {
	Sodium    int `json:"sodium"`
	Potassium int `json:"potassium"`
}

func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		ID:            s.ID,
		Clock:         s.Sim.State(),
		MembraneColor: s.Sim.MembraneColor().Hex(),
		Quiz:          s.Quiz.State(),
	}
	for _, ch := range s.Sim.Channels() {
		v := ch.Visual()
		snap.Channels = append(snap.Channels, ChannelView{
			ID: ch.ID, Species: ch.Species, State: ch.State,
			Color: v.Color.Hex(), Glow: v.Glow, Opacity: v.Opacity,
		})
	}
	for _, p := range s.Sim.Pumps() {
		snap.Pumps = append(snap.Pumps, PumpView{ID: p.ID, Scale: p.Scale, Pulses: p.Pulses})
	}
	snap.IonsInside.Sodium = countInside(s.Sim.Ions(brainlab.Sodium))
	snap.IonsInside.Potassium = countInside(s.Sim.Ions(brainlab.Potassium))
	return snap
}

func countInside(ions []neuron.Ion) int {
	n := 0
	for _, ion := range ions {
		if ion.Inside() {
			n++
		}
	}
	return n
}
