package session

import (
	"github.com/playperu/brainlab/internal/brainlab"
	"github.com/playperu/brainlab/internal/neuron"
	"github.com/playperu/brainlab/internal/quiz"
)

// Event is the flattened form of every simulator and quiz notification,
// as pushed to the presentation layer.
type Event struct {
	Type string `json:"type"`

	Potential *float64              `json:"potential,omitempty"`
	Color     string                `json:"color,omitempty"`
	Phase     brainlab.Phase        `json:"phase,omitempty"`
	Channel   string                `json:"channel,omitempty"`
	State     brainlab.ChannelState `json:"state,omitempty"`
	Pump      string                `json:"pump,omitempty"`
	Pulses    int                   `json:"pulses,omitempty"`

	Text       string        `json:"text,omitempty"`
	Positive   bool          `json:"positive,omitempty"`
	DurationMs int64         `json:"durationMs,omitempty"`
	Score      *int          `json:"score,omitempty"`
	Visible    bool          `json:"visible,omitempty"`
	Name       string        `json:"name,omitempty"`
	Details    string        `json:"details,omitempty"`
	Mode       brainlab.Mode `json:"mode,omitempty"`
}

const (
	EventPotential   = "potential"
	EventPhase       = "phase"
	EventChannel     = "channel"
	EventPump        = "pump"
	EventInstruction = "instruction"
	EventScore       = "score"
	EventFeedback    = "feedback"
	EventInfo        = "info"
	EventMode        = "mode"
	EventCleared     = "cleared"
)

// Subscribe forwards every notification of the session to fn until the
// returned func is called.
func (s *Session) Subscribe(fn func(Event)) (unsubscribe func()) {
	removers := []func(){
		s.Sim.OnPotential(func(v float64) {
			fn(Event{Type: EventPotential, Potential: &v, Color: s.Sim.MembraneColor().Hex()})
		}),
		s.Sim.OnPhase(func(pc neuron.PhaseChange) {
			fn(Event{Type: EventPhase, Phase: pc.To})
		}),
		s.Sim.OnChannel(func(cc neuron.ChannelChange) {
			fn(Event{Type: EventChannel, Channel: cc.ID, State: cc.To})
		}),
		s.Sim.OnPump(func(p neuron.PumpPulse) {
			fn(Event{Type: EventPump, Pump: p.ID, Pulses: p.Pulses})
		}),
		s.Quiz.OnInstruction(func(text string) {
			fn(Event{Type: EventInstruction, Text: text})
		}),
		s.Quiz.OnScore(func(v int) {
			fn(Event{Type: EventScore, Score: &v})
		}),
		s.Quiz.OnFeedback(func(f quiz.Feedback) {
			fn(Event{Type: EventFeedback, Text: f.Text, Positive: f.Positive, DurationMs: f.Duration.Milliseconds()})
		}),
		s.Quiz.OnInfo(func(p quiz.InfoPanel) {
			fn(Event{Type: EventInfo, Visible: p.Visible, Name: p.Name, Details: p.Details})
		}),
		s.Quiz.OnMode(func(m quiz.ModeChange) {
			fn(Event{Type: EventMode, Mode: m.To})
		}),
		s.Quiz.OnCleared(func(m brainlab.Mode) {
			fn(Event{Type: EventCleared, Mode: m})
		}),
	}
	return func() {
		for _, r := range removers {
			r()
		}
	}
}
