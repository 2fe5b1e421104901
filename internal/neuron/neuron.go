// Package neuron runs the action-potential animation: a looping timeline of
// five phases that drives channel states, ion movement, pump pulses and an
// interpolated membrane potential.
//
// A Simulator is advanced only through Update and Step with explicit frame
// deltas in seconds. It is not safe for concurrent use.
package neuron

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/playperu/brainlab/internal/brainlab"
	"github.com/playperu/brainlab/internal/notify"
	"github.com/playperu/brainlab/internal/tuning"
	"github.com/playperu/brainlab/internal/tween"
)

// Clock is the timeline state.
type Clock struct {
	Elapsed   float64        `json:"elapsed"`
	Phase     brainlab.Phase `json:"phase"`
	Potential float64        `json:"potential"`
	Playing   bool           `json:"playing"`
}

type Channel struct {
	ID      string
	Species brainlab.Species
	State   brainlab.ChannelState
	Base    Color
}

type Pump struct {
	ID     string
	Scale  float64
	Pulses int
	Active bool
}

// Ion is one particle. X and Z are fixed at reset; only Y animates.
type Ion struct {
	Species brainlab.Species
	X, Y, Z float64
	TargetY float64
	Moving  bool

	anim *tween.Tween
}

// Inside reports whether the ion sits below the membrane.
func (i Ion) Inside() bool { return i.Y < 0 }

type PhaseChange struct {
	From brainlab.Phase
	To   brainlab.Phase
	At   float64
}

type ChannelChange struct {
	ID      string
	Species brainlab.Species
	From    brainlab.ChannelState
	To      brainlab.ChannelState
}

type PumpPulse struct {
	ID     string
	Pulses int
}

type Simulator struct {
	cfg    tuning.Neuron
	rng    brainlab.Rand
	logger *slog.Logger

	clock    Clock
	membrane Color
	channels []Channel
	pumps    []Pump
	pumpAnim []*tween.Tween
	ions     map[brainlab.Species][]*Ion

	anim      tween.Group
	potential *tween.Tween

	potentialL *notify.List[float64]
	phaseL     *notify.List[PhaseChange]
	channelL   *notify.List[ChannelChange]
	pumpL      *notify.List[PumpPulse]

	// Notifications raised inside commit wait in held until it finishes.
	holding bool
	held    []func()
}

func New(cfg tuning.Neuron, rng brainlab.Rand, logger *slog.Logger) *Simulator {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Simulator{
		cfg:        cfg,
		rng:        rng,
		logger:     logger,
		ions:       make(map[brainlab.Species][]*Ion),
		potentialL: notify.NewList[float64]("potential", logger),
		phaseL:     notify.NewList[PhaseChange]("phase", logger),
		channelL:   notify.NewList[ChannelChange]("channel", logger),
		pumpL:      notify.NewList[PumpPulse]("pump", logger),
	}

	for i := 0; i < cfg.SodiumChannels; i++ {
		s.channels = append(s.channels, Channel{
			ID: fmt.Sprintf("na-%d", i), Species: brainlab.Sodium,
			State: brainlab.ChannelClosed, Base: SodiumColor,
		})
	}
	for i := 0; i < cfg.PotassiumChannels; i++ {
		s.channels = append(s.channels, Channel{
			ID: fmt.Sprintf("k-%d", i), Species: brainlab.Potassium,
			State: brainlab.ChannelClosed, Base: PotassiumColor,
		})
	}
	for i := 0; i < cfg.Pumps; i++ {
		s.pumps = append(s.pumps, Pump{ID: fmt.Sprintf("pump-%d", i), Scale: 1})
	}
	s.pumpAnim = make([]*tween.Tween, len(s.pumps))
	for _, sp := range []brainlab.Species{brainlab.Sodium, brainlab.Potassium} {
		pool := make([]*Ion, cfg.IonsPerSpecies)
		for i := range pool {
			pool[i] = &Ion{Species: sp}
		}
		s.ions[sp] = pool
	}

	s.clock.Phase = brainlab.PhaseResting
	s.placeIons()
	s.setPotential(cfg.RestingPotential)
	return s
}

func (s *Simulator) OnPotential(fn func(float64)) (remove func())     { return s.potentialL.Add(fn) }
func (s *Simulator) OnPhase(fn func(PhaseChange)) (remove func())     { return s.phaseL.Add(fn) }
func (s *Simulator) OnChannel(fn func(ChannelChange)) (remove func()) { return s.channelL.Add(fn) }
func (s *Simulator) OnPump(fn func(PumpPulse)) (remove func())        { return s.pumpL.Add(fn) }

// Update advances one frame. Timeline time moves only while playing;
// interpolations already in flight always settle.
func (s *Simulator) Update(delta float64) {
	if !validDelta(delta) {
		return
	}
	if s.clock.Playing {
		s.advance(delta)
	}
	s.anim.Update(delta)
}

// Play resumes the timeline. If it was left past its loop point the
// timeline restarts from rest immediately.
func (s *Simulator) Play() {
	if s.clock.Playing {
		return
	}
	if s.clock.Elapsed > s.loopPoint() {
		s.commit(func() {
			s.clock.Elapsed = 0
			s.setPhase(brainlab.PhaseResting)
			s.setChannels(brainlab.Sodium, brainlab.ChannelClosed)
			s.setChannels(brainlab.Potassium, brainlab.ChannelClosed)
			s.stopPotential()
			s.setPotential(s.cfg.RestingPotential)
		})
	}
	s.clock.Playing = true
}

func (s *Simulator) Pause() { s.clock.Playing = false }

// Step pauses and advances exactly one frame of delta seconds.
func (s *Simulator) Step(delta float64) {
	if !validDelta(delta) {
		return
	}
	s.Pause()
	s.advance(delta)
	s.anim.Update(delta)
}

// Reset pauses, cancels every interpolation, closes all channels and
// re-randomizes the ion pools.
func (s *Simulator) Reset() {
	s.Pause()
	s.anim.StopAll()
	s.potential = nil
	for i := range s.pumpAnim {
		s.pumpAnim[i] = nil
		s.pumps[i].Scale = 1
		s.pumps[i].Active = false
	}
	s.commit(func() {
		s.clock.Elapsed = 0
		s.setPhase(brainlab.PhaseResting)
		s.setChannels(brainlab.Sodium, brainlab.ChannelClosed)
		s.setChannels(brainlab.Potassium, brainlab.ChannelClosed)
		s.placeIons()
		s.setPotential(s.cfg.RestingPotential)
	})
}

func (s *Simulator) State() Clock { return s.clock }

// PotentialTarget returns the end value of the running potential
// interpolation, if any.
func (s *Simulator) PotentialTarget() (float64, bool) {
	if s.potential == nil || s.potential.Done() {
		return 0, false
	}
	return s.potential.To, true
}

func (s *Simulator) MembraneColor() Color { return s.membrane }

func (s *Simulator) Channels() []Channel {
	return append([]Channel(nil), s.channels...)
}

func (s *Simulator) Pumps() []Pump {
	return append([]Pump(nil), s.pumps...)
}

func (s *Simulator) Ions(sp brainlab.Species) []Ion {
	pool := s.ions[sp]
	out := make([]Ion, len(pool))
	for i, ion := range pool {
		out[i] = *ion
		out[i].anim = nil
	}
	return out
}

// Moving counts the ions of a species currently in flight.
func (s *Simulator) Moving(sp brainlab.Species) int {
	n := 0
	for _, ion := range s.ions[sp] {
		if ion.Moving {
			n++
		}
	}
	return n
}

func validDelta(d float64) bool {
	return d >= 0 && !math.IsNaN(d) && !math.IsInf(d, 0)
}

func (s *Simulator) loopPoint() float64 { return s.cfg.PhaseBoundaries[3] }

// maxTransitions bounds the catch-up in a single frame: four phase entries
// plus the loop back to rest.
const maxTransitions = 5

// advance checks the phase against the time reached at the end of the
// previous frame, then moves time forward. A frame that spans several
// boundaries enters each skipped phase in order.
func (s *Simulator) advance(delta float64) {
	for range maxTransitions {
		if !s.checkPhase() {
			break
		}
	}
	s.clock.Elapsed += delta
}

// checkPhase applies at most one transition and reports whether it did.
func (s *Simulator) checkPhase() bool {
	t := s.clock.Elapsed
	b := s.cfg.PhaseBoundaries

	switch s.clock.Phase {
	case brainlab.PhaseResting:
		if t > 0 {
			s.enter(brainlab.PhaseDepolarizing)
			return true
		}
	case brainlab.PhaseDepolarizing:
		if t > b[0] {
			s.enter(brainlab.PhaseRepolarizing)
			return true
		}
	case brainlab.PhaseRepolarizing:
		if t > b[1] {
			s.enter(brainlab.PhaseHyperpolarizing)
			return true
		}
	case brainlab.PhaseHyperpolarizing:
		if t > b[2] {
			s.enter(brainlab.PhaseRecovery)
			return true
		}
	case brainlab.PhaseRecovery:
		if t > b[3] {
			s.loop()
			return true
		}
	}
	return false
}

func (s *Simulator) loop() {
	s.commit(func() {
		s.clock.Elapsed = 0
		s.setPhase(brainlab.PhaseResting)
		s.setChannels(brainlab.Sodium, brainlab.ChannelClosed)
		s.setChannels(brainlab.Potassium, brainlab.ChannelClosed)
		s.rebalanceIons()
		s.animatePotential(brainlab.PhaseResting)
	})
}

func (s *Simulator) enter(ph brainlab.Phase) {
	s.commit(func() {
		s.setPhase(ph)
		switch ph {
		case brainlab.PhaseDepolarizing:
			s.setChannels(brainlab.Sodium, brainlab.ChannelOpen)
			s.moveIons(brainlab.Sodium)
		case brainlab.PhaseRepolarizing:
			s.setChannels(brainlab.Sodium, brainlab.ChannelInactive)
			s.setChannels(brainlab.Potassium, brainlab.ChannelOpen)
			s.moveIons(brainlab.Potassium)
		case brainlab.PhaseHyperpolarizing:
			s.setChannels(brainlab.Sodium, brainlab.ChannelClosed)
		case brainlab.PhaseRecovery:
			s.setChannels(brainlab.Potassium, brainlab.ChannelClosed)
			s.setChannels(brainlab.Sodium, brainlab.ChannelClosed)
			s.pulsePumps()
		}
		s.animatePotential(ph)
	})
}

// commit runs fn with notifications held back and delivers them once fn
// returns, so listeners only ever observe a finished transition.
func (s *Simulator) commit(fn func()) {
	s.holding = true
	fn()
	s.holding = false
	held := s.held
	s.held = nil
	for _, deliver := range held {
		deliver()
	}
}

func (s *Simulator) notify(deliver func()) {
	if s.holding {
		s.held = append(s.held, deliver)
		return
	}
	deliver()
}

func (s *Simulator) setPhase(ph brainlab.Phase) {
	from := s.clock.Phase
	if from == ph {
		return
	}
	s.clock.Phase = ph
	s.logger.Debug("phase change", "from", from, "to", ph, "t", s.clock.Elapsed)
	pc := PhaseChange{From: from, To: ph, At: s.clock.Elapsed}
	s.notify(func() { s.phaseL.Emit(pc) })
}

func (s *Simulator) setChannels(sp brainlab.Species, st brainlab.ChannelState) {
	for i := range s.channels {
		ch := &s.channels[i]
		if ch.Species != sp || ch.State == st {
			continue
		}
		cc := ChannelChange{ID: ch.ID, Species: sp, From: ch.State, To: st}
		ch.State = st
		s.notify(func() { s.channelL.Emit(cc) })
	}
}

// animatePotential replaces any running potential interpolation with one
// heading for the phase's target.
func (s *Simulator) animatePotential(ph brainlab.Phase) {
	target, ok := s.cfg.Phases[ph]
	if !ok {
		return
	}
	s.stopPotential()
	s.potential = s.anim.Add(&tween.Tween{
		From:     s.clock.Potential,
		To:       target.Potential,
		Duration: target.Seconds,
		Ease:     tween.QuadInOut,
		OnUpdate: s.setPotential,
	})
}

func (s *Simulator) stopPotential() {
	if s.potential != nil {
		s.potential.Stop()
		s.potential = nil
	}
}

func (s *Simulator) setPotential(v float64) {
	s.clock.Potential = v
	s.membrane = MembraneColor(v, s.cfg.ColorRange[0], s.cfg.ColorRange[1])
	s.notify(func() { s.potentialL.Emit(v) })
}

func (s *Simulator) pulsePumps() {
	for i := range s.pumps {
		if s.pumpAnim[i] != nil {
			s.pumpAnim[i].Stop()
		}
		p := &s.pumps[i]
		p.Pulses++
		p.Active = true
		amp := s.cfg.PumpPulseScale
		settle := func() {
			p.Scale = 1
			p.Active = false
		}
		s.pumpAnim[i] = s.anim.Add(&tween.Tween{
			From: 0, To: 1, Duration: s.cfg.PumpPulseSeconds,
			OnUpdate:   func(k float64) { p.Scale = 1 + amp*math.Sin(math.Pi*k) },
			OnComplete: settle,
			OnStop:     settle,
		})
		pp := PumpPulse{ID: p.ID, Pulses: p.Pulses}
		s.notify(func() { s.pumpL.Emit(pp) })
	}
}
