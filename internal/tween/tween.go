// Package tween interpolates scalar values over frame time.
//
// Tweens are advanced by the same delta that drives the simulation, never by
// a wall clock, so stepping a frame at a time is deterministic.
package tween

import "math"

// Easing maps linear progress in [0,1] to eased progress.
type Easing func(k float64) float64

func Linear(k float64) float64 { return k }

func QuadInOut(k float64) float64 {
	if k < 0.5 {
		return 2 * k * k
	}
	return 1 - math.Pow(-2*k+2, 2)/2
}

func CubicInOut(k float64) float64 {
	if k < 0.5 {
		return 4 * k * k * k
	}
	return 1 - math.Pow(-2*k+2, 3)/2
}

func SineInOut(k float64) float64 {
	return -(math.Cos(math.Pi*k) - 1) / 2
}

// Lerp blends a and b; it returns exactly a at t=0 and b at t=1.
func Lerp(a, b, t float64) float64 { return a*(1-t) + b*t }

// InverseLerp returns where v sits between a and b, unclamped.
func InverseLerp(a, b, v float64) float64 {
	if a == b {
		return 0
	}
	return (v - a) / (b - a)
}

func Clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// Tween moves a value from From to To over Duration seconds.
type Tween struct {
	From     float64
	To       float64
	Duration float64
	Ease     Easing

	OnUpdate   func(v float64)
	OnComplete func()
	OnStop     func()

	elapsed float64
	value   float64
	done    bool
	group   *Group
}

func (t *Tween) Value() float64 { return t.value }

// Done reports whether the tween completed or was stopped.
func (t *Tween) Done() bool { return t.done }

// Stop cancels the tween. OnStop runs once; OnComplete never runs afterwards.
func (t *Tween) Stop() {
	if t == nil || t.done {
		return
	}
	t.done = true
	if t.group != nil {
		t.group.remove(t)
	}
	if t.OnStop != nil {
		t.OnStop()
	}
}

// advance returns true once the tween has finished.
func (t *Tween) advance(dt float64) bool {
	if t.done {
		return true
	}
	t.elapsed += dt
	k := 1.0
	if t.Duration > 0 {
		k = Clamp01(t.elapsed / t.Duration)
	}
	ease := t.Ease
	if ease == nil {
		ease = Linear
	}
	t.value = Lerp(t.From, t.To, ease(k))
	if k >= 1 {
		t.value = t.To
	}
	if t.OnUpdate != nil {
		t.OnUpdate(t.value)
	}
	if k < 1 {
		return false
	}
	t.done = true
	if t.OnComplete != nil {
		t.OnComplete()
	}
	return true
}

// Group owns a set of running tweens and advances them together.
type Group struct {
	tweens []*Tween
}

// Add starts t in the group. A tween already done is ignored.
func (g *Group) Add(t *Tween) *Tween {
	if t.done {
		return t
	}
	t.group = g
	t.value = t.From
	g.tweens = append(g.tweens, t)
	return t
}

// Update advances every tween by dt seconds. Tweens added by callbacks during
// the update first advance on the next call.
func (g *Group) Update(dt float64) {
	if dt < 0 || math.IsNaN(dt) {
		return
	}
	running := append([]*Tween(nil), g.tweens...)
	for _, t := range running {
		if t.done {
			continue
		}
		if t.advance(dt) {
			g.remove(t)
		}
	}
}

// StopAll cancels every running tween.
func (g *Group) StopAll() {
	running := g.tweens
	g.tweens = nil
	for _, t := range running {
		t.group = nil
		t.Stop()
	}
}

func (g *Group) Len() int { return len(g.tweens) }

func (g *Group) remove(t *Tween) {
	for i, o := range g.tweens {
		if o == t {
			g.tweens = append(g.tweens[:i], g.tweens[i+1:]...)
			return
		}
	}
}
