package neuron

import (
	"fmt"
	"math"

	"github.com/playperu/brainlab/internal/brainlab"
	"github.com/playperu/brainlab/internal/tween"
)

// Color is a linear RGB triple in [0,1].
type Color struct {
	R, G, B float64
}

func (c Color) Lerp(o Color, t float64) Color {
	return Color{
		R: tween.Lerp(c.R, o.R, t),
		G: tween.Lerp(c.G, o.G, t),
		B: tween.Lerp(c.B, o.B, t),
	}
}

func (c Color) Hex() string {
	b := func(v float64) int { return int(math.Round(tween.Clamp01(v) * 255)) }
	return fmt.Sprintf("#%02x%02x%02x", b(c.R), b(c.G), b(c.B))
}

var (
	RestingColor   = Color{0.20, 0.40, 0.90}
	ActiveColor    = Color{1.00, 0.30, 0.20}
	SodiumColor    = Color{0.95, 0.60, 0.10}
	PotassiumColor = Color{0.30, 0.80, 0.40}

	white = Color{1, 1, 1}
	grey  = Color{0.4, 0.4, 0.4}
)

// Visual is what the renderer applies to a channel mesh.
type Visual struct {
	Color   Color
	Glow    float64
	Opacity float64
}

// Visual derives the channel's appearance from its base colour and state.
func (c Channel) Visual() Visual {
	switch c.State {
	case brainlab.ChannelOpen:
		return Visual{Color: c.Base.Lerp(white, 0.35), Glow: 0.8, Opacity: 1}
	case brainlab.ChannelInactive:
		return Visual{Color: c.Base.Lerp(grey, 0.6), Glow: 0, Opacity: 0.4}
	default:
		return Visual{Color: c.Base, Glow: 0, Opacity: 0.6}
	}
}

// MembraneColor maps a potential onto the resting→active gradient over
// [lo, hi] mV.
func MembraneColor(potential, lo, hi float64) Color {
	return RestingColor.Lerp(ActiveColor, tween.Clamp01(tween.InverseLerp(lo, hi, potential)))
}
