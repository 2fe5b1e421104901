package neuron

import (
	"math"

	"github.com/playperu/brainlab/internal/brainlab"
	"github.com/playperu/brainlab/internal/tween"
)

// placeIons scatters both pools with a fixed inside/outside split. The
// first round(n*inside) ions of each pool start inside.
func (s *Simulator) placeIons() {
	for _, sp := range []brainlab.Species{brainlab.Sodium, brainlab.Potassium} {
		pool := s.ions[sp]
		nInside := s.restingInside(sp)
		g := s.cfg.Geometry
		for i, ion := range pool {
			ion.anim = nil
			ion.Moving = false
			ion.X = (s.rng.Float64()*2 - 1) * g.HalfWidth
			ion.Z = (s.rng.Float64()*2 - 1) * g.HalfDepth
			ion.Y = s.sideY(i >= nInside)
			ion.TargetY = ion.Y
		}
	}
}

func (s *Simulator) restingInside(sp brainlab.Species) int {
	inside := s.cfg.SodiumInside
	if sp == brainlab.Potassium {
		inside = s.cfg.PotassiumInside
	}
	return int(math.Round(float64(len(s.ions[sp])) * inside))
}

// rebalanceIons moves settled ions back across the membrane until each
// pool holds its resting split again. Ions in flight are left alone.
func (s *Simulator) rebalanceIons() {
	for _, sp := range []brainlab.Species{brainlab.Sodium, brainlab.Potassium} {
		pool := s.ions[sp]
		excess := -s.restingInside(sp)
		for _, ion := range pool {
			if ion.Inside() {
				excess++
			}
		}
		for _, ion := range pool {
			if excess == 0 {
				break
			}
			if ion.Moving || ion.Inside() != (excess > 0) {
				continue
			}
			ion.Y = s.sideY(excess > 0)
			ion.TargetY = ion.Y
			if excess > 0 {
				excess--
			} else {
				excess++
			}
		}
	}
}

// sideY picks a random height on one side of the membrane.
func (s *Simulator) sideY(outside bool) float64 {
	g := s.cfg.Geometry
	y := g.Gap + s.rng.Float64()*g.Reach
	if outside {
		return y
	}
	return -y
}

// moveIons starts a batch crossing for one species: sodium flows in,
// potassium flows out. At most MoveFraction of the pool is in flight at
// once, and sampling gives up after 2×pool attempts. It returns how many
// ions were launched.
func (s *Simulator) moveIons(sp brainlab.Species) int {
	pool := s.ions[sp]
	n := len(pool)
	if n == 0 {
		return 0
	}
	want := int(float64(n)*s.cfg.MoveFraction) - s.Moving(sp)
	if want <= 0 {
		return 0
	}

	inward := sp == brainlab.Sodium
	launched := 0
	for attempt := 0; attempt < 2*n && launched < want; attempt++ {
		ion := pool[s.rng.IntN(n)]
		if ion.Moving {
			continue
		}
		if inward && ion.Y <= 0 || !inward && ion.Y >= 0 {
			continue
		}
		s.launch(ion, !inward)
		launched++
	}
	return launched
}

func (s *Simulator) launch(ion *Ion, toOutside bool) {
	ion.Moving = true
	ion.TargetY = s.sideY(toOutside)
	settle := func() {
		ion.Moving = false
		ion.anim = nil
	}
	ion.anim = s.anim.Add(&tween.Tween{
		From:       ion.Y,
		To:         ion.TargetY,
		Duration:   s.cfg.IonMoveSeconds * (0.7 + 0.6*s.rng.Float64()),
		Ease:       tween.QuadInOut,
		OnUpdate:   func(y float64) { ion.Y = y },
		OnComplete: settle,
		OnStop:     settle,
	})
}
