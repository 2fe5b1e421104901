// Package tuning holds the simulator and quiz constants, loadable from YAML.
package tuning

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/playperu/brainlab/internal/brainlab"
)

type Tuning struct {
	Neuron Neuron `yaml:"neuron"`
	Quiz   Quiz   `yaml:"quiz"`
}

type Neuron struct {
	// Phase boundaries in seconds: depolarizing, repolarizing,
	// hyperpolarizing, recovery; the last one is also the loop point.
	PhaseBoundaries  []float64                      `yaml:"phase_boundaries"`
	Phases           map[brainlab.Phase]PhaseTarget `yaml:"phases"`
	RestingPotential float64                        `yaml:"resting_potential"`

	SodiumChannels    int `yaml:"sodium_channels"`
	PotassiumChannels int `yaml:"potassium_channels"`
	Pumps             int `yaml:"pumps"`

	IonsPerSpecies  int     `yaml:"ions_per_species"`
	SodiumInside    float64 `yaml:"sodium_inside"`
	PotassiumInside float64 `yaml:"potassium_inside"`
	MoveFraction    float64 `yaml:"move_fraction"`
	IonMoveSeconds  float64 `yaml:"ion_move_seconds"`

	PumpPulseSeconds float64 `yaml:"pump_pulse_seconds"`
	PumpPulseScale   float64 `yaml:"pump_pulse_scale"`

	ColorRange [2]float64 `yaml:"color_range"`
	Geometry   Geometry   `yaml:"geometry"`
}

type PhaseTarget struct {
	Potential float64 `yaml:"potential"`
	Seconds   float64 `yaml:"seconds"`
}

// Geometry bounds ion positions. The membrane sits at y=0; outside is y>0.
type Geometry struct {
	HalfWidth float64 `yaml:"half_width"`
	HalfDepth float64 `yaml:"half_depth"`
	Gap       float64 `yaml:"gap"`
	Reach     float64 `yaml:"reach"`
}

type Quiz struct {
	AdvanceDelay     time.Duration            `yaml:"advance_delay"`
	FeedbackDuration time.Duration            `yaml:"feedback_duration"`
	ClearedDuration  time.Duration            `yaml:"cleared_duration"`
	RevealDuration   time.Duration            `yaml:"reveal_duration"`
	Points           map[brainlab.Mode]Points `yaml:"points"`
}

type Points struct {
	Correct int `yaml:"correct"`
	Penalty int `yaml:"penalty"`
}

func Default() Tuning {
	return Tuning{
		Neuron: Neuron{
			PhaseBoundaries: []float64{0.5, 1.5, 2.5, 3.5},
			Phases: map[brainlab.Phase]PhaseTarget{
				brainlab.PhaseDepolarizing:    {Potential: 30, Seconds: 0.5},
				brainlab.PhaseRepolarizing:    {Potential: -75, Seconds: 1.0},
				brainlab.PhaseHyperpolarizing: {Potential: -85, Seconds: 1.0},
				brainlab.PhaseRecovery:        {Potential: -70, Seconds: 1.0},
				brainlab.PhaseResting:         {Potential: -70, Seconds: 0.1},
			},
			RestingPotential:  -70,
			SodiumChannels:    3,
			PotassiumChannels: 3,
			Pumps:             2,
			IonsPerSpecies:    50,
			SodiumInside:      0.2,
			PotassiumInside:   0.8,
			MoveFraction:      0.5,
			IonMoveSeconds:    1.0,
			PumpPulseSeconds:  0.6,
			PumpPulseScale:    0.2,
			ColorRange:        [2]float64{-90, 40},
			Geometry:          Geometry{HalfWidth: 4, HalfDepth: 1.5, Gap: 0.6, Reach: 2.5},
		},
		Quiz: Quiz{
			AdvanceDelay:     3500 * time.Millisecond,
			FeedbackDuration: 1500 * time.Millisecond,
			ClearedDuration:  3000 * time.Millisecond,
			RevealDuration:   2500 * time.Millisecond,
			Points: map[brainlab.Mode]Points{
				brainlab.ModeLobeID:         {Correct: 10, Penalty: 2},
				brainlab.ModeStructureMatch: {Correct: 15, Penalty: 3},
				brainlab.ModeNerveQuiz:      {Correct: 12, Penalty: 2},
			},
		},
	}
}

// Load reads a YAML file over the defaults. Keys absent from the file keep
// their default values.
func Load(path string) (Tuning, error) {
	t := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("%s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	n := t.Neuron
	var errs []error
	if len(n.PhaseBoundaries) != 4 {
		errs = append(errs, fmt.Errorf("phase_boundaries: want 4 values, got %d", len(n.PhaseBoundaries)))
	} else {
		prev := 0.0
		for i, b := range n.PhaseBoundaries {
			if b <= prev {
				errs = append(errs, fmt.Errorf("phase_boundaries[%d]: %v must exceed %v", i, b, prev))
			}
			prev = b
		}
	}
	for _, p := range []brainlab.Phase{
		brainlab.PhaseResting, brainlab.PhaseDepolarizing, brainlab.PhaseRepolarizing,
		brainlab.PhaseHyperpolarizing, brainlab.PhaseRecovery,
	} {
		target, ok := n.Phases[p]
		if !ok {
			errs = append(errs, fmt.Errorf("phases: missing %q", p))
			continue
		}
		// A phase entry replaces the default as a whole, so an omitted
		// seconds key arrives here as 0.
		if !(target.Seconds > 0) || math.IsInf(target.Seconds, 0) {
			errs = append(errs, fmt.Errorf("phases.%s.seconds: %v must be a positive, finite duration", p, target.Seconds))
		}
	}
	if n.SodiumChannels < 0 || n.PotassiumChannels < 0 || n.Pumps < 0 || n.IonsPerSpecies < 0 {
		errs = append(errs, errors.New("channel, pump and ion counts must not be negative"))
	}
	for name, f := range map[string]float64{
		"sodium_inside":    n.SodiumInside,
		"potassium_inside": n.PotassiumInside,
		"move_fraction":    n.MoveFraction,
	} {
		if f < 0 || f > 1 {
			errs = append(errs, fmt.Errorf("%s: %v outside [0,1]", name, f))
		}
	}
	if n.ColorRange[0] >= n.ColorRange[1] {
		errs = append(errs, fmt.Errorf("color_range: %v is not increasing", n.ColorRange))
	}
	if t.Quiz.AdvanceDelay < 0 {
		errs = append(errs, errors.New("quiz.advance_delay must not be negative"))
	}
	for _, m := range []brainlab.Mode{brainlab.ModeLobeID, brainlab.ModeStructureMatch, brainlab.ModeNerveQuiz} {
		pts, ok := t.Quiz.Points[m]
		if !ok {
			errs = append(errs, fmt.Errorf("quiz.points: missing %q", m))
			continue
		}
		if pts.Correct < 0 || pts.Penalty < 0 {
			errs = append(errs, fmt.Errorf("quiz.points.%s: %+v must not be negative", m, pts))
		}
	}
	return errors.Join(errs...)
}
