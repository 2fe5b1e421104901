// Command aptrace runs the action potential simulator headless at a fixed
// frame step, logs every phase change and plots the membrane potential.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/guptarohit/asciigraph"

	"github.com/playperu/brainlab/internal/neuron"
	"github.com/playperu/brainlab/internal/tuning"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	duration float64
	dt       float64
	seed     uint64
	tuning   string
	height   int
	width    int
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("aptrace", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Float64Var(&o.duration, "duration", 4, "simulated seconds")
	fs.Float64Var(&o.dt, "dt", 1.0/60, "frame step in seconds")
	fs.Uint64Var(&o.seed, "seed", 1, "random seed for ion placement")
	fs.StringVar(&o.tuning, "tuning", "", "YAML tuning file (default: built-in)")
	fs.IntVar(&o.height, "height", 15, "plot height in rows")
	fs.IntVar(&o.width, "width", 80, "plot width in columns (0 = one column per frame)")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.dt <= 0 || o.duration <= 0 {
		return o, fmt.Errorf("duration and dt must be positive")
	}
	return o, nil
}

func run(args []string, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	tn := tuning.Default()
	if o.tuning != "" {
		if tn, err = tuning.Load(o.tuning); err != nil {
			return err
		}
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	sim := neuron.New(tn.Neuron, rand.New(rand.NewPCG(o.seed, o.seed^0x9e3779b97f4a7c15)), logger)

	sim.OnPhase(func(pc neuron.PhaseChange) {
		logger.Info("phase", "at", fmt.Sprintf("%.3f", pc.At), "from", pc.From, "to", pc.To)
	})
	pulses := 0
	sim.OnPump(func(neuron.PumpPulse) { pulses++ })

	frames := int(o.duration / o.dt)
	trace := make([]float64, 0, frames+1)
	trace = append(trace, sim.State().Potential)

	sim.Play()
	for range frames {
		sim.Update(o.dt)
		trace = append(trace, sim.State().Potential)
	}

	opts := []asciigraph.Option{
		asciigraph.Height(o.height),
		asciigraph.Caption(fmt.Sprintf("membrane potential (mV), %d frames of %.4fs", frames, o.dt)),
	}
	if o.width > 0 {
		opts = append(opts, asciigraph.Width(o.width))
	}
	fmt.Fprintln(stdout, asciigraph.Plot(trace, opts...))

	lo, hi := trace[0], trace[0]
	for _, v := range trace {
		lo, hi = min(lo, v), max(hi, v)
	}
	fmt.Fprintf(stdout, "min %.1f mV  max %.1f mV  final phase %s  pump pulses %d\n",
		lo, hi, sim.State().Phase, pulses)
	return nil
}
