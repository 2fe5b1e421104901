package server

import (
	"errors"
	"fmt"
	"math"

	"github.com/playperu/brainlab/internal/brainlab"
	"github.com/playperu/brainlab/internal/quiz"
	"github.com/playperu/brainlab/internal/session"
)

var (
	errUnknownCommand = errors.New("unknown command")
	errBadDelta       = errors.New("delta must be a finite number of seconds")
)

// Command is one learner action, sent over HTTP or the WebSocket stream.
type Command struct {
	Type  string        `json:"type"`
	Delta float64       `json:"delta,omitempty"`
	Name  string        `json:"name,omitempty"`
	Mode  brainlab.Mode `json:"mode,omitempty"`
}

const (
	cmdTick   = "tick"
	cmdPlay   = "play"
	cmdPause  = "pause"
	cmdStep   = "step"
	cmdReset  = "reset"
	cmdMode   = "mode"
	cmdSelect = "select"
)

// CommandResult is the session state after a command.
type CommandResult struct {
	Outcome  quiz.Outcome     `json:"outcome,omitempty"`
	Snapshot session.Snapshot `json:"snapshot"`
}

func apply(s *session.Session, c Command) (CommandResult, error) {
	var res CommandResult
	switch c.Type {
	case cmdTick, cmdStep:
		if math.IsNaN(c.Delta) || math.IsInf(c.Delta, 0) {
			return res, errBadDelta
		}
		if c.Type == cmdTick {
			s.Tick(c.Delta)
		} else {
			s.Sim.Step(c.Delta)
		}
	case cmdPlay:
		s.Sim.Play()
	case cmdPause:
		s.Sim.Pause()
	case cmdReset:
		s.Sim.Reset()
	case cmdMode:
		if err := s.Quiz.StartMode(c.Mode); err != nil {
			return res, err
		}
	case cmdSelect:
		res.Outcome = s.Select(c.Name)
	default:
		return res, fmt.Errorf("%w: %q", errUnknownCommand, c.Type)
	}
	res.Snapshot = s.Snapshot()
	return res, nil
}
