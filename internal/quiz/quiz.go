// Package quiz sequences the point-and-click anatomy game: lobe
// identification, structure-function matching and the cranial nerve quiz,
// followed by free exploration.
package quiz

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/playperu/brainlab/internal/brainlab"
	"github.com/playperu/brainlab/internal/notify"
	"github.com/playperu/brainlab/internal/timers"
	"github.com/playperu/brainlab/internal/tuning"
)

var ErrUnknownMode = errors.New("unknown quiz mode")

// Scheduler defers a callback by logical frame time.
type Scheduler interface {
	After(delay time.Duration, fn func()) timers.ID
}

type Framing string

const (
	ByFunction Framing = "by_function"
	ByName     Framing = "by_name"
)

// Target is what the player is currently asked to click.
type Target struct {
	Name     string              `json:"name"`
	Category brainlab.Category   `json:"category"`
	Function string              `json:"function,omitempty"`
	Nerve    *brainlab.NerveInfo `json:"nerve,omitempty"`
	Framing  Framing             `json:"framing,omitempty"`
}

type Feedback struct {
	Text     string
	Positive bool
	Duration time.Duration
}

type InfoPanel struct {
	Visible bool
	Name    string
	Details string
}

type ModeChange struct {
	From brainlab.Mode
	To   brainlab.Mode
}

type Outcome string

const (
	Ignored   Outcome = "ignored"
	Info      Outcome = "info"
	Correct   Outcome = "correct"
	Incorrect Outcome = "incorrect"
)

type State struct {
	Mode   brainlab.Mode `json:"mode"`
	Score  int           `json:"score"`
	Target *Target       `json:"target"`
	Queue  []Target      `json:"queue"`
}

type Quiz struct {
	entities []brainlab.Entity
	cfg      tuning.Quiz
	rng      brainlab.Rand
	sched    Scheduler
	logger   *slog.Logger

	mode    brainlab.Mode
	score   int
	queue   []Target
	current *Target
	gen     int

	instructionL *notify.List[string]
	scoreL       *notify.List[int]
	feedbackL    *notify.List[Feedback]
	infoL        *notify.List[InfoPanel]
	modeL        *notify.List[ModeChange]
	clearedL     *notify.List[brainlab.Mode]
}

// New snapshots entities and starts in free exploration.
func New(entities []brainlab.Entity, cfg tuning.Quiz, rng brainlab.Rand, sched Scheduler, logger *slog.Logger) *Quiz {
	if logger == nil {
		logger = slog.Default()
	}
	return &Quiz{
		entities:     append([]brainlab.Entity(nil), entities...),
		cfg:          cfg,
		rng:          rng,
		sched:        sched,
		logger:       logger,
		mode:         brainlab.ModeFreeExplore,
		instructionL: notify.NewList[string]("instruction", logger),
		scoreL:       notify.NewList[int]("score", logger),
		feedbackL:    notify.NewList[Feedback]("feedback", logger),
		infoL:        notify.NewList[InfoPanel]("info", logger),
		modeL:        notify.NewList[ModeChange]("mode", logger),
		clearedL:     notify.NewList[brainlab.Mode]("cleared", logger),
	}
}

func (q *Quiz) OnInstruction(fn func(string)) (remove func())    { return q.instructionL.Add(fn) }
func (q *Quiz) OnScore(fn func(int)) (remove func())             { return q.scoreL.Add(fn) }
func (q *Quiz) OnFeedback(fn func(Feedback)) (remove func())     { return q.feedbackL.Add(fn) }
func (q *Quiz) OnInfo(fn func(InfoPanel)) (remove func())        { return q.infoL.Add(fn) }
func (q *Quiz) OnMode(fn func(ModeChange)) (remove func())       { return q.modeL.Add(fn) }
func (q *Quiz) OnCleared(fn func(brainlab.Mode)) (remove func()) { return q.clearedL.Add(fn) }

func (q *Quiz) State() State {
	st := State{Mode: q.mode, Score: q.score, Queue: append([]Target{}, q.queue...)}
	if q.current != nil {
		t := *q.current
		st.Target = &t
	}
	return st
}

// StartGame begins the mode sequence at lobe identification.
func (q *Quiz) StartGame() error { return q.StartMode(brainlab.ModeLobeID) }

// StartMode enters m. Entering the active mode does nothing. A quiz mode
// with no matching entities falls back to free exploration.
func (q *Quiz) StartMode(m brainlab.Mode) error {
	if !m.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownMode, m)
	}
	if m == q.mode {
		return nil
	}

	queue := q.buildQueue(m)
	if m != brainlab.ModeFreeExplore && len(queue) == 0 {
		q.logger.Warn("no entities for quiz mode, falling back to free exploration", "mode", m)
		if q.mode == brainlab.ModeFreeExplore {
			return nil
		}
		m = brainlab.ModeFreeExplore
	}

	q.gen++
	from := q.mode
	q.mode = m
	q.queue = queue
	q.current = nil
	q.logger.Debug("quiz mode change", "from", from, "to", m, "targets", len(queue))

	q.modeL.Emit(ModeChange{From: from, To: m})
	q.infoL.Emit(InfoPanel{})
	if m == brainlab.ModeLobeID {
		q.setScore(0)
	}
	if m == brainlab.ModeFreeExplore {
		q.instructionL.Emit("Free exploration: click any structure to learn about it.")
		return nil
	}
	q.next()
	return nil
}

// Select scores a click on e against the current target. Outside a round it
// only shows the entity's information.
func (q *Quiz) Select(e *brainlab.Entity) Outcome {
	if e == nil || e.Name == "" {
		return Ignored
	}
	if q.mode == brainlab.ModeFreeExplore || q.current == nil {
		q.infoL.Emit(InfoPanel{Visible: true, Name: e.Name, Details: details(*e)})
		return Info
	}

	t := *q.current
	pts := q.cfg.Points[q.mode]
	want := expectedCategory(q.mode)

	if e.Category == want && e.Name == t.Name {
		q.queue = q.queue[1:]
		q.current = nil
		q.setScore(q.score + pts.Correct)
		q.feedbackL.Emit(q.praise(t))
		q.next()
		return Correct
	}

	q.setScore(max(0, q.score-pts.Penalty))
	text := fmt.Sprintf("That's the %s. Try again!", e.Name)
	if e.Category != want {
		text = fmt.Sprintf("That's the %s, which is not %s.", e.Name, categoryNoun(want))
	}
	q.feedbackL.Emit(Feedback{Text: text, Duration: q.cfg.FeedbackDuration})
	return Incorrect
}

func (q *Quiz) setScore(v int) {
	q.score = max(0, v)
	q.scoreL.Emit(q.score)
}

// next makes the queue head current, or clears the mode when the queue is
// empty.
func (q *Quiz) next() {
	if len(q.queue) == 0 {
		q.current = nil
		q.clear()
		return
	}
	if q.mode == brainlab.ModeStructureMatch {
		q.queue[0].Framing = ByName
		if q.rng.Float64() < 0.5 {
			q.queue[0].Framing = ByFunction
		}
	}
	t := q.queue[0]
	q.current = &t
	q.instructionL.Emit(instruction(q.mode, t))
}

// clear announces the finished mode and schedules the next one. The
// generation check drops the advance if another mode was entered meanwhile.
func (q *Quiz) clear() {
	mode := q.mode
	q.feedbackL.Emit(Feedback{Text: clearedText(mode), Positive: true, Duration: q.cfg.ClearedDuration})
	q.clearedL.Emit(mode)

	gen := q.gen
	following := nextMode(mode)
	q.sched.After(q.cfg.AdvanceDelay, func() {
		if q.gen != gen {
			return
		}
		if err := q.StartMode(following); err != nil {
			q.logger.Error("advancing quiz mode", "mode", following, "error", err)
		}
	})
}

func (q *Quiz) buildQueue(m brainlab.Mode) []Target {
	want := expectedCategory(m)
	if want == "" {
		return nil
	}
	seen := make(map[string]bool)
	var queue []Target
	for _, e := range q.entities {
		if e.Category != want || e.Name == "" || seen[e.Name] {
			continue
		}
		if m == brainlab.ModeStructureMatch && e.Function == "" {
			continue
		}
		if m == brainlab.ModeNerveQuiz && e.Nerve == nil {
			continue
		}
		seen[e.Name] = true
		queue = append(queue, Target{Name: e.Name, Category: e.Category, Function: e.Function, Nerve: e.Nerve})
	}
	q.rng.Shuffle(len(queue), func(i, j int) { queue[i], queue[j] = queue[j], queue[i] })
	return queue
}

func (q *Quiz) praise(t Target) Feedback {
	switch q.mode {
	case brainlab.ModeStructureMatch:
		return Feedback{
			Text:     fmt.Sprintf("Correct! %s: %s", t.Name, t.Function),
			Positive: true,
			Duration: q.cfg.RevealDuration,
		}
	case brainlab.ModeNerveQuiz:
		return Feedback{
			Text:     fmt.Sprintf("Correct! %s (%s): %s", t.Name, nerveLabel(t.Nerve), t.Function),
			Positive: true,
			Duration: q.cfg.RevealDuration,
		}
	}
	return Feedback{Text: fmt.Sprintf("Correct! That's the %s.", t.Name), Positive: true, Duration: q.cfg.FeedbackDuration}
}

func expectedCategory(m brainlab.Mode) brainlab.Category {
	switch m {
	case brainlab.ModeLobeID:
		return brainlab.CategoryLobe
	case brainlab.ModeStructureMatch:
		return brainlab.CategoryDeepStructure
	case brainlab.ModeNerveQuiz:
		return brainlab.CategoryCranialNerve
	}
	return ""
}

func nextMode(m brainlab.Mode) brainlab.Mode {
	switch m {
	case brainlab.ModeLobeID:
		return brainlab.ModeStructureMatch
	case brainlab.ModeStructureMatch:
		return brainlab.ModeNerveQuiz
	}
	return brainlab.ModeFreeExplore
}
