package quiz

import (
	"fmt"
	"strings"

	"github.com/playperu/brainlab/internal/brainlab"
)

func instruction(m brainlab.Mode, t Target) string {
	switch m {
	case brainlab.ModeLobeID:
		return fmt.Sprintf("Find the %s.", t.Name)
	case brainlab.ModeStructureMatch:
		if t.Framing == ByFunction {
			return fmt.Sprintf("Which structure is responsible for: %s?", t.Function)
		}
		return fmt.Sprintf("Click the %s and recall its function.", t.Name)
	case brainlab.ModeNerveQuiz:
		if t.Nerve != nil {
			return fmt.Sprintf("Find the %s (CN %s).", t.Name, roman(t.Nerve.Number))
		}
		return fmt.Sprintf("Find the %s.", t.Name)
	}
	return ""
}

func clearedText(m brainlab.Mode) string {
	switch m {
	case brainlab.ModeLobeID:
		return "All lobes identified!"
	case brainlab.ModeStructureMatch:
		return "All structures matched!"
	case brainlab.ModeNerveQuiz:
		return "All cranial nerves found!"
	}
	return "Round complete!"
}

func categoryNoun(c brainlab.Category) string {
	switch c {
	case brainlab.CategoryLobe:
		return "a lobe"
	case brainlab.CategoryDeepStructure:
		return "a deep structure"
	case brainlab.CategoryCranialNerve:
		return "a cranial nerve"
	}
	return "the right kind of structure"
}

// details is the info panel body for an entity.
func details(e brainlab.Entity) string {
	var lines []string
	if e.InfoText != "" {
		lines = append(lines, e.InfoText)
	}
	if e.Function != "" {
		lines = append(lines, "Function: "+e.Function)
	}
	if e.Nerve != nil {
		lines = append(lines, nerveLabel(e.Nerve))
	}
	return strings.Join(lines, "\n")
}

func nerveLabel(n *brainlab.NerveInfo) string {
	if n == nil {
		return "cranial nerve"
	}
	label := "CN " + roman(n.Number)
	if n.ShortName != "" {
		label += " " + n.ShortName
	}
	if n.Modality != "" {
		label += ", " + n.Modality
	}
	return label
}

// roman formats the cranial nerve numbers I to XII.
func roman(n int) string {
	if n <= 0 || n > 39 {
		return fmt.Sprint(n)
	}
	var b strings.Builder
	for _, p := range []struct {
		v int
		s string
	}{{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"}} {
		for n >= p.v {
			b.WriteString(p.s)
			n -= p.v
		}
	}
	return b.String()
}
