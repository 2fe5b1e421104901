// Package brainlab defines the core domain types shared by the simulator and
// the quiz. It has no dependencies outside the standard library.
package brainlab

type Category string

const (
	CategoryLobe          Category = "lobe"
	CategoryDeepStructure Category = "deep_structure"
	CategoryCranialNerve  Category = "cranial_nerve"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryLobe, CategoryDeepStructure, CategoryCranialNerve:
		return true
	}
	return false
}

// Entity is the metadata attached to one clickable object in the 3D scene.
type Entity struct {
	Name     string
	Category Category
	Function string
	InfoText string
	Nerve    *NerveInfo
}

type NerveInfo struct {
	Number    int    `json:"number"`
	ShortName string `json:"shortName"`
	Modality  string `json:"modality"`
}

type Phase string

const (
	PhaseResting         Phase = "resting"
	PhaseDepolarizing    Phase = "depolarizing"
	PhaseRepolarizing    Phase = "repolarizing"
	PhaseHyperpolarizing Phase = "hyperpolarizing"
	PhaseRecovery        Phase = "resting_recovery"
)

type ChannelState string

const (
	ChannelClosed   ChannelState = "closed"
	ChannelOpen     ChannelState = "open"
	ChannelInactive ChannelState = "inactive"
)

type Species string

const (
	Sodium    Species = "sodium"
	Potassium Species = "potassium"
)

type Mode string

const (
	ModeFreeExplore    Mode = "free_explore"
	ModeLobeID         Mode = "lobe_id"
	ModeStructureMatch Mode = "structure_match"
	ModeNerveQuiz      Mode = "nerve_quiz"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeFreeExplore, ModeLobeID, ModeStructureMatch, ModeNerveQuiz:
		return true
	}
	return false
}

// Rand is the random source injected into the simulator and the quiz.
// *math/rand/v2.Rand satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
	Shuffle(n int, swap func(i, j int))
}
