package domain

import (
	"time"

	"github.com/google/uuid"
)

// Arquetipos con bundles de rasgos por defecto.
const (
	ArchetypeWiseMentor          = "wise_mentor"
	ArchetypeSupportiveFriend    = "supportive_friend"
	ArchetypeGirlfriend          = "girlfriend"
	ArchetypeBoyfriend           = "boyfriend"
	ArchetypeCoach               = "coach"
	ArchetypePlayfulCompanion    = "playful_companion"
	ArchetypeIntellectualPartner = "intellectual_partner"
	ArchetypeCaringSibling       = "caring_sibling"
	ArchetypeMysteriousStranger  = "mysterious_stranger"
	ArchetypeCustom              = "custom"
)

// KnownArchetypes lista los nueve arquetipos nombrados.
var KnownArchetypes = []string{
	ArchetypeWiseMentor,
	ArchetypeSupportiveFriend,
	ArchetypeGirlfriend,
	ArchetypeBoyfriend,
	ArchetypeCoach,
	ArchetypePlayfulCompanion,
	ArchetypeIntellectualPartner,
	ArchetypeCaringSibling,
	ArchetypeMysteriousStranger,
}

// IsKnownArchetype acepta los nueve nombrados o "custom".
func IsKnownArchetype(a string) bool {
	if a == ArchetypeCustom {
		return true
	}
	for _, k := range KnownArchetypes {
		if k == a {
			return true
		}
	}
	return false
}

// TraitSet son los ocho escalares de personalidad en [0,10].
type TraitSet struct {
	Humor          float64 `json:"humor"`
	Formality      float64 `json:"formality"`
	Enthusiasm     float64 `json:"enthusiasm"`
	Empathy        float64 `json:"empathy"`
	Directness     float64 `json:"directness"`
	Curiosity      float64 `json:"curiosity"`
	Supportiveness float64 `json:"supportiveness"`
	Playfulness    float64 `json:"playfulness"`
}

// Clamp acota cada rasgo al rango [0,10].
func (t *TraitSet) Clamp() {
	for _, p := range []*float64{
		&t.Humor, &t.Formality, &t.Enthusiasm, &t.Empathy,
		&t.Directness, &t.Curiosity, &t.Supportiveness, &t.Playfulness,
	} {
		if *p < 0 {
			*p = 0
		}
		if *p > 10 {
			*p = 10
		}
	}
}

// BehaviorFlags son los cinco interruptores de conducta.
type BehaviorFlags struct {
	AsksQuestions  bool `json:"asks_questions"`
	UsesExamples   bool `json:"uses_examples"`
	SharesOpinions bool `json:"shares_opinions"`
	ChallengesUser bool `json:"challenges_user"`
	CelebratesWins bool `json:"celebrates_wins"`
}

// Personality es un perfil nombrado por usuario, unico por (user, name).
// Version crece monotonicamente en cada actualizacion.
type Personality struct {
	ID                 uuid.UUID     `json:"id"`
	UserID             uuid.UUID     `json:"user_id"`
	Name               string        `json:"name"`
	Archetype          string        `json:"archetype"`
	Traits             TraitSet      `json:"traits"`
	Behaviors          BehaviorFlags `json:"behaviors"`
	Backstory          string        `json:"backstory,omitempty"`
	SpeakingStyle      string        `json:"speaking_style,omitempty"`
	CustomInstructions string        `json:"custom_instructions,omitempty"`
	Version            int           `json:"version"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// DefaultTraitsFor devuelve el bundle de rasgos base de un arquetipo.
func DefaultTraitsFor(archetype string) (TraitSet, BehaviorFlags) {
	switch archetype {
	case ArchetypeWiseMentor:
		return TraitSet{Humor: 3, Formality: 7, Enthusiasm: 4, Empathy: 7, Directness: 6, Curiosity: 6, Supportiveness: 8, Playfulness: 2},
			BehaviorFlags{AsksQuestions: true, UsesExamples: true, SharesOpinions: true, ChallengesUser: true}
	case ArchetypeSupportiveFriend:
		return TraitSet{Humor: 6, Formality: 2, Enthusiasm: 7, Empathy: 9, Directness: 4, Curiosity: 6, Supportiveness: 9, Playfulness: 6},
			BehaviorFlags{AsksQuestions: true, UsesExamples: false, SharesOpinions: true, CelebratesWins: true}
	case ArchetypeGirlfriend, ArchetypeBoyfriend:
		return TraitSet{Humor: 6, Formality: 1, Enthusiasm: 8, Empathy: 9, Directness: 5, Curiosity: 7, Supportiveness: 9, Playfulness: 8},
			BehaviorFlags{AsksQuestions: true, SharesOpinions: true, CelebratesWins: true}
	case ArchetypeCoach:
		return TraitSet{Humor: 4, Formality: 5, Enthusiasm: 9, Empathy: 6, Directness: 9, Curiosity: 5, Supportiveness: 7, Playfulness: 3},
			BehaviorFlags{AsksQuestions: true, UsesExamples: true, ChallengesUser: true, CelebratesWins: true}
	case ArchetypePlayfulCompanion:
		return TraitSet{Humor: 9, Formality: 1, Enthusiasm: 9, Empathy: 6, Directness: 5, Curiosity: 8, Supportiveness: 6, Playfulness: 10},
			BehaviorFlags{AsksQuestions: true, SharesOpinions: true, CelebratesWins: true}
	case ArchetypeIntellectualPartner:
		return TraitSet{Humor: 5, Formality: 6, Enthusiasm: 6, Empathy: 5, Directness: 7, Curiosity: 10, Supportiveness: 5, Playfulness: 4},
			BehaviorFlags{AsksQuestions: true, UsesExamples: true, SharesOpinions: true, ChallengesUser: true}
	case ArchetypeCaringSibling:
		return TraitSet{Humor: 7, Formality: 1, Enthusiasm: 6, Empathy: 8, Directness: 7, Curiosity: 5, Supportiveness: 8, Playfulness: 7},
			BehaviorFlags{AsksQuestions: true, SharesOpinions: true, ChallengesUser: true, CelebratesWins: true}
	case ArchetypeMysteriousStranger:
		return TraitSet{Humor: 4, Formality: 5, Enthusiasm: 3, Empathy: 4, Directness: 3, Curiosity: 9, Supportiveness: 3, Playfulness: 5},
			BehaviorFlags{AsksQuestions: true, SharesOpinions: false}
	}
	// custom u otro: punto medio neutro
	return TraitSet{Humor: 5, Formality: 5, Enthusiasm: 5, Empathy: 5, Directness: 5, Curiosity: 5, Supportiveness: 5, Playfulness: 5},
		BehaviorFlags{AsksQuestions: true}
}
