package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// RelationshipState acumula la historia del vinculo (user, personality).
type RelationshipState struct {
	ID                uuid.UUID `json:"id"`
	UserID            uuid.UUID `json:"user_id"`
	PersonalityID     uuid.UUID `json:"personality_id"`
	TotalMessages     int       `json:"total_messages"`
	DepthScore        float64   `json:"depth_score"`
	TrustLevel        float64   `json:"trust_level"`
	PositiveReactions int       `json:"positive_reactions"`
	NegativeReactions int       `json:"negative_reactions"`
	FirstInteraction  time.Time `json:"first_interaction"`
	LastInteraction   time.Time `json:"last_interaction"`
	Milestones        []string  `json:"milestones"`
}

// ComputeDepthScore aplica la formula de profundidad del vinculo:
// min(10, 1.5*ln(messages+1) + days_known/30 + (pos-neg)/10).
func (r *RelationshipState) ComputeDepthScore(now time.Time) float64 {
	daysKnown := 0.0
	if !r.FirstInteraction.IsZero() && now.After(r.FirstInteraction) {
		daysKnown = now.Sub(r.FirstInteraction).Hours() / 24
	}
	score := 1.5*math.Log(float64(r.TotalMessages)+1) +
		daysKnown/30 +
		float64(r.PositiveReactions-r.NegativeReactions)/10
	if score < 0 {
		score = 0
	}
	return math.Min(10, score)
}

// ApplyReaction desplaza la confianza: +0.1 positiva, -0.2 negativa.
func (r *RelationshipState) ApplyReaction(positive bool) {
	if positive {
		r.PositiveReactions++
		r.TrustLevel += 0.1
	} else {
		r.NegativeReactions++
		r.TrustLevel -= 0.2
	}
	if r.TrustLevel < 0 {
		r.TrustLevel = 0
	}
	if r.TrustLevel > 10 {
		r.TrustLevel = 10
	}
}
