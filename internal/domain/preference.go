package domain

import (
	"time"

	"github.com/google/uuid"
)

// PreferenceProfile guarda preferencias de comunicacion por usuario.
// Los campos vacios significan "sin preferencia declarada".
type PreferenceProfile struct {
	ID               uuid.UUID `json:"id"`
	UserID           uuid.UUID `json:"user_id"`
	Language         string    `json:"language,omitempty"`
	Formality        string    `json:"formality,omitempty"`
	Tone             string    `json:"tone,omitempty"`
	EmojiUsage       string    `json:"emoji_usage,omitempty"`
	ResponseLength   string    `json:"response_length,omitempty"`
	ExplanationStyle string    `json:"explanation_style,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Merge aplica sobre el perfil los campos no vacios de other.
func (p *PreferenceProfile) Merge(other PreferenceProfile) bool {
	changed := false
	apply := func(dst *string, src string) {
		if src != "" && src != *dst {
			*dst = src
			changed = true
		}
	}
	apply(&p.Language, other.Language)
	apply(&p.Formality, other.Formality)
	apply(&p.Tone, other.Tone)
	apply(&p.EmojiUsage, other.EmojiUsage)
	apply(&p.ResponseLength, other.ResponseLength)
	apply(&p.ExplanationStyle, other.ExplanationStyle)
	return changed
}
