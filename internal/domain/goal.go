package domain

import (
	"time"

	"github.com/google/uuid"
)

// Goal es una meta del usuario inferida de la conversacion.
type Goal struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"user_id"`
	Title           string     `json:"title"`
	Category        string     `json:"category"`
	Confidence      float64    `json:"confidence"`
	CommitmentLevel float64    `json:"commitment_level"`
	TargetTimeframe string     `json:"target_timeframe,omitempty"`
	TargetDate      *time.Time `json:"target_date,omitempty"`
	Motivation      string     `json:"motivation,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	IsActive        bool       `json:"is_active"`
}
