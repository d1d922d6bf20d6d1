package domain

import (
	"time"

	"github.com/google/uuid"
)

// User mapea un identificador externo opaco a una identidad interna.
// Se crea en el primer uso autenticado.
type User struct {
	ID         uuid.UUID `json:"id"`
	ExternalID string    `json:"external_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Conversation es una secuencia ordenada de mensajes de un usuario,
// ligada a exactamente una personalidad desde su creacion.
type Conversation struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	PersonalityID uuid.UUID `json:"personality_id"`
	CreatedAt     time.Time `json:"created_at"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message es un mensaje append-only dentro de una conversacion.
type Message struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}
