package domain

import (
	"time"

	"github.com/google/uuid"
)

// Intensidades discretas de una emocion detectada.
const (
	IntensityLow    = "low"
	IntensityMedium = "medium"
	IntensityHigh   = "high"
)

// EmotionSnippetMax acota la retencion del texto original a 100 caracteres.
const EmotionSnippetMax = 100

// EmotionRecord es una emocion detectada en un mensaje del usuario.
// Solo se retiene un snippet, nunca el mensaje completo.
type EmotionRecord struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	Emotion        string    `json:"emotion"`
	Confidence     float64   `json:"confidence"`
	Intensity      string    `json:"intensity"`
	Indicators     []string  `json:"indicators,omitempty"`
	Snippet        string    `json:"snippet"`
	DetectedAt     time.Time `json:"detected_at"`
}

// TruncateSnippet recorta el texto al limite de retencion respetando runas.
func TruncateSnippet(text string) string {
	runes := []rune(text)
	if len(runes) <= EmotionSnippetMax {
		return text
	}
	return string(runes[:EmotionSnippetMax])
}
