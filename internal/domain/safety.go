package domain

import (
	"time"

	"github.com/google/uuid"
)

// Label es el veredicto del clasificador de contenido sobre un mensaje.
type Label string

const (
	LabelSafe                    Label = "SAFE"
	LabelSuggestive              Label = "SUGGESTIVE"
	LabelExplicitConsensualAdult Label = "EXPLICIT_CONSENSUAL_ADULT"
	LabelExplicitFetish          Label = "EXPLICIT_FETISH"
	LabelNonconsensual           Label = "NONCONSENSUAL"
	LabelMinorRisk               Label = "MINOR_RISK"
)

// Severity ordena las etiquetas de menos a mas restrictiva.
// SAFE < SUGGESTIVE < EXPLICIT_* < NONCONSENSUAL < MINOR_RISK.
func (l Label) Severity() int {
	switch l {
	case LabelSafe:
		return 0
	case LabelSuggestive:
		return 1
	case LabelExplicitConsensualAdult, LabelExplicitFetish:
		return 2
	case LabelNonconsensual:
		return 3
	case LabelMinorRisk:
		return 4
	}
	return 0
}

// IsExplicit indica si la etiqueta requiere verificacion de edad.
func (l Label) IsExplicit() bool {
	return l == LabelExplicitConsensualAdult || l == LabelExplicitFetish
}

// Route es el comportamiento de generacion elegido para una respuesta.
type Route string

const (
	RouteNormal      Route = "NORMAL"
	RouteRomance     Route = "ROMANCE"
	RouteExplicit    Route = "EXPLICIT"
	RouteFetish      Route = "FETISH"
	RouteRefusal     Route = "REFUSAL"
	RouteHardRefusal Route = "HARD_REFUSAL"
)

// Action es la decision final del pipeline para el turno actual.
type Action string

const (
	ActionGenerate  Action = "generate"
	ActionRefuse    Action = "refuse"
	ActionAgeVerify Action = "age_verify"
)

// Classification es la salida del clasificador de 4 capas.
type Classification struct {
	Label      Label    `json:"label"`
	Confidence float64  `json:"confidence"`
	Indicators []string `json:"indicators"`
	LayerTrace []string `json:"layer_trace"`
}

// RouteDecision combina etiqueta, sesion y politica de rutas.
type RouteDecision struct {
	Route        Route  `json:"route"`
	Action       Action `json:"action"`
	SystemPrompt string `json:"-"`
	RefusalText  string `json:"refusal_text,omitempty"`
}

// SessionState es el estado por conversacion usado por la maquina de estados.
type SessionState struct {
	ConversationID   uuid.UUID  `json:"conversation_id"`
	UserID           uuid.UUID  `json:"user_id"`
	AgeVerified      bool       `json:"age_verified"`
	AgeVerifiedAt    *time.Time `json:"age_verified_at,omitempty"`
	CurrentRoute     Route      `json:"current_route"`
	RouteLockCounter int        `json:"route_lock_counter"`
	ExplicitAttempts int        `json:"explicit_attempts_without_verification"`
	LastLabel        Label      `json:"last_classification_label,omitempty"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// AuditRecord registra cada decision de clasificacion, se genere o no respuesta.
type AuditRecord struct {
	ID             uuid.UUID `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         uuid.UUID `json:"user_id"`
	OriginalText   string    `json:"original_text"`
	NormalizedText string    `json:"normalized_text"`
	Label          Label     `json:"label"`
	Confidence     float64   `json:"confidence"`
	Indicators     []string  `json:"indicators"`
	Route          Route     `json:"route"`
	RouteLocked    bool      `json:"route_locked"`
	AgeVerified    bool      `json:"age_verified"`
	Action         Action    `json:"action"`
	LayerTrace     []string  `json:"layer_trace"`
}

// AuditStats agrega conteos para monitoreo operacional.
type AuditStats struct {
	Total    int64            `json:"total"`
	ByLabel  map[string]int64 `json:"by_label"`
	ByRoute  map[string]int64 `json:"by_route"`
	ByAction map[string]int64 `json:"by_action"`
}
