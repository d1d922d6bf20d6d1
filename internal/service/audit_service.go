package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"companion-llm/internal/domain"
	"companion-llm/internal/repository"
)

// AuditService registra cada decision de clasificacion. Append-only: se
// escribe antes de generar y nunca se actualiza, con o sin respuesta.
type AuditService struct {
	repo   repository.AuditRepository
	logger *zap.Logger
}

func NewAuditService(repo repository.AuditRepository, logger *zap.Logger) *AuditService {
	return &AuditService{repo: repo, logger: logger}
}

// Limite de retencion del texto original en el registro.
const auditOriginalMax = 500

func truncateAuditText(text string) string {
	runes := []rune(text)
	if len(runes) <= auditOriginalMax {
		return text
	}
	return string(runes[:auditOriginalMax])
}

// Record persiste la decision del turno. Un fallo de auditoria se loguea
// pero no tumba el turno: la auditoria es observabilidad, no gate.
func (s *AuditService) Record(
	ctx context.Context,
	conversationID, userID uuid.UUID,
	original, normalized string,
	classification domain.Classification,
	decision domain.RouteDecision,
	state domain.SessionState,
) {
	rec := domain.AuditRecord{
		ID:             uuid.New(),
		Timestamp:      time.Now().UTC(),
		ConversationID: conversationID,
		UserID:         userID,
		OriginalText:   truncateAuditText(original),
		NormalizedText: normalized,
		Label:          classification.Label,
		Confidence:     classification.Confidence,
		Indicators:     classification.Indicators,
		Route:          decision.Route,
		RouteLocked:    state.RouteLockCounter > 0,
		AgeVerified:    state.AgeVerified,
		Action:         decision.Action,
		LayerTrace:     classification.LayerTrace,
	}
	if err := s.repo.Append(ctx, rec); err != nil && s.logger != nil {
		s.logger.Error("audit append failed",
			zap.String("conversation_id", conversationID.String()),
			zap.Error(err),
		)
	}
}

// Stats agrega conteos por etiqueta, ruta y accion.
func (s *AuditService) Stats(ctx context.Context) (domain.AuditStats, error) {
	return s.repo.Stats(ctx)
}
