package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"companion-llm/internal/domain"
	"companion-llm/internal/repository"
)

// RelationshipTracker mantiene el estado del vinculo (user, personality):
// conteo de mensajes, profundidad, confianza y milestones.
type RelationshipTracker struct {
	repo       repository.RelationshipRepository
	milestones []int
	logger     *zap.Logger
}

func NewRelationshipTracker(repo repository.RelationshipRepository, milestones []int, logger *zap.Logger) *RelationshipTracker {
	if len(milestones) == 0 {
		milestones = []int{10, 50, 100, 500, 1000}
	}
	return &RelationshipTracker{
		repo:       repo,
		milestones: milestones,
		logger:     logger,
	}
}

// Get devuelve el estado actual, vacio si el vinculo aun no existe.
func (t *RelationshipTracker) Get(ctx context.Context, userID, personalityID uuid.UUID) (domain.RelationshipState, error) {
	rel, err := t.repo.Get(ctx, userID, personalityID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.RelationshipState{UserID: userID, PersonalityID: personalityID}, nil
	}
	if err != nil {
		return domain.RelationshipState{}, fmt.Errorf("get relationship: %w", err)
	}
	return rel, nil
}

// RecordExchange registra un intercambio completo (mensaje de usuario mas
// respuesta), recalcula la profundidad y marca milestones alcanzados.
func (t *RelationshipTracker) RecordExchange(ctx context.Context, userID, personalityID uuid.UUID) error {
	now := time.Now().UTC()
	rel, err := t.Get(ctx, userID, personalityID)
	if err != nil {
		return err
	}
	if rel.ID == uuid.Nil {
		rel.ID = uuid.New()
		rel.FirstInteraction = now
		rel.TrustLevel = 1.0
	}

	rel.TotalMessages++
	rel.LastInteraction = now
	rel.DepthScore = rel.ComputeDepthScore(now)

	for _, m := range t.milestones {
		if rel.TotalMessages == m {
			tag := fmt.Sprintf("messages_%d", m)
			rel.Milestones = append(rel.Milestones, tag)
			if t.logger != nil {
				t.logger.Info("relationship milestone",
					zap.String("user_id", userID.String()),
					zap.String("personality_id", personalityID.String()),
					zap.String("milestone", tag),
				)
			}
		}
	}

	if err := t.repo.Upsert(ctx, rel); err != nil {
		return fmt.Errorf("upsert relationship: %w", err)
	}
	return nil
}

// RecordReaction aplica una reaccion explicita del usuario sobre la confianza.
func (t *RelationshipTracker) RecordReaction(ctx context.Context, userID, personalityID uuid.UUID, positive bool) (domain.RelationshipState, error) {
	now := time.Now().UTC()
	rel, err := t.Get(ctx, userID, personalityID)
	if err != nil {
		return domain.RelationshipState{}, err
	}
	if rel.ID == uuid.Nil {
		rel.ID = uuid.New()
		rel.FirstInteraction = now
		rel.TrustLevel = 1.0
	}
	rel.ApplyReaction(positive)
	rel.LastInteraction = now
	rel.DepthScore = rel.ComputeDepthScore(now)
	if err := t.repo.Upsert(ctx, rel); err != nil {
		return domain.RelationshipState{}, fmt.Errorf("upsert relationship: %w", err)
	}
	return rel, nil
}
