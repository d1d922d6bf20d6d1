package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"companion-llm/internal/domain"
)

type RelationshipRepository interface {
	Get(ctx context.Context, userID, personalityID uuid.UUID) (domain.RelationshipState, error)
	Upsert(ctx context.Context, rel domain.RelationshipState) error
}

type PgRelationshipRepository struct {
	pool *pgxpool.Pool
}

func NewPgRelationshipRepository(pool *pgxpool.Pool) *PgRelationshipRepository {
	return &PgRelationshipRepository{pool: pool}
}

func (r *PgRelationshipRepository) Get(ctx context.Context, userID, personalityID uuid.UUID) (domain.RelationshipState, error) {
	const query = `
		SELECT id, user_id, personality_id, total_messages, depth_score, trust_level,
			positive_reactions, negative_reactions, first_interaction, last_interaction, milestones
		FROM relationship_states
		WHERE user_id = $1 AND personality_id = $2
	`
	var rel domain.RelationshipState
	err := r.pool.QueryRow(ctx, query, userID, personalityID).Scan(
		&rel.ID, &rel.UserID, &rel.PersonalityID, &rel.TotalMessages, &rel.DepthScore, &rel.TrustLevel,
		&rel.PositiveReactions, &rel.NegativeReactions, &rel.FirstInteraction, &rel.LastInteraction, &rel.Milestones,
	)
	return rel, err
}

func (r *PgRelationshipRepository) Upsert(ctx context.Context, rel domain.RelationshipState) error {
	const query = `
		INSERT INTO relationship_states (
			id, user_id, personality_id, total_messages, depth_score, trust_level,
			positive_reactions, negative_reactions, first_interaction, last_interaction, milestones
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id, personality_id)
		DO UPDATE SET
			total_messages = EXCLUDED.total_messages,
			depth_score = EXCLUDED.depth_score,
			trust_level = EXCLUDED.trust_level,
			positive_reactions = EXCLUDED.positive_reactions,
			negative_reactions = EXCLUDED.negative_reactions,
			last_interaction = EXCLUDED.last_interaction,
			milestones = EXCLUDED.milestones
	`
	_, err := r.pool.Exec(ctx, query,
		rel.ID, rel.UserID, rel.PersonalityID, rel.TotalMessages, rel.DepthScore, rel.TrustLevel,
		rel.PositiveReactions, rel.NegativeReactions, rel.FirstInteraction, rel.LastInteraction, rel.Milestones,
	)
	return err
}
