package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"companion-llm/internal/domain"
)

type PreferenceRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (domain.PreferenceProfile, error)
	Upsert(ctx context.Context, pref domain.PreferenceProfile) error
}

type PgPreferenceRepository struct {
	pool *pgxpool.Pool
}

func NewPgPreferenceRepository(pool *pgxpool.Pool) *PgPreferenceRepository {
	return &PgPreferenceRepository{pool: pool}
}

func (r *PgPreferenceRepository) Get(ctx context.Context, userID uuid.UUID) (domain.PreferenceProfile, error) {
	const query = `
		SELECT id, user_id, language, formality, tone, emoji_usage, response_length, explanation_style, updated_at
		FROM preference_profiles
		WHERE user_id = $1
	`
	var pref domain.PreferenceProfile
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&pref.ID, &pref.UserID, &pref.Language, &pref.Formality, &pref.Tone,
		&pref.EmojiUsage, &pref.ResponseLength, &pref.ExplanationStyle, &pref.UpdatedAt,
	)
	return pref, err
}

func (r *PgPreferenceRepository) Upsert(ctx context.Context, pref domain.PreferenceProfile) error {
	const query = `
		INSERT INTO preference_profiles (id, user_id, language, formality, tone, emoji_usage, response_length, explanation_style, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id)
		DO UPDATE SET
			language = EXCLUDED.language,
			formality = EXCLUDED.formality,
			tone = EXCLUDED.tone,
			emoji_usage = EXCLUDED.emoji_usage,
			response_length = EXCLUDED.response_length,
			explanation_style = EXCLUDED.explanation_style,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.pool.Exec(ctx, query,
		pref.ID, pref.UserID, pref.Language, pref.Formality, pref.Tone,
		pref.EmojiUsage, pref.ResponseLength, pref.ExplanationStyle, pref.UpdatedAt,
	)
	return err
}
