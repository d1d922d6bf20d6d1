package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"companion-llm/internal/domain"
)

type EmotionRepository interface {
	Create(ctx context.Context, rec domain.EmotionRecord) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.EmotionRecord, error)
}

type PgEmotionRepository struct {
	pool *pgxpool.Pool
}

func NewPgEmotionRepository(pool *pgxpool.Pool) *PgEmotionRepository {
	return &PgEmotionRepository{pool: pool}
}

func (r *PgEmotionRepository) Create(ctx context.Context, rec domain.EmotionRecord) error {
	const query = `
		INSERT INTO emotion_records (id, user_id, conversation_id, emotion, confidence, intensity, indicators, snippet, detected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		rec.ID, rec.UserID, rec.ConversationID, rec.Emotion, rec.Confidence,
		rec.Intensity, rec.Indicators, rec.Snippet, rec.DetectedAt,
	)
	return err
}

func (r *PgEmotionRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.EmotionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT id, user_id, conversation_id, emotion, confidence, intensity, indicators, snippet, detected_at
		FROM emotion_records
		WHERE user_id = $1
		ORDER BY detected_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.EmotionRecord
	for rows.Next() {
		var rec domain.EmotionRecord
		if err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.ConversationID, &rec.Emotion, &rec.Confidence,
			&rec.Intensity, &rec.Indicators, &rec.Snippet, &rec.DetectedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
