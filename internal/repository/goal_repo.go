package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"companion-llm/internal/domain"
)

type GoalRepository interface {
	Create(ctx context.Context, goal domain.Goal) error
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]domain.Goal, error)
}

type PgGoalRepository struct {
	pool *pgxpool.Pool
}

func NewPgGoalRepository(pool *pgxpool.Pool) *PgGoalRepository {
	return &PgGoalRepository{pool: pool}
}

func (r *PgGoalRepository) Create(ctx context.Context, goal domain.Goal) error {
	const query = `
		INSERT INTO goals (id, user_id, title, category, confidence, commitment_level,
			target_timeframe, target_date, motivation, created_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.pool.Exec(ctx, query,
		goal.ID, goal.UserID, goal.Title, goal.Category, goal.Confidence, goal.CommitmentLevel,
		goal.TargetTimeframe, goal.TargetDate, goal.Motivation, goal.CreatedAt, goal.IsActive,
	)
	return err
}

func (r *PgGoalRepository) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]domain.Goal, error) {
	const query = `
		SELECT id, user_id, title, category, confidence, commitment_level,
			target_timeframe, target_date, motivation, created_at, is_active
		FROM goals
		WHERE user_id = $1 AND is_active = true
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Goal
	for rows.Next() {
		var g domain.Goal
		if err := rows.Scan(
			&g.ID, &g.UserID, &g.Title, &g.Category, &g.Confidence, &g.CommitmentLevel,
			&g.TargetTimeframe, &g.TargetDate, &g.Motivation, &g.CreatedAt, &g.IsActive,
		); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
