package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"companion-llm/internal/domain"
)

type UserRepository interface {
	GetOrCreateByExternalID(ctx context.Context, externalID string) (domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)
}

type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

// GetOrCreateByExternalID resuelve la identidad interna; crea el usuario en el
// primer uso autenticado.
func (r *PgUserRepository) GetOrCreateByExternalID(ctx context.Context, externalID string) (domain.User, error) {
	const selectQuery = `
		SELECT id, external_id, created_at
		FROM users
		WHERE external_id = $1
	`
	var user domain.User
	err := r.pool.QueryRow(ctx, selectQuery, externalID).Scan(&user.ID, &user.ExternalID, &user.CreatedAt)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}

	user = domain.User{
		ID:         uuid.New(),
		ExternalID: externalID,
		CreatedAt:  time.Now().UTC(),
	}
	const insertQuery = `
		INSERT INTO users (id, external_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (external_id) DO UPDATE SET external_id = EXCLUDED.external_id
		RETURNING id, external_id, created_at
	`
	err = r.pool.QueryRow(ctx, insertQuery, user.ID, user.ExternalID, user.CreatedAt).
		Scan(&user.ID, &user.ExternalID, &user.CreatedAt)
	return user, err
}

func (r *PgUserRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	const query = `
		SELECT id, external_id, created_at
		FROM users
		WHERE id = $1
	`
	var user domain.User
	err := r.pool.QueryRow(ctx, query, id).Scan(&user.ID, &user.ExternalID, &user.CreatedAt)
	return user, err
}
