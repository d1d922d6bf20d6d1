package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"companion-llm/internal/domain"
)

type PersonalityRepository interface {
	Create(ctx context.Context, p domain.Personality) error
	GetByID(ctx context.Context, id uuid.UUID) (domain.Personality, error)
	GetByName(ctx context.Context, userID uuid.UUID, name string) (domain.Personality, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Personality, error)
	Update(ctx context.Context, p domain.Personality) error
	Delete(ctx context.Context, userID uuid.UUID, name string) error
}

type PgPersonalityRepository struct {
	pool *pgxpool.Pool
}

func NewPgPersonalityRepository(pool *pgxpool.Pool) *PgPersonalityRepository {
	return &PgPersonalityRepository{pool: pool}
}

const personalityColumns = `
	id, user_id, name, archetype, traits, behaviors,
	backstory, speaking_style, custom_instructions, version, created_at, updated_at
`

func (r *PgPersonalityRepository) Create(ctx context.Context, p domain.Personality) error {
	const query = `
		INSERT INTO personalities (` + personalityColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.pool.Exec(ctx, query,
		p.ID, p.UserID, p.Name, p.Archetype, p.Traits, p.Behaviors,
		p.Backstory, p.SpeakingStyle, p.CustomInstructions, p.Version, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (r *PgPersonalityRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Personality, error) {
	const query = `
		SELECT ` + personalityColumns + `
		FROM personalities
		WHERE id = $1
	`
	return scanPersonality(r.pool.QueryRow(ctx, query, id))
}

func (r *PgPersonalityRepository) GetByName(ctx context.Context, userID uuid.UUID, name string) (domain.Personality, error) {
	const query = `
		SELECT ` + personalityColumns + `
		FROM personalities
		WHERE user_id = $1 AND name = $2
	`
	return scanPersonality(r.pool.QueryRow(ctx, query, userID, name))
}

func (r *PgPersonalityRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Personality, error) {
	const query = `
		SELECT ` + personalityColumns + `
		FROM personalities
		WHERE user_id = $1
		ORDER BY name
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Personality
	for rows.Next() {
		p, err := scanPersonality(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update persiste el perfil solo si la version es estrictamente mayor a la
// almacenada, preservando la monotonia de version ante escrituras en carrera.
func (r *PgPersonalityRepository) Update(ctx context.Context, p domain.Personality) error {
	const query = `
		UPDATE personalities SET
			archetype = $3,
			traits = $4,
			behaviors = $5,
			backstory = $6,
			speaking_style = $7,
			custom_instructions = $8,
			version = $9,
			updated_at = $10
		WHERE id = $1 AND user_id = $2 AND version < $9
	`
	_, err := r.pool.Exec(ctx, query,
		p.ID, p.UserID, p.Archetype, p.Traits, p.Behaviors,
		p.Backstory, p.SpeakingStyle, p.CustomInstructions, p.Version, p.UpdatedAt,
	)
	return err
}

func (r *PgPersonalityRepository) Delete(ctx context.Context, userID uuid.UUID, name string) error {
	const query = `
		DELETE FROM personalities
		WHERE user_id = $1 AND name = $2
	`
	_, err := r.pool.Exec(ctx, query, userID, name)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPersonality(row rowScanner) (domain.Personality, error) {
	var p domain.Personality
	err := row.Scan(
		&p.ID, &p.UserID, &p.Name, &p.Archetype, &p.Traits, &p.Behaviors,
		&p.Backstory, &p.SpeakingStyle, &p.CustomInstructions, &p.Version, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}
