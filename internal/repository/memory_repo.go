package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"companion-llm/internal/domain"
)

type MemoryRepository interface {
	Create(ctx context.Context, m domain.Memory) error
	// Search ejecuta busqueda ANN por coseno restringida a memorias activas del
	// usuario, visibles para la personalidad (propias o compartidas).
	Search(ctx context.Context, userID, personalityID uuid.UUID, query pgvector.Vector, k int) ([]domain.ScoredMemory, error)
	// SearchSameCategory busca candidatas a contradiccion: misma categoria,
	// misma personalidad, activas.
	SearchSameCategory(ctx context.Context, userID, personalityID uuid.UUID, category string, query pgvector.Vector, k int) ([]domain.ScoredMemory, error)
	Supersede(ctx context.Context, oldID, newID uuid.UUID, cause string) error
	TouchAccess(ctx context.Context, ids []uuid.UUID, at time.Time) error
	ListActive(ctx context.Context, userID, personalityID uuid.UUID, limit int) ([]domain.Memory, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Memory, error)
	Deactivate(ctx context.Context, userID, id uuid.UUID) error
}

type PgMemoryRepository struct {
	pool *pgxpool.Pool
}

func NewPgMemoryRepository(pool *pgxpool.Pool) *PgMemoryRepository {
	return &PgMemoryRepository{pool: pool}
}

const memoryColumns = `
	id, user_id, personality_id, conversation_id, content, embedding, category,
	importance, importance_detail, created_at, updated_at, last_accessed,
	access_count, decay_factor, is_active, superseded_by, consolidated_from,
	consolidation_type, related_entities, is_shared
`

func (r *PgMemoryRepository) Create(ctx context.Context, m domain.Memory) error {
	const query = `
		INSERT INTO memories (` + memoryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`
	var superseded interface{}
	if m.SupersededBy != nil {
		superseded = *m.SupersededBy
	}
	_, err := r.pool.Exec(ctx, query,
		m.ID, m.UserID, m.PersonalityID, m.ConversationID, m.Content, m.Embedding, m.Category,
		m.Importance, m.ImportanceDetail, m.CreatedAt, m.UpdatedAt, m.LastAccessed,
		m.AccessCount, m.DecayFactor, m.IsActive, superseded, m.ConsolidatedFrom,
		m.ConsolidationType, m.RelatedEntities, m.IsShared,
	)
	return err
}

func (r *PgMemoryRepository) Search(ctx context.Context, userID, personalityID uuid.UUID, query pgvector.Vector, k int) ([]domain.ScoredMemory, error) {
	if k <= 0 {
		k = 5
	}
	const sql = `
		SELECT ` + memoryColumns + `, 1 - (embedding <=> $4) AS similarity
		FROM memories
		WHERE is_active = true
		  AND user_id = $1
		  AND (personality_id = $2 OR is_shared = true)
		ORDER BY embedding <=> $4
		LIMIT $3
	`
	rows, err := r.pool.Query(ctx, sql, userID, personalityID, k, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanScoredMemories(rows)
}

func (r *PgMemoryRepository) SearchSameCategory(ctx context.Context, userID, personalityID uuid.UUID, category string, query pgvector.Vector, k int) ([]domain.ScoredMemory, error) {
	if k <= 0 {
		k = 10
	}
	const sql = `
		SELECT ` + memoryColumns + `, 1 - (embedding <=> $5) AS similarity
		FROM memories
		WHERE is_active = true
		  AND user_id = $1
		  AND personality_id = $2
		  AND category = $3
		ORDER BY embedding <=> $5
		LIMIT $4
	`
	rows, err := r.pool.Query(ctx, sql, userID, personalityID, category, k, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanScoredMemories(rows)
}

// Supersede desactiva la memoria vieja y la apunta a la nueva. La condicion
// superseded_by IS NULL garantiza una sola causa de consolidacion por par.
func (r *PgMemoryRepository) Supersede(ctx context.Context, oldID, newID uuid.UUID, cause string) error {
	const query = `
		UPDATE memories SET
			is_active = false,
			superseded_by = $2,
			consolidation_type = $3,
			updated_at = now()
		WHERE id = $1 AND superseded_by IS NULL
	`
	_, err := r.pool.Exec(ctx, query, oldID, newID, cause)
	return err
}

func (r *PgMemoryRepository) TouchAccess(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	const query = `
		UPDATE memories SET
			access_count = access_count + 1,
			last_accessed = $2
		WHERE id = ANY($1)
	`
	_, err := r.pool.Exec(ctx, query, ids, at)
	return err
}

func (r *PgMemoryRepository) ListActive(ctx context.Context, userID, personalityID uuid.UUID, limit int) ([]domain.Memory, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
		SELECT ` + memoryColumns + `
		FROM memories
		WHERE is_active = true
		  AND user_id = $1
		  AND (personality_id = $2 OR is_shared = true)
		ORDER BY importance DESC, created_at DESC
		LIMIT $3
	`
	rows, err := r.pool.Query(ctx, query, userID, personalityID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PgMemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Memory, error) {
	const query = `
		SELECT ` + memoryColumns + `
		FROM memories
		WHERE id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)
	return scanMemoryRow(row)
}

func (r *PgMemoryRepository) Deactivate(ctx context.Context, userID, id uuid.UUID) error {
	const query = `
		UPDATE memories SET is_active = false, updated_at = now()
		WHERE id = $1 AND user_id = $2
	`
	_, err := r.pool.Exec(ctx, query, id, userID)
	return err
}

// pgxRows is a minimal interface to allow scanning from pgx rows and simplify testing.
type pgxRows interface {
	Next() bool
	Scan(...interface{}) error
	Err() error
	Close()
}

func memoryScanTargets(m *domain.Memory, superseded **uuid.UUID) []interface{} {
	return []interface{}{
		&m.ID, &m.UserID, &m.PersonalityID, &m.ConversationID, &m.Content, &m.Embedding, &m.Category,
		&m.Importance, &m.ImportanceDetail, &m.CreatedAt, &m.UpdatedAt, &m.LastAccessed,
		&m.AccessCount, &m.DecayFactor, &m.IsActive, superseded, &m.ConsolidatedFrom,
		&m.ConsolidationType, &m.RelatedEntities, &m.IsShared,
	}
}

func scanMemory(rows pgxRows) (domain.Memory, error) {
	var m domain.Memory
	var superseded *uuid.UUID
	if err := rows.Scan(memoryScanTargets(&m, &superseded)...); err != nil {
		return domain.Memory{}, err
	}
	m.SupersededBy = superseded
	return m, nil
}

func scanMemoryRow(row rowScanner) (domain.Memory, error) {
	var m domain.Memory
	var superseded *uuid.UUID
	if err := row.Scan(memoryScanTargets(&m, &superseded)...); err != nil {
		return domain.Memory{}, err
	}
	m.SupersededBy = superseded
	return m, nil
}

func scanScoredMemories(rows pgxRows) ([]domain.ScoredMemory, error) {
	var out []domain.ScoredMemory
	for rows.Next() {
		var sm domain.ScoredMemory
		var superseded *uuid.UUID
		targets := append(memoryScanTargets(&sm.Memory, &superseded), &sm.Similarity)
		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}
		sm.SupersededBy = superseded
		out = append(out, sm)
	}
	return out, rows.Err()
}
