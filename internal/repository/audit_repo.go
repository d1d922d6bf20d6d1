package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"companion-llm/internal/domain"
)

type AuditRepository interface {
	Append(ctx context.Context, rec domain.AuditRecord) error
	Stats(ctx context.Context) (domain.AuditStats, error)
}

type PgAuditRepository struct {
	pool *pgxpool.Pool
}

func NewPgAuditRepository(pool *pgxpool.Pool) *PgAuditRepository {
	return &PgAuditRepository{pool: pool}
}

// Append inserta un registro; el log es append-only, nunca se actualiza.
func (r *PgAuditRepository) Append(ctx context.Context, rec domain.AuditRecord) error {
	const query = `
		INSERT INTO audit_records (
			id, ts, conversation_id, user_id, original_text, normalized_text,
			label, confidence, indicators, route, route_locked, age_verified, action, layer_trace
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.pool.Exec(ctx, query,
		rec.ID, rec.Timestamp, rec.ConversationID, rec.UserID, rec.OriginalText, rec.NormalizedText,
		string(rec.Label), rec.Confidence, rec.Indicators, string(rec.Route),
		rec.RouteLocked, rec.AgeVerified, string(rec.Action), rec.LayerTrace,
	)
	return err
}

func (r *PgAuditRepository) Stats(ctx context.Context) (domain.AuditStats, error) {
	stats := domain.AuditStats{
		ByLabel:  map[string]int64{},
		ByRoute:  map[string]int64{},
		ByAction: map[string]int64{},
	}

	const query = `
		SELECT label, route, action, count(*)
		FROM audit_records
		GROUP BY label, route, action
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return stats, err
	}
	defer rows.Close()

	for rows.Next() {
		var label, route, action string
		var n int64
		if err := rows.Scan(&label, &route, &action, &n); err != nil {
			return stats, err
		}
		stats.Total += n
		stats.ByLabel[label] += n
		stats.ByRoute[route] += n
		stats.ByAction[action] += n
	}
	return stats, rows.Err()
}
