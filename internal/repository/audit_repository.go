package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-bot/internal/domain"
)

// AuditRepository records every inbound message for later review.
type AuditRepository interface {
	Record(ctx context.Context, record domain.AuditRecord) error
}

type auditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository instantiates the repository.
func NewAuditRepository(pool *pgxpool.Pool) AuditRepository {
	return &auditRepository{pool: pool}
}

func (r *auditRepository) Record(ctx context.Context, record domain.AuditRecord) error {
	const query = `
        INSERT INTO message_audit (identity, display_name, body, is_group, banned, received_at)
        VALUES ($1,$2,$3,$4,$5,$6)`
	_, err := r.pool.Exec(ctx, query,
		record.Identity.String(),
		record.DisplayName,
		record.Body,
		record.IsGroup,
		record.Banned,
		record.ReceivedAt,
	)
	return err
}
