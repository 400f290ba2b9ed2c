package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-bot/internal/domain"
)

// BanRepository persists the set of banned identities.
type BanRepository interface {
	IsBanned(ctx context.Context, identity domain.Identity) (bool, error)
	Add(ctx context.Context, identity domain.Identity, reason string) (bool, error)
	Remove(ctx context.Context, identity domain.Identity) (bool, error)
	List(ctx context.Context) ([]domain.Identity, error)
}

type banRepository struct {
	pool *pgxpool.Pool
}

// NewBanRepository instantiates the repository.
func NewBanRepository(pool *pgxpool.Pool) BanRepository {
	return &banRepository{pool: pool}
}

func (r *banRepository) IsBanned(ctx context.Context, identity domain.Identity) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM banned_identities WHERE identity=$1)`
	var banned bool
	if err := r.pool.QueryRow(ctx, query, identity.String()).Scan(&banned); err != nil {
		return false, err
	}
	return banned, nil
}

// Add inserts the identity; returns true only when it was newly banned.
func (r *banRepository) Add(ctx context.Context, identity domain.Identity, reason string) (bool, error) {
	const query = `
        INSERT INTO banned_identities (identity, reason)
        VALUES ($1,$2)
        ON CONFLICT (identity) DO NOTHING`
	cmd, err := r.pool.Exec(ctx, query, identity.String(), reason)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *banRepository) Remove(ctx context.Context, identity domain.Identity) (bool, error) {
	const query = `DELETE FROM banned_identities WHERE identity=$1`
	cmd, err := r.pool.Exec(ctx, query, identity.String())
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *banRepository) List(ctx context.Context) ([]domain.Identity, error) {
	const query = `SELECT identity FROM banned_identities ORDER BY banned_at`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	identities := []domain.Identity{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		identities = append(identities, domain.Identity(id))
	}
	return identities, rows.Err()
}
