package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-bot/internal/domain"
)

// AdminRepository persists the standing admin allow-list and the
// per-identity login failure counters.
type AdminRepository interface {
	IsAdmin(ctx context.Context, identity domain.Identity) (bool, error)
	Add(ctx context.Context, identity domain.Identity, displayName string) (bool, error)
	Remove(ctx context.Context, identity domain.Identity) (bool, error)
	List(ctx context.Context) ([]domain.Identity, error)
	IncrementLoginFailures(ctx context.Context, identity domain.Identity) (int, error)
	ResetLoginFailures(ctx context.Context, identity domain.Identity) error
}

type adminRepository struct {
	pool *pgxpool.Pool
}

// NewAdminRepository instantiates the repository.
func NewAdminRepository(pool *pgxpool.Pool) AdminRepository {
	return &adminRepository{pool: pool}
}

func (r *adminRepository) IsAdmin(ctx context.Context, identity domain.Identity) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM admin_allowlist WHERE identity=$1)`
	var admin bool
	if err := r.pool.QueryRow(ctx, query, identity.String()).Scan(&admin); err != nil {
		return false, err
	}
	return admin, nil
}

func (r *adminRepository) Add(ctx context.Context, identity domain.Identity, displayName string) (bool, error) {
	const query = `
        INSERT INTO admin_allowlist (identity, display_name)
        VALUES ($1,$2)
        ON CONFLICT (identity) DO NOTHING`
	cmd, err := r.pool.Exec(ctx, query, identity.String(), displayName)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *adminRepository) Remove(ctx context.Context, identity domain.Identity) (bool, error) {
	const query = `DELETE FROM admin_allowlist WHERE identity=$1`
	cmd, err := r.pool.Exec(ctx, query, identity.String())
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *adminRepository) List(ctx context.Context) ([]domain.Identity, error) {
	const query = `SELECT identity FROM admin_allowlist ORDER BY added_at`
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

// IncrementLoginFailures bumps the counter and returns the new value.
func (r *adminRepository) IncrementLoginFailures(ctx context.Context, identity domain.Identity) (int, error) {
	const query = `
        INSERT INTO login_failures (identity, failures)
        VALUES ($1, 1)
        ON CONFLICT (identity) DO UPDATE SET failures = login_failures.failures + 1, updated_at = NOW()
        RETURNING failures`
	var failures int
	if err := r.pool.QueryRow(ctx, query, identity.String()).Scan(&failures); err != nil {
		return 0, err
	}
	return failures, nil
}

func (r *adminRepository) ResetLoginFailures(ctx context.Context, identity domain.Identity) error {
	const query = `DELETE FROM login_failures WHERE identity=$1`
	_, err := r.pool.Exec(ctx, query, identity.String())
	return err
}
