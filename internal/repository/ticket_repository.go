package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-bot/internal/domain"
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	MarkSolved(ctx context.Context, id int64, solution, adminID, adminName string, at time.Time) error
	MarkLongTerm(ctx context.Context, id int64, adminID, adminName string, at time.Time) error
	Reopen(ctx context.Context, id int64) error
	AssignIfUnassigned(ctx context.Context, id int64, adminID, adminName string) (bool, error)
	Unassign(ctx context.Context, id int64, adminID string) (bool, error)
	FindActiveByAssignee(ctx context.Context, adminID string) (*domain.Ticket, error)
	ListOpenOlderThan(ctx context.Context, cutoff time.Time) ([]domain.Ticket, error)
	ListByStatus(ctx context.Context, status domain.TicketStatus) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, requester_identity, requester_name, corpus, room, problem,
               status, created_at, solved_at, assigned_admin, assigned_admin_name, solution`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (requester_identity, requester_name, corpus, room, problem, status)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		ticket.RequesterIdentity,
		ticket.RequesterName,
		ticket.Corpus,
		ticket.Room,
		ticket.Problem,
		ticket.Status,
	).Scan(&ticket.ID, &ticket.CreatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) MarkSolved(ctx context.Context, id int64, solution, adminID, adminName string, at time.Time) error {
	const query = `
        UPDATE tickets SET status=$1, solution=$2, solved_at=$3, assigned_admin=$4, assigned_admin_name=$5
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query, domain.TicketStatusSolved, solution, at, adminID, adminName, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) MarkLongTerm(ctx context.Context, id int64, adminID, adminName string, at time.Time) error {
	// solved_at doubles as the "marked long-term" timestamp.
	const query = `
        UPDATE tickets SET status=$1, solved_at=$2, assigned_admin=$3, assigned_admin_name=$4
        WHERE id=$5`
	cmd, err := r.pool.Exec(ctx, query, domain.TicketStatusLongTerm, at, adminID, adminName, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) Reopen(ctx context.Context, id int64) error {
	const query = `
        UPDATE tickets SET status=$1, solved_at=NULL, assigned_admin=NULL, assigned_admin_name=NULL, solution=NULL
        WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, domain.TicketStatusOpen, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// AssignIfUnassigned is a single conditional update so two admins racing
// for the same ticket cannot both win.
func (r *ticketRepository) AssignIfUnassigned(ctx context.Context, id int64, adminID, adminName string) (bool, error) {
	const query = `
        UPDATE tickets SET assigned_admin=$1, assigned_admin_name=$2
        WHERE id=$3 AND assigned_admin IS NULL AND status=$4`
	cmd, err := r.pool.Exec(ctx, query, adminID, adminName, id, domain.TicketStatusOpen)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *ticketRepository) Unassign(ctx context.Context, id int64, adminID string) (bool, error) {
	const query = `
        UPDATE tickets SET assigned_admin=NULL, assigned_admin_name=NULL
        WHERE id=$1 AND assigned_admin=$2 AND status<>$3`
	cmd, err := r.pool.Exec(ctx, query, id, adminID, domain.TicketStatusSolved)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *ticketRepository) FindActiveByAssignee(ctx context.Context, adminID string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + `
        FROM tickets
        WHERE assigned_admin=$1 AND status NOT IN ($2,$3)
        ORDER BY id LIMIT 1`
	return r.fetchSingle(ctx, query, adminID, domain.TicketStatusSolved, domain.TicketStatusLongTerm)
}

func (r *ticketRepository) ListOpenOlderThan(ctx context.Context, cutoff time.Time) ([]domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + `
        FROM tickets WHERE status=$1 AND created_at < $2 ORDER BY id`
	return r.fetchMany(ctx, query, domain.TicketStatusOpen, cutoff)
}

func (r *ticketRepository) ListByStatus(ctx context.Context, status domain.TicketStatus) ([]domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE status=$1 ORDER BY id`
	return r.fetchMany(ctx, query, status)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&ticket.ID,
		&ticket.RequesterIdentity,
		&ticket.RequesterName,
		&ticket.Corpus,
		&ticket.Room,
		&ticket.Problem,
		&ticket.Status,
		&ticket.CreatedAt,
		&ticket.SolvedAt,
		&ticket.AssignedAdmin,
		&ticket.AssignedAdminName,
		&ticket.Solution,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) fetchMany(ctx context.Context, query string, args ...any) ([]domain.Ticket, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := []domain.Ticket{}
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.RequesterIdentity,
			&ticket.RequesterName,
			&ticket.Corpus,
			&ticket.Room,
			&ticket.Problem,
			&ticket.Status,
			&ticket.CreatedAt,
			&ticket.SolvedAt,
			&ticket.AssignedAdmin,
			&ticket.AssignedAdminName,
			&ticket.Solution,
		); err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return tickets, rows.Err()
}
