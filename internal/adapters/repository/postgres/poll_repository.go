package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/tabletop/internal/core/domain"
	"github.com/vncsmyrnk/tabletop/internal/core/ports"
)

type pollRepository struct {
	db DBTX
}

func NewPollRepository(db DBTX) ports.PollRepository {
	return &pollRepository{
		db: db,
	}
}

const pollColumns = `id, event_id, active, deadline, created_at`

// Create fails with domain.ErrPollAlreadyOpen when another active poll
// exists, including one committed concurrently.
func (r *pollRepository) Create(ctx context.Context, poll *domain.Poll) error {
	query := `INSERT INTO polls (` + pollColumns + `) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, poll.ID, poll.EventID, poll.Active, poll.Deadline, poll.CreatedAt)
	switch {
	case err == nil:
		return nil
	case violates(err, uniqueViolation, "polls_single_active_idx"):
		return domain.ErrPollAlreadyOpen
	case violates(err, foreignKeyViolation, "polls_event_id_fkey"):
		return domain.ErrEventNotFound
	default:
		return fmt.Errorf("failed to create poll: %w", err)
	}
}

func (r *pollRepository) GetActive(ctx context.Context) (*domain.Poll, error) {
	return r.getOne(ctx, `SELECT `+pollColumns+` FROM polls WHERE active FOR SHARE`)
}

func (r *pollRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Poll, error) {
	return r.getOne(ctx, `SELECT `+pollColumns+` FROM polls WHERE id = $1 FOR UPDATE`, id)
}

func (r *pollRepository) GetByEvent(ctx context.Context, eventID uuid.UUID) (*domain.Poll, error) {
	return r.getOne(ctx, `SELECT `+pollColumns+` FROM polls WHERE event_id = $1 FOR UPDATE`, eventID)
}

func (r *pollRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM polls WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete poll: %w", err)
	}
	return nil
}

func (r *pollRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Poll, error) {
	var poll domain.Poll
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&poll.ID, &poll.EventID, &poll.Active, &poll.Deadline, &poll.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}
	poll.Deadline = poll.Deadline.UTC()
	poll.CreatedAt = poll.CreatedAt.UTC()
	return &poll, nil
}
