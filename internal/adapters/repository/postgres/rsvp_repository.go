package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/tabletop/internal/core/domain"
	"github.com/vncsmyrnk/tabletop/internal/core/ports"
)

type rsvpRepository struct {
	db DBTX
}

func NewRsvpRepository(db DBTX) ports.RsvpRepository {
	return &rsvpRepository{
		db: db,
	}
}

var _ ports.RsvpRoster = (*rsvpRepository)(nil)

func (r *rsvpRepository) Create(ctx context.Context, rsvp *domain.Rsvp) error {
	query := `INSERT INTO rsvps (id, event_id, member_id, created_at) VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query, rsvp.ID, rsvp.EventID, rsvp.MemberID, rsvp.CreatedAt)
	switch {
	case err == nil:
		return nil
	case violates(err, uniqueViolation, "rsvps_event_member_key"):
		return domain.ErrAlreadyRsvped
	case violates(err, foreignKeyViolation, "rsvps_event_id_fkey"):
		return domain.ErrEventNotFound
	case violates(err, foreignKeyViolation, "rsvps_member_id_fkey"):
		return domain.ErrMemberNotFound
	default:
		return fmt.Errorf("failed to create rsvp: %w", err)
	}
}

func (r *rsvpRepository) Delete(ctx context.Context, eventID, memberID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rsvps WHERE event_id = $1 AND member_id = $2`, eventID, memberID)
	if err != nil {
		return fmt.Errorf("failed to delete rsvp: %w", err)
	}
	return requireAffected(res, domain.ErrNotRsvped)
}

func (r *rsvpRepository) HasRsvp(ctx context.Context, memberID, eventID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM rsvps WHERE member_id = $1 AND event_id = $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, memberID, eventID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check rsvp: %w", err)
	}
	return exists, nil
}

func (r *rsvpRepository) CountByEvent(ctx context.Context, eventID uuid.UUID) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rsvps WHERE event_id = $1`, eventID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rsvps: %w", err)
	}
	return count, nil
}

func (r *rsvpRepository) DeleteByEvent(ctx context.Context, eventID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM rsvps WHERE event_id = $1`, eventID); err != nil {
		return fmt.Errorf("failed to delete rsvps: %w", err)
	}
	return nil
}
