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

type memberRepository struct {
	db DBTX
}

func NewMemberRepository(db DBTX) ports.MemberRepository {
	return &memberRepository{
		db: db,
	}
}

const memberColumns = `id, identity, power, created_at`

func scanMember(row interface{ Scan(...any) error }) (*domain.Member, error) {
	var m domain.Member
	if err := row.Scan(&m.ID, &m.Identity, &m.Power, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *memberRepository) GetByIdentity(ctx context.Context, identity string) (*domain.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE identity = $1`
	member, err := scanMember(r.db.QueryRowContext(ctx, query, identity))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member by identity: %w", err)
	}
	return member, nil
}

func (r *memberRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1`
	member, err := scanMember(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return member, nil
}

// Create inserts member, or loads the row already registered under its
// identity into member.
func (r *memberRepository) Create(ctx context.Context, member *domain.Member) error {
	query := `
		INSERT INTO members (id, identity, power, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (identity) DO UPDATE SET identity = EXCLUDED.identity
		RETURNING ` + memberColumns
	stored, err := scanMember(r.db.QueryRowContext(ctx, query, member.ID, member.Identity, member.Power, member.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to create member: %w", err)
	}
	*member = *stored
	return nil
}

func (r *memberRepository) AddPower(ctx context.Context, ids []uuid.UUID, delta int) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE members SET power = power + $2 WHERE id = ANY($1::uuid[])`
	if _, err := r.db.ExecContext(ctx, query, uuidArray(ids), delta); err != nil {
		return fmt.Errorf("failed to add member power: %w", err)
	}
	return nil
}

func (r *memberRepository) ResetPower(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE members SET power = $2 WHERE id = ANY($1::uuid[])`
	if _, err := r.db.ExecContext(ctx, query, uuidArray(ids), domain.DefaultPower); err != nil {
		return fmt.Errorf("failed to reset member power: %w", err)
	}
	return nil
}
