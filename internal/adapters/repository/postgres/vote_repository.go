package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/tabletop/internal/core/domain"
	"github.com/vncsmyrnk/tabletop/internal/core/ports"
)

type voteRepository struct {
	db DBTX
}

func NewVoteRepository(db DBTX) ports.VoteRepository {
	return &voteRepository{
		db: db,
	}
}

func (r *voteRepository) Create(ctx context.Context, vote *domain.Vote) error {
	query := `
		INSERT INTO votes (id, member_id, suggestion_id, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, query, vote.ID, vote.MemberID, vote.SuggestionID, vote.CreatedAt)
	switch {
	case err == nil:
		return nil
	case violates(err, uniqueViolation, "votes_member_id_key"):
		return domain.ErrVoteCollision
	case violates(err, foreignKeyViolation, "votes_suggestion_id_fkey"):
		return domain.ErrSuggestionNotFound
	default:
		return fmt.Errorf("failed to save vote: %w", err)
	}
}

func (r *voteRepository) DeleteByMember(ctx context.Context, memberID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM votes WHERE member_id = $1`, memberID); err != nil {
		return fmt.Errorf("failed to delete vote: %w", err)
	}
	return nil
}

func (r *voteRepository) Ballots(ctx context.Context) ([]domain.Ballot, error) {
	query := `
		SELECT v.member_id, s.id, s.game_id, s.ballot_number, g.title, m.power
		FROM votes v
		JOIN suggestions s ON s.id = v.suggestion_id
		JOIN games g ON g.id = s.game_id
		JOIN members m ON m.id = v.member_id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list ballots: %w", err)
	}
	defer rows.Close()

	var ballots []domain.Ballot
	for rows.Next() {
		var b domain.Ballot
		if err := rows.Scan(&b.MemberID, &b.SuggestionID, &b.GameID, &b.BallotNumber, &b.Title, &b.Power); err != nil {
			return nil, fmt.Errorf("failed to scan ballot: %w", err)
		}
		ballots = append(ballots, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ballots: %w", err)
	}
	return ballots, nil
}

func (r *voteRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM votes`); err != nil {
		return fmt.Errorf("failed to clear votes: %w", err)
	}
	return nil
}
