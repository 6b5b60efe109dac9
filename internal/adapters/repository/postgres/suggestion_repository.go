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

type suggestionRepository struct {
	db DBTX
}

func NewSuggestionRepository(db DBTX) ports.SuggestionRepository {
	return &suggestionRepository{
		db: db,
	}
}

const (
	suggestionColumns = `id, game_id, author_id, ballot_number, loss_streak, created_at`

	suggestionViewQuery = `
		SELECT s.id, s.game_id, s.author_id, s.ballot_number, s.loss_streak, s.created_at,
			g.title, g.url, m.identity
		FROM suggestions s
		JOIN games g ON g.id = s.game_id
		JOIN members m ON m.id = s.author_id
	`
)

func scanSuggestion(row interface{ Scan(...any) error }) (*domain.Suggestion, error) {
	var s domain.Suggestion
	if err := row.Scan(&s.ID, &s.GameID, &s.AuthorID, &s.BallotNumber, &s.LossStreak, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func scanSuggestionView(row interface{ Scan(...any) error }) (*domain.SuggestionView, error) {
	var v domain.SuggestionView
	err := row.Scan(
		&v.ID, &v.GameID, &v.AuthorID, &v.BallotNumber, &v.LossStreak, &v.CreatedAt,
		&v.Title, &v.URL, &v.Author,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *suggestionRepository) Create(ctx context.Context, suggestion *domain.Suggestion) error {
	query := `INSERT INTO suggestions (` + suggestionColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query,
		suggestion.ID, suggestion.GameID, suggestion.AuthorID, suggestion.BallotNumber, suggestion.LossStreak, suggestion.CreatedAt,
	)
	switch {
	case err == nil:
		return nil
	case violates(err, uniqueViolation, "suggestions_game_id_key"):
		return domain.ErrDuplicateSuggestion
	case violates(err, uniqueViolation, "suggestions_ballot_number_key"):
		return domain.ErrBallotNumberTaken
	default:
		return fmt.Errorf("failed to create suggestion: %w", err)
	}
}

func (r *suggestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Suggestion, error) {
	query := `SELECT ` + suggestionColumns + ` FROM suggestions WHERE id = $1`
	suggestion, err := scanSuggestion(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get suggestion: %w", err)
	}
	return suggestion, nil
}

func (r *suggestionRepository) GetByBallotNumber(ctx context.Context, number int) (*domain.Suggestion, error) {
	query := `SELECT ` + suggestionColumns + ` FROM suggestions WHERE ballot_number = $1`
	suggestion, err := scanSuggestion(r.db.QueryRowContext(ctx, query, number))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get suggestion by ballot number: %w", err)
	}
	return suggestion, nil
}

func (r *suggestionRepository) FindByGame(ctx context.Context, gameID uuid.UUID) (*domain.SuggestionView, error) {
	view, err := scanSuggestionView(r.db.QueryRowContext(ctx, suggestionViewQuery+` WHERE s.game_id = $1`, gameID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find suggestion by game: %w", err)
	}
	return view, nil
}

func (r *suggestionRepository) BallotNumbers(ctx context.Context) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT ballot_number FROM suggestions ORDER BY ballot_number ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list ballot numbers: %w", err)
	}
	defer rows.Close()

	var numbers []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to scan ballot number: %w", err)
		}
		numbers = append(numbers, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ballot numbers: %w", err)
	}
	return numbers, nil
}

func (r *suggestionRepository) List(ctx context.Context) ([]domain.SuggestionView, error) {
	rows, err := r.db.QueryContext(ctx, suggestionViewQuery+` ORDER BY s.ballot_number ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list suggestions: %w", err)
	}
	defer rows.Close()

	var views []domain.SuggestionView
	for rows.Next() {
		view, err := scanSuggestionView(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan suggestion: %w", err)
		}
		views = append(views, *view)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate suggestions: %w", err)
	}
	return views, nil
}

func (r *suggestionRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM suggestions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count suggestions: %w", err)
	}
	return count, nil
}

func (r *suggestionRepository) SetLossStreak(ctx context.Context, id uuid.UUID, streak int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE suggestions SET loss_streak = $2 WHERE id = $1`, id, streak)
	if err != nil {
		return fmt.Errorf("failed to set loss streak: %w", err)
	}
	return requireAffected(res, domain.ErrSuggestionNotFound)
}

// Delete removes the suggestion and, through the foreign key, its votes.
func (r *suggestionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM suggestions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete suggestion: %w", err)
	}
	return nil
}

func (r *suggestionRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM suggestions`); err != nil {
		return fmt.Errorf("failed to clear suggestions: %w", err)
	}
	return nil
}
