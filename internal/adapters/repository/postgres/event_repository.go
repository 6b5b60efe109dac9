package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/tabletop/internal/core/domain"
	"github.com/vncsmyrnk/tabletop/internal/core/ports"
)

type eventRepository struct {
	db DBTX
}

func NewEventRepository(db DBTX) ports.EventRepository {
	return &eventRepository{
		db: db,
	}
}

func (r *eventRepository) Create(ctx context.Context, event *domain.Event) error {
	query := `
		INSERT INTO events (id, name, date, game_decided, winning_game_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query, event.ID, event.Name, event.Date, event.GameDecided, event.WinningGameID, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	query := `SELECT id, name, date, game_decided, winning_game_id, created_at FROM events WHERE id = $1`

	var (
		event  domain.Event
		winner uuid.NullUUID
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(&event.ID, &event.Name, &event.Date, &event.GameDecided, &winner, &event.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if winner.Valid {
		event.WinningGameID = &winner.UUID
	}
	return &event, nil
}

func (r *eventRepository) ListUpcoming(ctx context.Context, after time.Time) ([]domain.EventSummary, error) {
	query := `
		SELECT e.id, e.name, e.date, e.game_decided, e.winning_game_id, e.created_at,
			(SELECT COUNT(*) FROM rsvps r WHERE r.event_id = e.id) AS attendees,
			g.title, g.url
		FROM events e
		LEFT JOIN games g ON g.id = e.winning_game_id
		WHERE e.date >= $1
		ORDER BY e.date ASC
	`
	rows, err := r.db.QueryContext(ctx, query, after)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming events: %w", err)
	}
	defer rows.Close()

	var events []domain.EventSummary
	for rows.Next() {
		var (
			summary domain.EventSummary
			winner  uuid.NullUUID
			title   sql.NullString
			url     sql.NullString
		)
		err := rows.Scan(
			&summary.ID, &summary.Name, &summary.Date, &summary.GameDecided, &winner, &summary.CreatedAt,
			&summary.Attendees, &title, &url,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if winner.Valid {
			summary.WinningGameID = &winner.UUID
			summary.WinningGame = &domain.Game{ID: winner.UUID, Title: title.String, URL: url.String}
		}
		events = append(events, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}

func (r *eventRepository) MarkDecided(ctx context.Context, id uuid.UUID, gameID uuid.UUID) error {
	query := `UPDATE events SET game_decided = TRUE, winning_game_id = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, gameID)
	if err != nil {
		return fmt.Errorf("failed to mark event decided: %w", err)
	}
	return requireAffected(res, domain.ErrEventNotFound)
}

// Delete removes the event. Its rsvps and polls cascade.
func (r *eventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return requireAffected(res, domain.ErrEventNotFound)
}
