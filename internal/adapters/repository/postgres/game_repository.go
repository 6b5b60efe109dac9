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

type gameRepository struct {
	db DBTX
}

func NewGameRepository(db DBTX) ports.GameRepository {
	return &gameRepository{
		db: db,
	}
}

const gameColumns = `id, external_id, title, url, playtime, description, image_url, best_players, recommended_players, created_at`

func scanGame(row interface{ Scan(...any) error }) (*domain.Game, error) {
	var g domain.Game
	err := row.Scan(
		&g.ID, &g.ExternalID, &g.Title, &g.URL, &g.Playtime, &g.Description,
		&g.ImageURL, &g.BestPlayers, &g.RecommendedPlayers, &g.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *gameRepository) GetByExternalID(ctx context.Context, externalID int64) (*domain.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE external_id = $1`
	game, err := scanGame(r.db.QueryRowContext(ctx, query, externalID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game by external id: %w", err)
	}
	return game, nil
}

func (r *gameRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = $1`
	game, err := scanGame(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return game, nil
}

// Create caches game. A game already cached under the same external id is
// left untouched and loaded into game.
func (r *gameRepository) Create(ctx context.Context, game *domain.Game) error {
	query := `
		INSERT INTO games (` + gameColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (external_id) DO UPDATE SET external_id = EXCLUDED.external_id
		RETURNING ` + gameColumns
	stored, err := scanGame(r.db.QueryRowContext(ctx, query,
		game.ID, game.ExternalID, game.Title, game.URL, game.Playtime, game.Description,
		game.ImageURL, game.BestPlayers, game.RecommendedPlayers, game.CreatedAt,
	))
	if err != nil {
		return fmt.Errorf("failed to cache game: %w", err)
	}
	*game = *stored
	return nil
}
