package domain

import (
	"time"

	"github.com/google/uuid"
)

// Game is cached catalog metadata. Rows are never updated once stored.
type Game struct {
	ID                 uuid.UUID `json:"id"`
	ExternalID         int64     `json:"external_id"`
	Title              string    `json:"title"`
	URL                string    `json:"url"`
	Playtime           string    `json:"playtime,omitempty"`
	Description        string    `json:"description,omitempty"`
	ImageURL           string    `json:"image_url,omitempty"`
	BestPlayers        string    `json:"best_players,omitempty"`
	RecommendedPlayers string    `json:"recommended_players,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}
