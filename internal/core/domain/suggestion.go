package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaxLossStreak is the number of consecutive lost polls after which a
// suggestion leaves the queue.
const MaxLossStreak = 5

type Suggestion struct {
	ID           uuid.UUID `json:"id"`
	GameID       uuid.UUID `json:"game_id"`
	AuthorID     uuid.UUID `json:"author_id"`
	BallotNumber int       `json:"ballot_number"`
	LossStreak   int       `json:"loss_streak"`
	CreatedAt    time.Time `json:"created_at"`
}

// SuggestionView is a suggestion joined with what members need to pick it.
type SuggestionView struct {
	Suggestion
	Title  string `json:"title"`
	URL    string `json:"url"`
	Author string `json:"author"`
}
