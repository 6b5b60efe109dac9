package domain

import (
	"time"

	"github.com/google/uuid"
)

type Vote struct {
	ID           uuid.UUID `json:"id"`
	MemberID     uuid.UUID `json:"member_id"`
	SuggestionID uuid.UUID `json:"suggestion_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// SuggestionTotal is the weighted count of one suggestion that received at
// least one ballot.
type SuggestionTotal struct {
	SuggestionID uuid.UUID `json:"suggestion_id"`
	GameID       uuid.UUID `json:"game_id"`
	BallotNumber int       `json:"ballot_number"`
	Title        string    `json:"title"`
	Votes        int       `json:"votes"`
}

// Ballot is a vote joined with the voter's current power and the suggestion
// it counts for.
type Ballot struct {
	MemberID     uuid.UUID
	SuggestionID uuid.UUID
	GameID       uuid.UUID
	BallotNumber int
	Title        string
	Power        int
}
