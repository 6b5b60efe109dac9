package domain

import (
	"time"

	"github.com/google/uuid"
)

type Event struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Date          time.Time  `json:"date"`
	GameDecided   bool       `json:"game_decided"`
	WinningGameID *uuid.UUID `json:"winning_game_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// EventSummary is an upcoming event as listed to members.
type EventSummary struct {
	Event
	Attendees   int   `json:"attendees"`
	WinningGame *Game `json:"winning_game,omitempty"`
}

type Rsvp struct {
	ID        uuid.UUID `json:"id"`
	EventID   uuid.UUID `json:"event_id"`
	MemberID  uuid.UUID `json:"member_id"`
	CreatedAt time.Time `json:"created_at"`
}
