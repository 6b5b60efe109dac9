package domain

import (
	"time"

	"github.com/google/uuid"
)

type Poll struct {
	ID        uuid.UUID `json:"id"`
	EventID   uuid.UUID `json:"event_id"`
	Active    bool      `json:"active"`
	Deadline  time.Time `json:"deadline"`
	CreatedAt time.Time `json:"created_at"`
}

// Remaining is the time left until the deadline. It is zero or negative once
// the deadline has passed, including while the process was down.
func (p Poll) Remaining(now time.Time) time.Duration {
	return p.Deadline.Sub(now)
}

// TrackedMessage is a transport message emitted during a poll, kept so it can
// be retracted when the poll resolves.
type TrackedMessage struct {
	ID        uuid.UUID `json:"id"`
	Handle    string    `json:"handle"`
	CreatedAt time.Time `json:"created_at"`
}

// Outcome reports what Finalize did.
type Outcome struct {
	PollID   uuid.UUID         `json:"poll_id"`
	EventID  uuid.UUID         `json:"event_id"`
	Resolved bool              `json:"resolved"`
	Winner   *SuggestionTotal  `json:"winner,omitempty"`
	Totals   []SuggestionTotal `json:"totals,omitempty"`
	Evicted  []uuid.UUID       `json:"evicted,omitempty"`
}

// NoWinner reports a poll that closed without a single ballot.
func (o Outcome) NoWinner() bool {
	return o.Resolved && o.Winner == nil
}
