package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultPower is the voting power of a new member and of anyone whose pick
// just won.
const DefaultPower = 1

type Member struct {
	ID        uuid.UUID `json:"id"`
	Identity  string    `json:"identity"`
	Power     int       `json:"power"`
	CreatedAt time.Time `json:"created_at"`
}
