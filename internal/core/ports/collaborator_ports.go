package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/tabletop/internal/core/domain"
)

// MessageHandle identifies a message emitted by a Transport.
type MessageHandle string

type Transport interface {
	Announce(ctx context.Context, text string) (MessageHandle, error)
	// Retract removes a message, returning domain.ErrMessageNotFound when the
	// transport no longer knows it.
	Retract(ctx context.Context, handle MessageHandle) error
}

// Catalog resolves free-text queries into game metadata. Callers cache the
// result through the suggestion flow before referencing it.
type Catalog interface {
	Resolve(ctx context.Context, query string) (*domain.Game, error)
}

type RsvpRoster interface {
	HasRsvp(ctx context.Context, memberID, eventID uuid.UUID) (bool, error)
}

type Clock interface {
	Now() time.Time
}

type Timer interface {
	Stop() bool
}

// Scheduler defers f by d without blocking the caller.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}
