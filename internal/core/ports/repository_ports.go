package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/tabletop/internal/core/domain"
)

// Lookups that can legitimately miss return (nil, nil); lookups whose miss is
// a caller error return the matching domain.ErrNotFound error.

type MemberRepository interface {
	GetByIdentity(ctx context.Context, identity string) (*domain.Member, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Member, error)
	Create(ctx context.Context, member *domain.Member) error
	AddPower(ctx context.Context, ids []uuid.UUID, delta int) error
	ResetPower(ctx context.Context, ids []uuid.UUID) error
}

type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error)
	ListUpcoming(ctx context.Context, after time.Time) ([]domain.EventSummary, error)
	MarkDecided(ctx context.Context, id uuid.UUID, gameID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type GameRepository interface {
	GetByExternalID(ctx context.Context, externalID int64) (*domain.Game, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Game, error)
	Create(ctx context.Context, game *domain.Game) error
}

type SuggestionRepository interface {
	Create(ctx context.Context, suggestion *domain.Suggestion) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Suggestion, error)
	GetByBallotNumber(ctx context.Context, number int) (*domain.Suggestion, error)
	FindByGame(ctx context.Context, gameID uuid.UUID) (*domain.SuggestionView, error)
	// BallotNumbers returns the numbers in use, ascending.
	BallotNumbers(ctx context.Context) ([]int, error)
	List(ctx context.Context) ([]domain.SuggestionView, error)
	Count(ctx context.Context) (int, error)
	SetLossStreak(ctx context.Context, id uuid.UUID, streak int) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAll(ctx context.Context) error
}

type VoteRepository interface {
	Create(ctx context.Context, vote *domain.Vote) error
	DeleteByMember(ctx context.Context, memberID uuid.UUID) error
	// Ballots returns every vote with the voter's current power.
	Ballots(ctx context.Context) ([]domain.Ballot, error)
	DeleteAll(ctx context.Context) error
}

type PollRepository interface {
	Create(ctx context.Context, poll *domain.Poll) error
	// GetActive returns the active poll, holding it against concurrent
	// resolution until the unit of work ends.
	GetActive(ctx context.Context) (*domain.Poll, error)
	// GetByIDForUpdate locks the poll row exclusively.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Poll, error)
	GetByEvent(ctx context.Context, eventID uuid.UUID) (*domain.Poll, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type MessageRepository interface {
	Track(ctx context.Context, message *domain.TrackedMessage) error
	List(ctx context.Context) ([]domain.TrackedMessage, error)
	DeleteAll(ctx context.Context) error
}

type RsvpRepository interface {
	Create(ctx context.Context, rsvp *domain.Rsvp) error
	Delete(ctx context.Context, eventID, memberID uuid.UUID) error
	HasRsvp(ctx context.Context, memberID, eventID uuid.UUID) (bool, error)
	CountByEvent(ctx context.Context, eventID uuid.UUID) (int, error)
	DeleteByEvent(ctx context.Context, eventID uuid.UUID) error
}

// Repositories gives access to every relation inside one unit of work.
type Repositories interface {
	Members() MemberRepository
	Events() EventRepository
	Games() GameRepository
	Suggestions() SuggestionRepository
	Votes() VoteRepository
	Polls() PollRepository
	Messages() MessageRepository
	Rsvps() RsvpRepository
}

// UnitOfWork runs fn atomically: either everything fn wrote is committed or
// nothing is.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
