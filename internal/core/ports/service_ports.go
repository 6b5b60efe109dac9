package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/tabletop/internal/core/domain"
)

type GameInput struct {
	ExternalID         int64
	Title              string
	URL                string
	Playtime           string
	Description        string
	ImageURL           string
	BestPlayers        string
	RecommendedPlayers string
}

type SuggestInput struct {
	AuthorID uuid.UUID
	Game     GameInput
}

type SuggestionService interface {
	Suggest(ctx context.Context, input SuggestInput) (*domain.SuggestionView, error)
	Add(ctx context.Context, gameID, authorID uuid.UUID) (*domain.Suggestion, error)
	List(ctx context.Context) ([]domain.SuggestionView, error)
	ClearAll(ctx context.Context) error
}

type TallyService interface {
	CastBallot(ctx context.Context, memberID, suggestionID uuid.UUID) error
	CastBallotByNumber(ctx context.Context, memberID uuid.UUID, ballotNumber int) (*domain.Suggestion, error)
	// CurrentTotals reports ok=false when nobody has voted at all.
	CurrentTotals(ctx context.Context) (totals []domain.SuggestionTotal, ok bool, err error)
}

type OpenPollInput struct {
	EventID       uuid.UUID
	DurationHours int
}

type PollService interface {
	Open(ctx context.Context, input OpenPollInput) (*domain.Poll, error)
	Active(ctx context.Context) (*domain.Poll, error)
	RemainingTime(ctx context.Context) (time.Duration, error)
	Close(ctx context.Context) (*domain.Outcome, error)
	Reconcile(ctx context.Context) error
}

type CreateEventInput struct {
	Name string
	Date time.Time
}

type EventService interface {
	Create(ctx context.Context, input CreateEventInput) (*domain.Event, error)
	Cancel(ctx context.Context, id uuid.UUID) error
	ListUpcoming(ctx context.Context) ([]domain.EventSummary, error)
	Rsvp(ctx context.Context, eventID, memberID uuid.UUID) (int, error)
	CancelRsvp(ctx context.Context, eventID, memberID uuid.UUID) (int, error)
}

type MemberService interface {
	GetOrCreate(ctx context.Context, identity string) (*domain.Member, error)
}

type MessageService interface {
	Clear(ctx context.Context) (int, error)
}
