// Package memory is an in-process store for tests and single-node runs
// without postgres. It enforces the same uniqueness rules and cascades as the
// postgres schema.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/tabletop/internal/core/domain"
	"github.com/vncsmyrnk/tabletop/internal/core/ports"
)

type Store struct {
	mu    sync.Mutex
	state *state
}

func NewStore() *Store {
	return &Store{state: newState()}
}

var _ ports.UnitOfWork = (*Store)(nil)

// Do runs fn against a private copy of the state and publishes it only when
// fn succeeds. Units of work are serialized.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, repos ports.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.state.clone()
	if err := fn(ctx, repositories{state: working}); err != nil {
		return err
	}
	s.state = working
	return nil
}

type state struct {
	members     map[uuid.UUID]domain.Member
	events      map[uuid.UUID]domain.Event
	games       map[uuid.UUID]domain.Game
	suggestions map[uuid.UUID]domain.Suggestion
	votes       map[uuid.UUID]domain.Vote
	polls       map[uuid.UUID]domain.Poll
	messages    map[uuid.UUID]domain.TrackedMessage
	rsvps       map[uuid.UUID]domain.Rsvp
}

func newState() *state {
	return &state{
		members:     make(map[uuid.UUID]domain.Member),
		events:      make(map[uuid.UUID]domain.Event),
		games:       make(map[uuid.UUID]domain.Game),
		suggestions: make(map[uuid.UUID]domain.Suggestion),
		votes:       make(map[uuid.UUID]domain.Vote),
		polls:       make(map[uuid.UUID]domain.Poll),
		messages:    make(map[uuid.UUID]domain.TrackedMessage),
		rsvps:       make(map[uuid.UUID]domain.Rsvp),
	}
}

// Rows are stored by value, so a shallow map copy is a full snapshot.
func (s *state) clone() *state {
	return &state{
		members:     maps.Clone(s.members),
		events:      maps.Clone(s.events),
		games:       maps.Clone(s.games),
		suggestions: maps.Clone(s.suggestions),
		votes:       maps.Clone(s.votes),
		polls:       maps.Clone(s.polls),
		messages:    maps.Clone(s.messages),
		rsvps:       maps.Clone(s.rsvps),
	}
}

type repositories struct {
	state *state
}

func (r repositories) Members() ports.MemberRepository         { return memberRepository{r.state} }
func (r repositories) Events() ports.EventRepository           { return eventRepository{r.state} }
func (r repositories) Games() ports.GameRepository             { return gameRepository{r.state} }
func (r repositories) Suggestions() ports.SuggestionRepository { return suggestionRepository{r.state} }
func (r repositories) Votes() ports.VoteRepository             { return voteRepository{r.state} }
func (r repositories) Polls() ports.PollRepository             { return pollRepository{r.state} }
func (r repositories) Messages() ports.MessageRepository       { return messageRepository{r.state} }
func (r repositories) Rsvps() ports.RsvpRepository             { return rsvpRepository{r.state} }
