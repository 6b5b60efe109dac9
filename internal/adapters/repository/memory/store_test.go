package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/tabletop/internal/core/domain"
	"github.com/vncsmyrnk/tabletop/internal/core/ports"
)

func TestDoRollsBackOnError(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.Do(ctx, func(ctx context.Context, repos ports.Repositories) error {
		member := &domain.Member{ID: uuid.New(), Identity: "alice", Power: 1}
		require.NoError(t, repos.Members().Create(ctx, member))
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = store.Do(ctx, func(ctx context.Context, repos ports.Repositories) error {
		member, err := repos.Members().GetByIdentity(ctx, "alice")
		require.NoError(t, err)
		assert.Nil(t, member)
		return nil
	})
	require.NoError(t, err)
}

func TestSingleActivePoll(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	event := domain.Event{ID: uuid.New(), Name: "Friday", Date: time.Now().Add(time.Hour)}

	err := store.Do(ctx, func(ctx context.Context, repos ports.Repositories) error {
		require.NoError(t, repos.Events().Create(ctx, &event))
		require.NoError(t, repos.Polls().Create(ctx, &domain.Poll{ID: uuid.New(), EventID: event.ID, Active: true}))
		return repos.Polls().Create(ctx, &domain.Poll{ID: uuid.New(), EventID: event.ID, Active: true})
	})
	assert.ErrorIs(t, err, domain.ErrPollAlreadyOpen)
}

func TestSuggestionUniqueness(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	gameID := uuid.New()

	err := store.Do(ctx, func(ctx context.Context, repos ports.Repositories) error {
		require.NoError(t, repos.Suggestions().Create(ctx, &domain.Suggestion{ID: uuid.New(), GameID: gameID, BallotNumber: 1}))

		err := repos.Suggestions().Create(ctx, &domain.Suggestion{ID: uuid.New(), GameID: gameID, BallotNumber: 2})
		assert.ErrorIs(t, err, domain.ErrDuplicateSuggestion)

		err = repos.Suggestions().Create(ctx, &domain.Suggestion{ID: uuid.New(), GameID: uuid.New(), BallotNumber: 1})
		assert.ErrorIs(t, err, domain.ErrBallotNumberTaken)
		return nil
	})
	require.NoError(t, err)
}

func TestDeletingSuggestionCascadesVotes(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	member := domain.Member{ID: uuid.New(), Identity: "alice", Power: 3}
	suggestion := domain.Suggestion{ID: uuid.New(), GameID: uuid.New(), BallotNumber: 1}

	err := store.Do(ctx, func(ctx context.Context, repos ports.Repositories) error {
		require.NoError(t, repos.Members().Create(ctx, &member))
		require.NoError(t, repos.Suggestions().Create(ctx, &suggestion))
		require.NoError(t, repos.Votes().Create(ctx, &domain.Vote{ID: uuid.New(), MemberID: member.ID, SuggestionID: suggestion.ID}))

		err := repos.Votes().Create(ctx, &domain.Vote{ID: uuid.New(), MemberID: member.ID, SuggestionID: suggestion.ID})
		assert.ErrorIs(t, err, domain.ErrVoteCollision)

		ballots, err := repos.Votes().Ballots(ctx)
		require.NoError(t, err)
		require.Len(t, ballots, 1)
		assert.Equal(t, 3, ballots[0].Power)

		require.NoError(t, repos.Suggestions().Delete(ctx, suggestion.ID))
		ballots, err = repos.Votes().Ballots(ctx)
		require.NoError(t, err)
		assert.Empty(t, ballots)
		return nil
	})
	require.NoError(t, err)
}

func TestDoHonorsCancelledContext(t *testing.T) {
	store := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := store.Do(ctx, func(context.Context, ports.Repositories) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
