package postgres_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/tabletop/internal/core/domain"
	"github.com/vncsmyrnk/tabletop/internal/core/ports"
)

func seed(t *testing.T, uow ports.UnitOfWork) (domain.Member, domain.Event, domain.Game) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	member := domain.Member{ID: uuid.New(), Identity: "alice", Power: 1, CreatedAt: now}
	event := domain.Event{ID: uuid.New(), Name: "Friday night", Date: now.Add(48 * time.Hour), CreatedAt: now}
	game := domain.Game{ID: uuid.New(), ExternalID: 230802, Title: "Azul", URL: "https://boardgamegeek.com/boardgame/230802", CreatedAt: now}

	err := uow.Do(ctx, func(ctx context.Context, repos ports.Repositories) error {
		if err := repos.Members().Create(ctx, &member); err != nil {
			return err
		}
		if err := repos.Events().Create(ctx, &event); err != nil {
			return err
		}
		return repos.Games().Create(ctx, &game)
	})
	require.NoError(t, err)
	return member, event, game
}

func TestUpsertsKeepFirstRow(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	member, _, game := seed(t, store)

	err := store.Do(ctx, func(ctx context.Context, repos ports.Repositories) error {
		again := domain.Member{ID: uuid.New(), Identity: "alice", Power: 1, CreatedAt: time.Now()}
		require.NoError(t, repos.Members().Create(ctx, &again))
		assert.Equal(t, member.ID, again.ID)

		renamed := domain.Game{ID: uuid.New(), ExternalID: game.ExternalID, Title: "Azul (2nd ed)", URL: "x", CreatedAt: time.Now()}
		require.NoError(t, repos.Games().Create(ctx, &renamed))
		assert.Equal(t, game.ID, renamed.ID)
		assert.Equal(t, "Azul", renamed.Title)
		return nil
	})
	require.NoError(t, err)
}

func TestSuggestionConstraints(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	member, _, game := seed(t, store)

	first := domain.Suggestion{ID: uuid.New(), GameID: game.ID, AuthorID: member.ID, BallotNumber: 1, CreatedAt: time.Now()}
	require.NoError(t, store.Do(ctx, func(ctx context.Context, repos ports.Repositories) error {
		return repos.Suggestions().Create(ctx, &first)
	}))

	err := store.Do(ctx, func(ctx context.Context, repos ports.Repositories) error {
		return repos.Suggestions().Create(ctx, &domain.Suggestion{ID: uuid.New(), GameID: game.ID, AuthorID: member.ID, BallotNumber: 2, CreatedAt: time.Now()})
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateSuggestion)

	err = store.Do(ctx, func(ctx context.Context, repos ports.Repositories) error {
		other := domain.Game{ID: uuid.New(), ExternalID: 1, Title: "Brass", URL: "https://boardgamegeek.com/boardgame/1", CreatedAt: time.Now()}
		if err := repos.Games().Create(ctx, &other); err != nil {
			return err
		}
		return repos.Suggestions().Create(ctx, &domain.Suggestion{ID: uuid.New(), GameID: other.ID, AuthorID: member.ID, BallotNumber: 1, CreatedAt: time.Now()})
	})
	assert.ErrorIs(t, err, domain.ErrBallotNumberTaken)

	err = store.Do(ctx, func(ctx context.Context, repos ports.Repositories) error {
		view, err := repos.Suggestions().FindByGame(ctx, game.ID)
		require.NoError(t, err)
		require.NotNil(t, view)
		assert.Equal(t, "alice", view.Author)
		assert.Equal(t, "Azul", view.Title)

		numbers, err := repos.Suggestions().BallotNumbers(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int{1}, numbers)

		assert.ErrorIs(t, repos.Suggestions().SetLossStreak(ctx, uuid.New(), 1), domain.ErrSuggestionNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestSingleActivePollUnderConcurrency(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	_, event, _ := seed(t, store)

	const openers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < openers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.Do(ctx, func(ctx context.Context, repos ports.Repositories) error {
				active, err := repos.Polls().GetActive(ctx)
				if err != nil {
					return err
				}
				if active != nil {
					return domain.ErrPollAlreadyOpen
				}
				return repos.Polls().Create(ctx, &domain.Poll{
					ID:        uuid.New(),
					EventID:   event.ID,
					Active:    true,
					Deadline:  time.Now().Add(time.Hour),
					CreatedAt: time.Now(),
				})
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrPollAlreadyOpen):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, openers-1, conflicts)
}

func TestVoteReplacementAndCascade(t *testing.T) {
	store, db := setupStore(t)
	ctx := context.Background()
	member, _, game := seed(t, store)
	suggestion := domain.Suggestion{ID: uuid.New(), GameID: game.ID, AuthorID: member.ID, BallotNumber: 1, CreatedAt: time.Now()}

	err := store.Do(ctx, func(ctx context.Context, repos ports.Repositories) error {
		if err := repos.Suggestions().Create(ctx, &suggestion); err != nil {
			return err
		}
		if err := repos.Members().AddPower(ctx, []uuid.UUID{member.ID}, 2); err != nil {
			return err
		}
		return repos.Votes().Create(ctx, &domain.Vote{ID: uuid.New(), MemberID: member.ID, SuggestionID: suggestion.ID, CreatedAt: time.Now()})
	})
	require.NoError(t, err)

	err = store.Do(ctx, func(ctx context.Context, repos ports.Repositories) error {
		return repos.Votes().Create(ctx, &domain.Vote{ID: uuid.New(), MemberID: member.ID, SuggestionID: suggestion.ID, CreatedAt: time.Now()})
	})
	assert.ErrorIs(t, err, domain.ErrVoteCollision)

	err = store.Do(ctx, func(ctx context.Context, repos ports.Repositories) error {
		ballots, err := repos.Votes().Ballots(ctx)
		require.NoError(t, err)
		require.Len(t, ballots, 1)
		assert.Equal(t, 3, ballots[0].Power)
		assert.Equal(t, "Azul", ballots[0].Title)

		return repos.Suggestions().DeleteAll(ctx)
	})
	require.NoError(t, err)

	var votes int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM votes`).Scan(&votes))
	assert.Zero(t, votes)
}

func TestDoRollsBack(t *testing.T) {
	store, db := setupStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.Do(ctx, func(ctx context.Context, repos ports.Repositories) error {
		member := domain.Member{ID: uuid.New(), Identity: "ghost", Power: 1, CreatedAt: time.Now()}
		if err := repos.Members().Create(ctx, &member); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM members`).Scan(&count))
	assert.Zero(t, count)
}
