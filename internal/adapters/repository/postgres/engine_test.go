package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/tabletop/internal/core/domain"
	"github.com/vncsmyrnk/tabletop/internal/core/ports"
	"github.com/vncsmyrnk/tabletop/internal/core/services"
)

type idleTimer struct{}

func (idleTimer) Stop() bool { return true }

// idleScheduler never fires; the test resolves polls by hand.
type idleScheduler struct{}

func (idleScheduler) AfterFunc(time.Duration, func()) ports.Timer { return idleTimer{} }

func TestPollRoundTrip(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	clock := services.SystemClock()

	members := services.NewMemberService(store, clock)
	events := services.NewEventService(store, nil, clock, nil)
	registry := services.NewSuggestionRegistry(store, clock, nil)
	tally := services.NewTallyEngine(store, nil, clock, nil)
	resolver := services.NewResolver(store, nil, clock, nil)
	lifecycle := services.NewPollLifecycle(store, resolver, nil, clock, services.WithScheduler(idleScheduler{}))

	// 1. Members, event, rsvps
	alice, err := members.GetOrCreate(ctx, "alice")
	require.NoError(t, err)
	bob, err := members.GetOrCreate(ctx, "bob")
	require.NoError(t, err)
	event, err := events.Create(ctx, ports.CreateEventInput{Name: "Friday night", Date: time.Now().Add(48 * time.Hour)})
	require.NoError(t, err)
	for _, m := range []*domain.Member{alice, bob} {
		_, err := events.Rsvp(ctx, event.ID, m.ID)
		require.NoError(t, err)
	}

	// 2. Suggestions
	azul, err := registry.Suggest(ctx, ports.SuggestInput{AuthorID: alice.ID, Game: ports.GameInput{ExternalID: 230802, Title: "Azul", URL: "https://boardgamegeek.com/boardgame/230802"}})
	require.NoError(t, err)
	brass, err := registry.Suggest(ctx, ports.SuggestInput{AuthorID: bob.ID, Game: ports.GameInput{ExternalID: 224517, Title: "Brass", URL: "https://boardgamegeek.com/boardgame/224517"}})
	require.NoError(t, err)
	assert.Equal(t, 1, azul.BallotNumber)
	assert.Equal(t, 2, brass.BallotNumber)

	// 3. Poll and ballots
	poll, err := lifecycle.Open(ctx, ports.OpenPollInput{EventID: event.ID, DurationHours: 1})
	require.NoError(t, err)
	_, err = lifecycle.Open(ctx, ports.OpenPollInput{EventID: event.ID, DurationHours: 1})
	assert.ErrorIs(t, err, domain.ErrPollAlreadyOpen)

	_, err = tally.CastBallotByNumber(ctx, alice.ID, 2)
	require.NoError(t, err)
	_, err = tally.CastBallotByNumber(ctx, alice.ID, 1)
	require.NoError(t, err)
	_, err = tally.CastBallotByNumber(ctx, bob.ID, 2)
	require.NoError(t, err)

	totals, ok, err := tally.CurrentTotals(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, totals, 2)
	assert.Equal(t, "Azul", totals[0].Title, "tie goes to the lower ballot number")

	// 4. Resolution, twice
	outcome, err := resolver.Finalize(ctx, poll.ID)
	require.NoError(t, err)
	require.True(t, outcome.Resolved)
	assert.Equal(t, azul.ID, outcome.Winner.SuggestionID)

	again, err := resolver.Finalize(ctx, poll.ID)
	require.NoError(t, err)
	assert.False(t, again.Resolved)

	bob, err = members.GetOrCreate(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, bob.Power)

	upcoming, err := events.ListUpcoming(ctx)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.True(t, upcoming[0].GameDecided)
	require.NotNil(t, upcoming[0].WinningGame)
	assert.Equal(t, "Azul", upcoming[0].WinningGame.Title)
	assert.Equal(t, 2, upcoming[0].Attendees)

	_, err = lifecycle.Active(ctx)
	assert.ErrorIs(t, err, domain.ErrNoOpenPoll)
}
