package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vncsmyrnk/tabletop/internal/core/domain"
	"github.com/vncsmyrnk/tabletop/internal/core/ports"
	"github.com/vncsmyrnk/tabletop/internal/logging"
)

// Resolver settles a poll: picks the winner, adjusts voting power and loss
// streaks, marks the event decided and removes the poll.
type Resolver struct {
	uow     ports.UnitOfWork
	tracker messageTracker
	logger  logrus.FieldLogger
}

func NewResolver(uow ports.UnitOfWork, transport ports.Transport, clock ports.Clock, logger logrus.FieldLogger) *Resolver {
	return &Resolver{
		uow:     uow,
		tracker: newMessageTracker(uow, transport, clock, logger),
		logger:  logging.Resolve(logger),
	}
}

// Finalize resolves pollID. Resolving a poll that no longer exists returns an
// outcome with Resolved false and changes nothing.
func (r *Resolver) Finalize(ctx context.Context, pollID uuid.UUID) (*domain.Outcome, error) {
	var (
		outcome  domain.Outcome
		released []domain.TrackedMessage
	)
	err := r.uow.Do(ctx, func(ctx context.Context, repos ports.Repositories) error {
		outcome = domain.Outcome{PollID: pollID}
		released = nil

		poll, err := repos.Polls().GetByIDForUpdate(ctx, pollID)
		if err != nil {
			return err
		}
		if poll == nil {
			return nil
		}
		outcome.EventID = poll.EventID

		ballots, err := repos.Votes().Ballots(ctx)
		if err != nil {
			return err
		}
		totals := computeTotals(ballots)

		if len(totals) > 0 {
			if err := r.settle(ctx, repos, poll, ballots, totals, &outcome); err != nil {
				return err
			}
		} else if err := repos.Votes().DeleteAll(ctx); err != nil {
			return err
		}

		if err := repos.Polls().Delete(ctx, poll.ID); err != nil {
			return err
		}
		released, err = releaseTracked(ctx, repos)
		if err != nil {
			return err
		}

		outcome.Resolved = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to finalize poll %s: %w", pollID, err)
	}

	log := r.logger.WithField("poll_id", pollID)
	if !outcome.Resolved {
		log.Debug("poll already resolved")
		return &outcome, nil
	}

	if outcome.NoWinner() {
		log.Info("poll resolved without ballots")
		r.tracker.announce(ctx, "Voting ended with no winner.")
	} else {
		log.WithFields(logrus.Fields{
			"winner":  outcome.Winner.Title,
			"votes":   outcome.Winner.Votes,
			"evicted": len(outcome.Evicted),
		}).Info("poll resolved")
		r.tracker.announce(ctx, fmt.Sprintf("%s won with %s!", outcome.Winner.Title, pluralVotes(outcome.Winner.Votes)))
	}

	r.tracker.retract(ctx, released)
	return &outcome, nil
}

func (r *Resolver) settle(
	ctx context.Context,
	repos ports.Repositories,
	poll *domain.Poll,
	ballots []domain.Ballot,
	totals []domain.SuggestionTotal,
	outcome *domain.Outcome,
) error {
	winner := totals[0]

	var winners, losers []uuid.UUID
	for _, ballot := range ballots {
		if ballot.SuggestionID == winner.SuggestionID {
			winners = append(winners, ballot.MemberID)
		} else {
			losers = append(losers, ballot.MemberID)
		}
	}

	if err := repos.Members().AddPower(ctx, losers, 1); err != nil {
		return err
	}
	if err := repos.Members().ResetPower(ctx, winners); err != nil {
		return err
	}
	if err := repos.Votes().DeleteAll(ctx); err != nil {
		return err
	}

	losing := make([]uuid.UUID, 0, len(totals)-1)
	for _, total := range totals[1:] {
		losing = append(losing, total.SuggestionID)
	}
	evicted, err := applyLossStreaks(ctx, repos, losing)
	if err != nil {
		return err
	}
	if err := resetLossStreak(ctx, repos, winner.SuggestionID); err != nil {
		return err
	}

	if err := repos.Events().MarkDecided(ctx, poll.EventID, winner.GameID); err != nil {
		return err
	}

	outcome.Winner = &winner
	outcome.Totals = totals
	outcome.Evicted = evicted
	return nil
}

func pluralVotes(n int) string {
	if n == 1 {
		return "1 vote"
	}
	return fmt.Sprintf("%d votes", n)
}
