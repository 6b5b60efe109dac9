package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vncsmyrnk/tabletop/internal/core/domain"
	"github.com/vncsmyrnk/tabletop/internal/core/ports"
	"github.com/vncsmyrnk/tabletop/internal/logging"
)

var _ ports.TallyService = (*TallyEngine)(nil)

// TallyEngine records ballots and computes weighted totals.
type TallyEngine struct {
	uow     ports.UnitOfWork
	clock   ports.Clock
	tracker messageTracker
	logger  logrus.FieldLogger
}

func NewTallyEngine(uow ports.UnitOfWork, transport ports.Transport, clock ports.Clock, logger logrus.FieldLogger) *TallyEngine {
	return &TallyEngine{
		uow:     uow,
		clock:   clock,
		tracker: newMessageTracker(uow, transport, clock, logger),
		logger:  logging.Resolve(logger),
	}
}

// CastBallot replaces the member's vote, if any, with a vote for suggestionID.
func (e *TallyEngine) CastBallot(ctx context.Context, memberID, suggestionID uuid.UUID) error {
	return e.uow.Do(ctx, func(ctx context.Context, repos ports.Repositories) error {
		_, _, err := e.castBallot(ctx, repos, memberID, func(suggestions ports.SuggestionRepository) (*domain.Suggestion, error) {
			return suggestions.GetByID(ctx, suggestionID)
		})
		return err
	})
}

// CastBallotByNumber votes for the suggestion holding ballotNumber and
// announces the updated totals.
func (e *TallyEngine) CastBallotByNumber(ctx context.Context, memberID uuid.UUID, ballotNumber int) (*domain.Suggestion, error) {
	if ballotNumber < 1 {
		return nil, domain.ErrInvalidBallotNumber
	}

	var (
		poll   *domain.Poll
		chosen *domain.Suggestion
		totals []domain.SuggestionTotal
	)
	err := e.uow.Do(ctx, func(ctx context.Context, repos ports.Repositories) error {
		var err error
		poll, chosen, err = e.castBallot(ctx, repos, memberID, func(suggestions ports.SuggestionRepository) (*domain.Suggestion, error) {
			return suggestions.GetByBallotNumber(ctx, ballotNumber)
		})
		if err != nil {
			return err
		}

		ballots, err := repos.Votes().Ballots(ctx)
		if err != nil {
			return err
		}
		totals = computeTotals(ballots)
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.WithFields(logrus.Fields{
		"member_id":     memberID,
		"ballot_number": ballotNumber,
	}).Info("ballot cast")
	e.tracker.announceTracked(ctx, poll.ID, FormatTotals(totals))
	return chosen, nil
}

func (e *TallyEngine) CurrentTotals(ctx context.Context) ([]domain.SuggestionTotal, bool, error) {
	var totals []domain.SuggestionTotal
	err := e.uow.Do(ctx, func(ctx context.Context, repos ports.Repositories) error {
		ballots, err := repos.Votes().Ballots(ctx)
		if err != nil {
			return err
		}
		totals = computeTotals(ballots)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return totals, len(totals) > 0, nil
}

func (e *TallyEngine) castBallot(
	ctx context.Context,
	repos ports.Repositories,
	memberID uuid.UUID,
	find func(ports.SuggestionRepository) (*domain.Suggestion, error),
) (*domain.Poll, *domain.Suggestion, error) {
	poll, err := repos.Polls().GetActive(ctx)
	if err != nil {
		return nil, nil, err
	}
	if poll == nil || poll.Remaining(e.clock.Now()) <= 0 {
		return nil, nil, domain.ErrNoOpenPoll
	}

	suggestion, err := find(repos.Suggestions())
	if err != nil {
		return nil, nil, err
	}
	if suggestion == nil {
		return nil, nil, domain.ErrSuggestionNotFound
	}

	member, err := repos.Members().GetByID(ctx, memberID)
	if err != nil {
		return nil, nil, err
	}
	if member == nil {
		return nil, nil, domain.ErrMemberNotFound
	}

	var roster ports.RsvpRoster = repos.Rsvps()
	attending, err := roster.HasRsvp(ctx, memberID, poll.EventID)
	if err != nil {
		return nil, nil, err
	}
	if !attending {
		return nil, nil, domain.ErrNotAttending
	}

	if err := repos.Votes().DeleteByMember(ctx, memberID); err != nil {
		return nil, nil, err
	}
	vote := &domain.Vote{
		ID:           uuid.New(),
		MemberID:     memberID,
		SuggestionID: suggestion.ID,
		CreatedAt:    e.clock.Now(),
	}
	if err := repos.Votes().Create(ctx, vote); err != nil {
		return nil, nil, err
	}
	return poll, suggestion, nil
}

// computeTotals sums voter power per suggestion. Suggestions nobody voted for
// are absent. Ties go to the lower ballot number.
func computeTotals(ballots []domain.Ballot) []domain.SuggestionTotal {
	index := make(map[uuid.UUID]int)
	var totals []domain.SuggestionTotal
	for _, ballot := range ballots {
		i, ok := index[ballot.SuggestionID]
		if !ok {
			i = len(totals)
			index[ballot.SuggestionID] = i
			totals = append(totals, domain.SuggestionTotal{
				SuggestionID: ballot.SuggestionID,
				GameID:       ballot.GameID,
				BallotNumber: ballot.BallotNumber,
				Title:        ballot.Title,
			})
		}
		totals[i].Votes += ballot.Power
	}

	sort.Slice(totals, func(a, b int) bool {
		if totals[a].Votes != totals[b].Votes {
			return totals[a].Votes > totals[b].Votes
		}
		return totals[a].BallotNumber < totals[b].BallotNumber
	})
	return totals
}

// FormatTotals renders totals one suggestion per line.
func FormatTotals(totals []domain.SuggestionTotal) string {
	if len(totals) == 0 {
		return "No votes yet."
	}

	var b strings.Builder
	b.WriteString("Current votes:")
	for _, total := range totals {
		fmt.Fprintf(&b, "\n%d) %s votes: %d", total.BallotNumber, total.Title, total.Votes)
	}
	return b.String()
}
