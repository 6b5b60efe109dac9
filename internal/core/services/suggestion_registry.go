package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vncsmyrnk/tabletop/internal/core/domain"
	"github.com/vncsmyrnk/tabletop/internal/core/ports"
	"github.com/vncsmyrnk/tabletop/internal/logging"
)

// maxAddAttempts bounds retries when a concurrent add takes the same ballot
// number.
const maxAddAttempts = 3

var _ ports.SuggestionService = (*SuggestionRegistry)(nil)

// SuggestionRegistry owns the queue of numbered suggestions.
type SuggestionRegistry struct {
	uow    ports.UnitOfWork
	clock  ports.Clock
	logger logrus.FieldLogger
}

func NewSuggestionRegistry(uow ports.UnitOfWork, clock ports.Clock, logger logrus.FieldLogger) *SuggestionRegistry {
	return &SuggestionRegistry{
		uow:    uow,
		clock:  clock,
		logger: logging.Resolve(logger),
	}
}

// Suggest caches the game and queues it. Suggestions are closed while a poll
// is running.
func (r *SuggestionRegistry) Suggest(ctx context.Context, input ports.SuggestInput) (*domain.SuggestionView, error) {
	game := input.Game
	game.Title = strings.TrimSpace(game.Title)
	game.URL = strings.TrimSpace(game.URL)
	if game.ExternalID <= 0 || game.Title == "" || game.URL == "" {
		return nil, domain.ErrInvalidGame
	}

	var view *domain.SuggestionView
	err := r.withBallotRetry(ctx, func(ctx context.Context, repos ports.Repositories) error {
		poll, err := repos.Polls().GetActive(ctx)
		if err != nil {
			return err
		}
		if poll != nil {
			return domain.ErrPollOpen
		}

		author, err := repos.Members().GetByID(ctx, input.AuthorID)
		if err != nil {
			return err
		}
		if author == nil {
			return domain.ErrMemberNotFound
		}

		record, err := r.cacheGame(ctx, repos, game)
		if err != nil {
			return err
		}

		suggestion, err := r.add(ctx, repos, record.ID, author.ID)
		if err != nil {
			return err
		}

		view = &domain.SuggestionView{
			Suggestion: *suggestion,
			Title:      record.Title,
			URL:        record.URL,
			Author:     author.Identity,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.WithFields(logrus.Fields{
		"game":          view.Title,
		"ballot_number": view.BallotNumber,
		"author":        view.Author,
	}).Info("suggestion added")
	return view, nil
}

// Add queues an already cached game under the lowest free ballot number.
func (r *SuggestionRegistry) Add(ctx context.Context, gameID, authorID uuid.UUID) (*domain.Suggestion, error) {
	var suggestion *domain.Suggestion
	err := r.withBallotRetry(ctx, func(ctx context.Context, repos ports.Repositories) error {
		game, err := repos.Games().GetByID(ctx, gameID)
		if err != nil {
			return err
		}
		if game == nil {
			return domain.ErrGameNotFound
		}

		suggestion, err = r.add(ctx, repos, gameID, authorID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return suggestion, nil
}

func (r *SuggestionRegistry) List(ctx context.Context) ([]domain.SuggestionView, error) {
	var suggestions []domain.SuggestionView
	err := r.uow.Do(ctx, func(ctx context.Context, repos ports.Repositories) error {
		var err error
		suggestions, err = repos.Suggestions().List(ctx)
		return err
	})
	return suggestions, err
}

// ClearAll empties the queue. Votes for the removed suggestions go with them.
func (r *SuggestionRegistry) ClearAll(ctx context.Context) error {
	err := r.uow.Do(ctx, func(ctx context.Context, repos ports.Repositories) error {
		return repos.Suggestions().DeleteAll(ctx)
	})
	if err != nil {
		return err
	}

	r.logger.Info("suggestions cleared")
	return nil
}

// ApplyLossStreaks counts one more lost round for each suggestion and returns
// the ones evicted for reaching domain.MaxLossStreak.
func (r *SuggestionRegistry) ApplyLossStreaks(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	var evicted []uuid.UUID
	err := r.uow.Do(ctx, func(ctx context.Context, repos ports.Repositories) error {
		var err error
		evicted, err = applyLossStreaks(ctx, repos, ids)
		return err
	})
	return evicted, err
}

func (r *SuggestionRegistry) ResetLossStreak(ctx context.Context, id uuid.UUID) error {
	return r.uow.Do(ctx, func(ctx context.Context, repos ports.Repositories) error {
		return resetLossStreak(ctx, repos, id)
	})
}

func (r *SuggestionRegistry) withBallotRetry(ctx context.Context, fn func(ctx context.Context, repos ports.Repositories) error) error {
	var err error
	for attempt := 1; attempt <= maxAddAttempts; attempt++ {
		err = r.uow.Do(ctx, fn)
		if !errors.Is(err, domain.ErrBallotNumberTaken) {
			return err
		}
		r.logger.WithField("attempt", attempt).Debug("ballot number taken concurrently, retrying")
	}
	return err
}

// cacheGame returns the stored record for the game, storing it on first use.
// Stored records are never updated.
func (r *SuggestionRegistry) cacheGame(ctx context.Context, repos ports.Repositories, input ports.GameInput) (*domain.Game, error) {
	game, err := repos.Games().GetByExternalID(ctx, input.ExternalID)
	if err != nil {
		return nil, err
	}
	if game != nil {
		return game, nil
	}

	game = &domain.Game{
		ID:                 uuid.New(),
		ExternalID:         input.ExternalID,
		Title:              input.Title,
		URL:                input.URL,
		Playtime:           input.Playtime,
		Description:        input.Description,
		ImageURL:           input.ImageURL,
		BestPlayers:        input.BestPlayers,
		RecommendedPlayers: input.RecommendedPlayers,
		CreatedAt:          r.clock.Now(),
	}
	if err := repos.Games().Create(ctx, game); err != nil {
		return nil, err
	}
	return game, nil
}

func (r *SuggestionRegistry) add(ctx context.Context, repos ports.Repositories, gameID, authorID uuid.UUID) (*domain.Suggestion, error) {
	existing, err := repos.Suggestions().FindByGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &domain.DuplicateSuggestionError{SuggestedBy: existing.Author}
	}

	used, err := repos.Suggestions().BallotNumbers(ctx)
	if err != nil {
		return nil, err
	}

	suggestion := &domain.Suggestion{
		ID:           uuid.New(),
		GameID:       gameID,
		AuthorID:     authorID,
		BallotNumber: lowestFreeBallotNumber(used),
		LossStreak:   0,
		CreatedAt:    r.clock.Now(),
	}
	if err := repos.Suggestions().Create(ctx, suggestion); err != nil {
		return nil, err
	}
	return suggestion, nil
}

// lowestFreeBallotNumber scans used, sorted ascending, for the first gap
// starting at 1.
func lowestFreeBallotNumber(used []int) int {
	next := 1
	for _, n := range used {
		if n < next {
			continue
		}
		if n > next {
			break
		}
		next++
	}
	return next
}

func applyLossStreaks(ctx context.Context, repos ports.Repositories, ids []uuid.UUID) ([]uuid.UUID, error) {
	var evicted []uuid.UUID
	for _, id := range ids {
		suggestion, err := repos.Suggestions().GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if suggestion == nil {
			continue
		}

		streak := suggestion.LossStreak + 1
		if streak >= domain.MaxLossStreak {
			if err := repos.Suggestions().Delete(ctx, id); err != nil {
				return nil, err
			}
			evicted = append(evicted, id)
			continue
		}

		if err := repos.Suggestions().SetLossStreak(ctx, id, streak); err != nil {
			return nil, err
		}
	}
	return evicted, nil
}

func resetLossStreak(ctx context.Context, repos ports.Repositories, id uuid.UUID) error {
	return repos.Suggestions().SetLossStreak(ctx, id, 0)
}
