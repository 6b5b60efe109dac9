package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every specific error below wraps exactly one of them, so callers
// can branch on either the kind or the specific error with errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
)

var (
	ErrInvalidDuration     = fmt.Errorf("%w: poll duration must be at least one hour", ErrValidation)
	ErrInvalidBallotNumber = fmt.Errorf("%w: ballot number must be a positive integer", ErrValidation)
	ErrInvalidGame         = fmt.Errorf("%w: game needs an external id, title and url", ErrValidation)
	ErrInvalidEvent        = fmt.Errorf("%w: event needs a name and a date", ErrValidation)
	ErrEventInPast         = fmt.Errorf("%w: event can't be in the past", ErrValidation)
	ErrInvalidIdentity     = fmt.Errorf("%w: member identity is required", ErrValidation)
	ErrNoSuggestions       = fmt.Errorf("%w: there are no suggestions", ErrValidation)
	ErrNotAttending        = fmt.Errorf("%w: you can't vote if you didn't rsvp", ErrValidation)

	ErrDuplicateSuggestion = fmt.Errorf("%w: game has already been suggested", ErrConflict)
	ErrPollAlreadyOpen     = fmt.Errorf("%w: voting has already begun", ErrConflict)
	ErrPollOpen            = fmt.Errorf("%w: voting is active, no more suggestions until it is finished", ErrConflict)
	ErrEventAlreadyDecided = fmt.Errorf("%w: event has already selected a game", ErrConflict)
	ErrVoteCollision       = fmt.Errorf("%w: another ballot for this member was cast at the same time", ErrConflict)
	ErrAlreadyRsvped       = fmt.Errorf("%w: member already rsvp'd to this event", ErrConflict)
	ErrBallotNumberTaken   = fmt.Errorf("%w: ballot number was taken by a concurrent suggestion", ErrConflict)

	ErrNoOpenPoll         = fmt.Errorf("%w: voting has not begun", ErrNotFound)
	ErrSuggestionNotFound = fmt.Errorf("%w: suggestion not found", ErrNotFound)
	ErrEventNotFound      = fmt.Errorf("%w: event not found", ErrNotFound)
	ErrMemberNotFound     = fmt.Errorf("%w: member not found", ErrNotFound)
	ErrGameNotFound       = fmt.Errorf("%w: game not found", ErrNotFound)
	ErrNotRsvped          = fmt.Errorf("%w: member did not rsvp to the event", ErrNotFound)
	ErrMessageNotFound    = fmt.Errorf("%w: message not found", ErrNotFound)
)

// DuplicateSuggestionError carries the author of the suggestion already
// holding the game.
type DuplicateSuggestionError struct {
	SuggestedBy string
}

func (e *DuplicateSuggestionError) Error() string {
	if e.SuggestedBy == "" {
		return ErrDuplicateSuggestion.Error()
	}
	return fmt.Sprintf("this game has already been suggested by %s", e.SuggestedBy)
}

func (e *DuplicateSuggestionError) Unwrap() error {
	return ErrDuplicateSuggestion
}
