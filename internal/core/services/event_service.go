package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vncsmyrnk/tabletop/internal/core/domain"
	"github.com/vncsmyrnk/tabletop/internal/core/ports"
	"github.com/vncsmyrnk/tabletop/internal/logging"
)

type eventService struct {
	uow     ports.UnitOfWork
	clock   ports.Clock
	tracker messageTracker
	logger  logrus.FieldLogger
}

func NewEventService(uow ports.UnitOfWork, transport ports.Transport, clock ports.Clock, logger logrus.FieldLogger) ports.EventService {
	return &eventService{
		uow:     uow,
		clock:   clock,
		tracker: newMessageTracker(uow, transport, clock, logger),
		logger:  logging.Resolve(logger),
	}
}

func (s *eventService) Create(ctx context.Context, input ports.CreateEventInput) (*domain.Event, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || input.Date.IsZero() {
		return nil, domain.ErrInvalidEvent
	}
	now := s.clock.Now()
	if input.Date.Before(now) {
		return nil, domain.ErrEventInPast
	}

	event := &domain.Event{
		ID:        uuid.New(),
		Name:      name,
		Date:      input.Date.UTC(),
		CreatedAt: now,
	}
	err := s.uow.Do(ctx, func(ctx context.Context, repos ports.Repositories) error {
		return repos.Events().Create(ctx, event)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"event_id": event.ID,
		"name":     event.Name,
	}).Info("event created")
	return event, nil
}

// Cancel deletes the event with its rsvps. When the open poll targets it, the
// poll goes too, together with every ballot and tracked message.
func (s *eventService) Cancel(ctx context.Context, id uuid.UUID) error {
	var released []domain.TrackedMessage
	err := s.uow.Do(ctx, func(ctx context.Context, repos ports.Repositories) error {
		event, err := repos.Events().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if event == nil {
			return domain.ErrEventNotFound
		}

		poll, err := repos.Polls().GetByEvent(ctx, id)
		if err != nil {
			return err
		}
		if poll != nil {
			if err := repos.Votes().DeleteAll(ctx); err != nil {
				return err
			}
			if err := repos.Polls().Delete(ctx, poll.ID); err != nil {
				return err
			}
			released, err = releaseTracked(ctx, repos)
			if err != nil {
				return err
			}
		}

		if err := repos.Rsvps().DeleteByEvent(ctx, id); err != nil {
			return err
		}
		return repos.Events().Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.WithField("event_id", id).Info("event cancelled")
	s.tracker.retract(ctx, released)
	return nil
}

func (s *eventService) ListUpcoming(ctx context.Context) ([]domain.EventSummary, error) {
	var events []domain.EventSummary
	err := s.uow.Do(ctx, func(ctx context.Context, repos ports.Repositories) error {
		var err error
		events, err = repos.Events().ListUpcoming(ctx, s.clock.Now())
		return err
	})
	return events, err
}

// Rsvp registers the member for the event and returns the attendee count.
func (s *eventService) Rsvp(ctx context.Context, eventID, memberID uuid.UUID) (int, error) {
	var attendees int
	err := s.uow.Do(ctx, func(ctx context.Context, repos ports.Repositories) error {
		if err := requireEvent(ctx, repos, eventID); err != nil {
			return err
		}

		attending, err := repos.Rsvps().HasRsvp(ctx, memberID, eventID)
		if err != nil {
			return err
		}
		if attending {
			return domain.ErrAlreadyRsvped
		}

		rsvp := &domain.Rsvp{
			ID:        uuid.New(),
			EventID:   eventID,
			MemberID:  memberID,
			CreatedAt: s.clock.Now(),
		}
		if err := repos.Rsvps().Create(ctx, rsvp); err != nil {
			return err
		}

		attendees, err = repos.Rsvps().CountByEvent(ctx, eventID)
		return err
	})
	return attendees, err
}

func (s *eventService) CancelRsvp(ctx context.Context, eventID, memberID uuid.UUID) (int, error) {
	var attendees int
	err := s.uow.Do(ctx, func(ctx context.Context, repos ports.Repositories) error {
		if err := requireEvent(ctx, repos, eventID); err != nil {
			return err
		}

		if err := repos.Rsvps().Delete(ctx, eventID, memberID); err != nil {
			return err
		}

		var err error
		attendees, err = repos.Rsvps().CountByEvent(ctx, eventID)
		return err
	})
	return attendees, err
}

func requireEvent(ctx context.Context, repos ports.Repositories, id uuid.UUID) error {
	event, err := repos.Events().GetByID(ctx, id)
	if err != nil {
		return err
	}
	if event == nil {
		return domain.ErrEventNotFound
	}
	return nil
}
