package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vncsmyrnk/tabletop/internal/core/domain"
	"github.com/vncsmyrnk/tabletop/internal/core/ports"
	"github.com/vncsmyrnk/tabletop/internal/logging"
)

// messageTracker emits transport messages and remembers the ones that must be
// retracted once the poll is over. Transport failures never fail the caller.
type messageTracker struct {
	uow       ports.UnitOfWork
	transport ports.Transport
	clock     ports.Clock
	logger    logrus.FieldLogger
}

func newMessageTracker(uow ports.UnitOfWork, transport ports.Transport, clock ports.Clock, logger logrus.FieldLogger) messageTracker {
	return messageTracker{
		uow:       uow,
		transport: transport,
		clock:     clock,
		logger:    logging.Resolve(logger),
	}
}

// announce sends text without tracking it.
func (t messageTracker) announce(ctx context.Context, text string) {
	if t.transport == nil {
		return
	}
	if _, err := t.transport.Announce(ctx, text); err != nil {
		t.logger.WithError(err).Warn("announcement failed")
	}
}

// announceTracked sends texts and records their handles for retraction when
// poll pollID resolves. If that poll resolved while the texts were in flight
// they are retracted right away instead.
func (t messageTracker) announceTracked(ctx context.Context, pollID uuid.UUID, texts ...string) {
	if t.transport == nil {
		return
	}

	var tracked []domain.TrackedMessage
	for _, text := range texts {
		handle, err := t.transport.Announce(ctx, text)
		if err != nil {
			t.logger.WithError(err).Warn("announcement failed")
			continue
		}
		tracked = append(tracked, domain.TrackedMessage{
			ID:        uuid.New(),
			Handle:    string(handle),
			CreatedAt: t.clock.Now(),
		})
	}
	if len(tracked) == 0 {
		return
	}

	stale := false
	err := t.uow.Do(ctx, func(ctx context.Context, repos ports.Repositories) error {
		poll, err := repos.Polls().GetActive(ctx)
		if err != nil {
			return err
		}
		if poll == nil || poll.ID != pollID {
			stale = true
			return nil
		}
		for i := range tracked {
			if err := repos.Messages().Track(ctx, &tracked[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.logger.WithError(err).WithField("count", len(tracked)).Error("failed to track announced messages")
		return
	}
	if stale {
		t.logger.WithField("poll_id", pollID).Debug("poll resolved during announcement, retracting")
		t.retract(ctx, tracked)
	}
}

// retract removes messages from the transport. Messages the transport no
// longer knows about count as retracted.
func (t messageTracker) retract(ctx context.Context, messages []domain.TrackedMessage) int {
	if t.transport == nil {
		return 0
	}

	retracted := 0
	for _, message := range messages {
		err := t.transport.Retract(ctx, ports.MessageHandle(message.Handle))
		if err != nil && !errors.Is(err, domain.ErrMessageNotFound) {
			t.logger.WithError(err).WithField("handle", message.Handle).Warn("failed to retract message")
			continue
		}
		retracted++
	}
	return retracted
}

// releaseTracked forgets every tracked message inside the caller's unit of
// work and returns them so they can be retracted after commit.
func releaseTracked(ctx context.Context, repos ports.Repositories) ([]domain.TrackedMessage, error) {
	messages, err := repos.Messages().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked messages: %w", err)
	}
	if err := repos.Messages().DeleteAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to release tracked messages: %w", err)
	}
	return messages, nil
}

type messageService struct {
	uow     ports.UnitOfWork
	tracker messageTracker
}

func NewMessageService(uow ports.UnitOfWork, transport ports.Transport, clock ports.Clock, logger logrus.FieldLogger) ports.MessageService {
	return &messageService{
		uow:     uow,
		tracker: newMessageTracker(uow, transport, clock, logger),
	}
}

// Clear retracts every tracked message and reports how many were removed.
func (s *messageService) Clear(ctx context.Context) (int, error) {
	var released []domain.TrackedMessage
	err := s.uow.Do(ctx, func(ctx context.Context, repos ports.Repositories) error {
		var err error
		released, err = releaseTracked(ctx, repos)
		return err
	})
	if err != nil {
		return 0, err
	}
	return s.tracker.retract(ctx, released), nil
}
