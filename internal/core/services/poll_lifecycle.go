package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vncsmyrnk/tabletop/internal/core/domain"
	"github.com/vncsmyrnk/tabletop/internal/core/ports"
	"github.com/vncsmyrnk/tabletop/internal/logging"
)

const (
	DefaultReminderLead = 5 * time.Minute
	DefaultRetryDelay   = time.Minute
)

var _ ports.PollService = (*PollLifecycle)(nil)

// PollLifecycle opens polls and resolves them when their persisted deadline
// passes. The deadline in the store is the only source of truth; timers held
// here are rebuilt from it by Reconcile.
type PollLifecycle struct {
	uow          ports.UnitOfWork
	resolver     *Resolver
	tracker      messageTracker
	clock        ports.Clock
	scheduler    ports.Scheduler
	reminderLead time.Duration
	retryDelay   time.Duration
	logger       logrus.FieldLogger

	mu      sync.Mutex
	pending *pendingResolution
}

type pendingResolution struct {
	pollID   uuid.UUID
	deadline ports.Timer
	reminder ports.Timer
}

func (p *pendingResolution) stop() {
	if p.deadline != nil {
		p.deadline.Stop()
	}
	if p.reminder != nil {
		p.reminder.Stop()
	}
}

type LifecycleOption func(*PollLifecycle)

func WithScheduler(scheduler ports.Scheduler) LifecycleOption {
	return func(l *PollLifecycle) {
		l.scheduler = scheduler
	}
}

// WithReminderLead sets how long before the deadline the reminder goes out.
// Zero disables it.
func WithReminderLead(lead time.Duration) LifecycleOption {
	return func(l *PollLifecycle) {
		l.reminderLead = lead
	}
}

func WithRetryDelay(delay time.Duration) LifecycleOption {
	return func(l *PollLifecycle) {
		l.retryDelay = delay
	}
}

func WithLogger(logger logrus.FieldLogger) LifecycleOption {
	return func(l *PollLifecycle) {
		l.logger = logger
	}
}

func NewPollLifecycle(uow ports.UnitOfWork, resolver *Resolver, transport ports.Transport, clock ports.Clock, opts ...LifecycleOption) *PollLifecycle {
	l := &PollLifecycle{
		uow:          uow,
		resolver:     resolver,
		clock:        clock,
		scheduler:    TimerScheduler(),
		reminderLead: DefaultReminderLead,
		retryDelay:   DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = logging.Resolve(l.logger)
	l.tracker = newMessageTracker(uow, transport, clock, l.logger)
	return l
}

func (l *PollLifecycle) Open(ctx context.Context, input ports.OpenPollInput) (*domain.Poll, error) {
	if input.DurationHours < 1 {
		return nil, domain.ErrInvalidDuration
	}

	var (
		poll        *domain.Poll
		event       *domain.Event
		suggestions []domain.SuggestionView
		attendees   int
	)
	err := l.uow.Do(ctx, func(ctx context.Context, repos ports.Repositories) error {
		active, err := repos.Polls().GetActive(ctx)
		if err != nil {
			return err
		}
		if active != nil {
			return domain.ErrPollAlreadyOpen
		}

		count, err := repos.Suggestions().Count(ctx)
		if err != nil {
			return err
		}
		if count == 0 {
			return domain.ErrNoSuggestions
		}

		event, err = repos.Events().GetByID(ctx, input.EventID)
		if err != nil {
			return err
		}
		if event == nil {
			return domain.ErrEventNotFound
		}
		if event.GameDecided {
			return domain.ErrEventAlreadyDecided
		}

		now := l.clock.Now()
		poll = &domain.Poll{
			ID:        uuid.New(),
			EventID:   event.ID,
			Active:    true,
			Deadline:  now.Add(time.Duration(input.DurationHours) * time.Hour),
			CreatedAt: now,
		}
		if err := repos.Polls().Create(ctx, poll); err != nil {
			return err
		}

		suggestions, err = repos.Suggestions().List(ctx)
		if err != nil {
			return err
		}
		attendees, err = repos.Rsvps().CountByEvent(ctx, event.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	l.schedule(*poll)
	l.logger.WithFields(logrus.Fields{
		"poll_id":  poll.ID,
		"event":    event.Name,
		"deadline": poll.Deadline,
	}).Info("poll opened")

	messages := make([]string, 0, len(suggestions)+1)
	messages = append(messages, fmt.Sprintf(
		"Voting for %s on %s is open until %s. %d attending. Vote with the ballot number of your pick:",
		event.Name, event.Date.Format("Jan 2"), poll.Deadline.Format(time.RFC1123), attendees,
	))
	for _, suggestion := range suggestions {
		messages = append(messages, fmt.Sprintf("%d) %s %s", suggestion.BallotNumber, suggestion.Title, suggestion.URL))
	}
	l.tracker.announceTracked(ctx, poll.ID, messages...)

	return poll, nil
}

// Active returns the open poll or domain.ErrNoOpenPoll.
func (l *PollLifecycle) Active(ctx context.Context) (*domain.Poll, error) {
	var poll *domain.Poll
	err := l.uow.Do(ctx, func(ctx context.Context, repos ports.Repositories) error {
		var err error
		poll, err = repos.Polls().GetActive(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if poll == nil {
		return nil, domain.ErrNoOpenPoll
	}
	return poll, nil
}

// RemainingTime is zero or negative once the deadline passed.
func (l *PollLifecycle) RemainingTime(ctx context.Context) (time.Duration, error) {
	poll, err := l.Active(ctx)
	if err != nil {
		return 0, err
	}
	return poll.Remaining(l.clock.Now()), nil
}

// Close resolves the open poll now, preempting its pending deadline.
func (l *PollLifecycle) Close(ctx context.Context) (*domain.Outcome, error) {
	poll, err := l.Active(ctx)
	if err != nil {
		return nil, err
	}

	l.cancel(poll.ID)
	outcome, err := l.resolver.Finalize(ctx, poll.ID)
	if err != nil {
		l.schedule(*poll)
		return nil, err
	}

	l.logger.WithField("poll_id", poll.ID).Info("poll closed by admin")
	return outcome, nil
}

// Reconcile picks up a poll persisted by an earlier process: it resolves it
// right away when the deadline already passed and waits out the rest
// otherwise. A failed resolution is retried after the retry delay.
func (l *PollLifecycle) Reconcile(ctx context.Context) error {
	poll, outcome, err := l.resolveOverdue(ctx)
	if err != nil {
		if poll != nil {
			l.retry(poll.ID)
		}
		return err
	}
	if poll == nil || outcome != nil {
		return nil
	}

	l.schedule(*poll)
	l.logger.WithFields(logrus.Fields{
		"poll_id":   poll.ID,
		"remaining": poll.Remaining(l.clock.Now()).String(),
	}).Info("resuming open poll")
	return nil
}

// ResolveOverdue resolves the open poll only if its deadline has passed. It
// returns a nil outcome when there was nothing to resolve.
func (l *PollLifecycle) ResolveOverdue(ctx context.Context) (*domain.Outcome, error) {
	_, outcome, err := l.resolveOverdue(ctx)
	return outcome, err
}

func (l *PollLifecycle) resolveOverdue(ctx context.Context) (*domain.Poll, *domain.Outcome, error) {
	poll, err := l.Active(ctx)
	if errors.Is(err, domain.ErrNoOpenPoll) {
		l.logger.Debug("no open poll to reconcile")
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	remaining := poll.Remaining(l.clock.Now())
	if remaining > 0 {
		return poll, nil, nil
	}

	l.logger.WithFields(logrus.Fields{
		"poll_id": poll.ID,
		"overdue": (-remaining).String(),
	}).Info("poll deadline passed while offline, resolving")
	l.cancel(poll.ID)
	outcome, err := l.resolver.Finalize(ctx, poll.ID)
	if err != nil {
		return poll, nil, err
	}
	return poll, outcome, nil
}

// Shutdown drops pending timers. The open poll stays persisted for the next
// Reconcile.
func (l *PollLifecycle) Shutdown() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pending != nil {
		l.pending.stop()
		l.pending = nil
	}
}

func (l *PollLifecycle) schedule(poll domain.Poll) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pending != nil {
		l.pending.stop()
	}

	remaining := poll.Remaining(l.clock.Now())
	pending := &pendingResolution{pollID: poll.ID}
	pending.deadline = l.scheduler.AfterFunc(max(remaining, 0), func() {
		l.fire(poll.ID)
	})
	if l.reminderLead > 0 && remaining > l.reminderLead {
		pending.reminder = l.scheduler.AfterFunc(remaining-l.reminderLead, func() {
			l.remind(poll.ID)
		})
	}
	l.pending = pending
}

func (l *PollLifecycle) cancel(pollID uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pending != nil && l.pending.pollID == pollID {
		l.pending.stop()
		l.pending = nil
	}
}

func (l *PollLifecycle) fire(pollID uuid.UUID) {
	l.mu.Lock()
	if l.pending == nil || l.pending.pollID != pollID {
		l.mu.Unlock()
		return
	}
	if l.pending.reminder != nil {
		l.pending.reminder.Stop()
	}
	l.pending = nil
	l.mu.Unlock()

	log := l.logger.WithField("poll_id", pollID)
	if _, err := l.resolver.Finalize(context.Background(), pollID); err != nil {
		log.WithError(err).WithField("retry_in", l.retryDelay.String()).Error("failed to resolve poll")
		l.retry(pollID)
	}
}

func (l *PollLifecycle) retry(pollID uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pending != nil {
		return
	}
	l.pending = &pendingResolution{pollID: pollID}
	l.pending.deadline = l.scheduler.AfterFunc(l.retryDelay, func() {
		l.fire(pollID)
	})
}

func (l *PollLifecycle) remind(pollID uuid.UUID) {
	l.mu.Lock()
	current := l.pending != nil && l.pending.pollID == pollID
	l.mu.Unlock()
	if !current {
		return
	}

	ctx := context.Background()
	poll, err := l.Active(ctx)
	if err != nil || poll.ID != pollID {
		return
	}

	minutes := int(math.Ceil(poll.Remaining(l.clock.Now()).Minutes()))
	if minutes <= 0 {
		return
	}
	l.tracker.announceTracked(ctx, pollID, fmt.Sprintf("%d minutes left to vote!", minutes))
}
