package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/tabletop/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/tabletop/internal/core/domain"
	"github.com/vncsmyrnk/tabletop/internal/core/ports"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// manualScheduler fires timers only when the test advances it.
type manualScheduler struct {
	mu     sync.Mutex
	clock  *fakeClock
	timers []*manualTimer
}

type manualTimer struct {
	mu      *sync.Mutex
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) ports.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	timer := &manualTimer{mu: &s.mu, at: s.clock.Now().Add(d), f: f}
	s.timers = append(s.timers, timer)
	return timer
}

// advance moves the clock forward by d and runs every timer that came due,
// earliest first.
func (s *manualScheduler) advance(d time.Duration) {
	target := s.clock.Now().Add(d)
	for {
		s.mu.Lock()
		sort.SliceStable(s.timers, func(i, j int) bool {
			return s.timers[i].at.Before(s.timers[j].at)
		})
		var due *manualTimer
		for _, timer := range s.timers {
			if !timer.stopped && !timer.fired && !timer.at.After(target) {
				due = timer
				break
			}
		}
		if due != nil {
			due.fired = true
		}
		s.mu.Unlock()

		if due == nil {
			s.clock.set(target)
			return
		}
		s.clock.set(due.at)
		due.f()
	}
}

func (s *manualScheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, timer := range s.timers {
		if !timer.stopped && !timer.fired {
			n++
		}
	}
	return n
}

type recordingTransport struct {
	mu        sync.Mutex
	seq       int
	announced []string
	live      map[ports.MessageHandle]string
	retracted []ports.MessageHandle
	failNext  error
	// onAnnounce runs before each announcement, outside the transport lock.
	onAnnounce func(text string)
}

func newRecordingTransport() *recordingTransport {
	return &recordingTransport{live: make(map[ports.MessageHandle]string)}
}

func (t *recordingTransport) Announce(_ context.Context, text string) (ports.MessageHandle, error) {
	t.mu.Lock()
	hook := t.onAnnounce
	t.mu.Unlock()
	if hook != nil {
		hook(text)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.failNext; err != nil {
		t.failNext = nil
		return "", err
	}
	t.seq++
	handle := ports.MessageHandle(fmt.Sprintf("msg-%d", t.seq))
	t.announced = append(t.announced, text)
	t.live[handle] = text
	return handle, nil
}

func (t *recordingTransport) Retract(_ context.Context, handle ports.MessageHandle) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.live[handle]; !ok {
		return domain.ErrMessageNotFound
	}
	delete(t.live, handle)
	t.retracted = append(t.retracted, handle)
	return nil
}

func (t *recordingTransport) last() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.announced) == 0 {
		return ""
	}
	return t.announced[len(t.announced)-1]
}

func (t *recordingTransport) liveTexts() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	texts := make([]string, 0, len(t.live))
	for _, text := range t.live {
		texts = append(texts, text)
	}
	sort.Strings(texts)
	return texts
}

func (t *recordingTransport) liveCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.live)
}

type harness struct {
	t         *testing.T
	ctx       context.Context
	store     *memory.Store
	clock     *fakeClock
	scheduler *manualScheduler
	transport *recordingTransport

	members     ports.MemberService
	events      ports.EventService
	messages    ports.MessageService
	registry    *SuggestionRegistry
	tally       *TallyEngine
	resolver    *Resolver
	lifecycle   *PollLifecycle
	gameCounter int64
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 6, 18, 0, 0, 0, time.UTC)}
	h := &harness{
		t:         t,
		ctx:       context.Background(),
		store:     memory.NewStore(),
		clock:     clock,
		scheduler: &manualScheduler{clock: clock},
		transport: newRecordingTransport(),
	}
	h.wire()
	return h
}

// wire builds a fresh set of services over the same store, the way a process
// restart would.
func (h *harness) wire() {
	h.members = NewMemberService(h.store, h.clock)
	h.events = NewEventService(h.store, h.transport, h.clock, nil)
	h.messages = NewMessageService(h.store, h.transport, h.clock, nil)
	h.registry = NewSuggestionRegistry(h.store, h.clock, nil)
	h.tally = NewTallyEngine(h.store, h.transport, h.clock, nil)
	h.resolver = NewResolver(h.store, h.transport, h.clock, nil)
	h.lifecycle = NewPollLifecycle(h.store, h.resolver, h.transport, h.clock,
		WithScheduler(h.scheduler),
		WithReminderLead(5*time.Minute),
		WithRetryDelay(time.Minute),
	)
}

// restart drops every in-memory timer and rebuilds the services.
func (h *harness) restart() {
	h.lifecycle.Shutdown()
	h.scheduler = &manualScheduler{clock: h.clock}
	h.wire()
}

func (h *harness) member(identity string) *domain.Member {
	h.t.Helper()
	m, err := h.members.GetOrCreate(h.ctx, identity)
	require.NoError(h.t, err)
	return m
}

func (h *harness) event(name string) *domain.Event {
	h.t.Helper()
	e, err := h.events.Create(h.ctx, ports.CreateEventInput{Name: name, Date: h.clock.Now().Add(72 * time.Hour)})
	require.NoError(h.t, err)
	return e
}

func (h *harness) rsvp(event *domain.Event, members ...*domain.Member) {
	h.t.Helper()
	for _, m := range members {
		_, err := h.events.Rsvp(h.ctx, event.ID, m.ID)
		require.NoError(h.t, err)
	}
}

func (h *harness) suggest(author *domain.Member, title string) *domain.SuggestionView {
	h.t.Helper()
	h.gameCounter++
	view, err := h.registry.Suggest(h.ctx, ports.SuggestInput{
		AuthorID: author.ID,
		Game: ports.GameInput{
			ExternalID: h.gameCounter,
			Title:      title,
			URL:        fmt.Sprintf("https://boardgamegeek.com/boardgame/%d", h.gameCounter),
		},
	})
	require.NoError(h.t, err)
	return view
}

func (h *harness) open(event *domain.Event, hours int) *domain.Poll {
	h.t.Helper()
	poll, err := h.lifecycle.Open(h.ctx, ports.OpenPollInput{EventID: event.ID, DurationHours: hours})
	require.NoError(h.t, err)
	return poll
}

func (h *harness) vote(m *domain.Member, ballotNumber int) {
	h.t.Helper()
	_, err := h.tally.CastBallotByNumber(h.ctx, m.ID, ballotNumber)
	require.NoError(h.t, err)
}

func (h *harness) power(m *domain.Member) int {
	h.t.Helper()
	current, err := h.members.GetOrCreate(h.ctx, m.Identity)
	require.NoError(h.t, err)
	return current.Power
}

func (h *harness) suggestion(id uuid.UUID) *domain.Suggestion {
	h.t.Helper()
	var s *domain.Suggestion
	err := h.store.Do(h.ctx, func(ctx context.Context, repos ports.Repositories) error {
		var err error
		s, err = repos.Suggestions().GetByID(ctx, id)
		return err
	})
	require.NoError(h.t, err)
	return s
}

func (h *harness) eventByID(id uuid.UUID) *domain.Event {
	h.t.Helper()
	var e *domain.Event
	err := h.store.Do(h.ctx, func(ctx context.Context, repos ports.Repositories) error {
		var err error
		e, err = repos.Events().GetByID(ctx, id)
		return err
	})
	require.NoError(h.t, err)
	return e
}

func (h *harness) setStreak(id uuid.UUID, streak int) {
	h.t.Helper()
	err := h.store.Do(h.ctx, func(ctx context.Context, repos ports.Repositories) error {
		return repos.Suggestions().SetLossStreak(ctx, id, streak)
	})
	require.NoError(h.t, err)
}

func (h *harness) addPower(m *domain.Member, delta int) {
	h.t.Helper()
	err := h.store.Do(h.ctx, func(ctx context.Context, repos ports.Repositories) error {
		return repos.Members().AddPower(ctx, []uuid.UUID{m.ID}, delta)
	})
	require.NoError(h.t, err)
}

func (h *harness) resetPower(m *domain.Member) {
	h.t.Helper()
	err := h.store.Do(h.ctx, func(ctx context.Context, repos ports.Repositories) error {
		return repos.Members().ResetPower(ctx, []uuid.UUID{m.ID})
	})
	require.NoError(h.t, err)
}

func (h *harness) tracked() []domain.TrackedMessage {
	h.t.Helper()
	var messages []domain.TrackedMessage
	err := h.store.Do(h.ctx, func(ctx context.Context, repos ports.Repositories) error {
		var err error
		messages, err = repos.Messages().List(ctx)
		return err
	})
	require.NoError(h.t, err)
	return messages
}

// resolveDuring finalizes the open poll the first time an announcement
// starting with prefix goes out.
func (h *harness) resolveDuring(prefix string) {
	h.transport.mu.Lock()
	defer h.transport.mu.Unlock()
	h.transport.onAnnounce = func(text string) {
		if !strings.HasPrefix(text, prefix) {
			return
		}
		h.transport.mu.Lock()
		h.transport.onAnnounce = nil
		h.transport.mu.Unlock()

		poll, err := h.lifecycle.Active(h.ctx)
		require.NoError(h.t, err)
		_, err = h.resolver.Finalize(h.ctx, poll.ID)
		require.NoError(h.t, err)
	}
}
