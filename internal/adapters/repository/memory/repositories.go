package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/tabletop/internal/core/domain"
)

type memberRepository struct{ s *state }

func (r memberRepository) GetByIdentity(_ context.Context, identity string) (*domain.Member, error) {
	for _, m := range r.s.members {
		if m.Identity == identity {
			return &m, nil
		}
	}
	return nil, nil
}

func (r memberRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Member, error) {
	m, ok := r.s.members[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

// Create keeps the first member registered under an identity and copies it
// back into member.
func (r memberRepository) Create(ctx context.Context, member *domain.Member) error {
	existing, _ := r.GetByIdentity(ctx, member.Identity)
	if existing != nil {
		*member = *existing
		return nil
	}
	r.s.members[member.ID] = *member
	return nil
}

func (r memberRepository) AddPower(_ context.Context, ids []uuid.UUID, delta int) error {
	for _, id := range dedupe(ids) {
		m, ok := r.s.members[id]
		if !ok {
			continue
		}
		m.Power += delta
		r.s.members[id] = m
	}
	return nil
}

func (r memberRepository) ResetPower(_ context.Context, ids []uuid.UUID) error {
	for _, id := range ids {
		m, ok := r.s.members[id]
		if !ok {
			continue
		}
		m.Power = domain.DefaultPower
		r.s.members[id] = m
	}
	return nil
}

type eventRepository struct{ s *state }

func (r eventRepository) Create(_ context.Context, event *domain.Event) error {
	r.s.events[event.ID] = *event
	return nil
}

func (r eventRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Event, error) {
	e, ok := r.s.events[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (r eventRepository) ListUpcoming(_ context.Context, after time.Time) ([]domain.EventSummary, error) {
	var events []domain.EventSummary
	for _, e := range r.s.events {
		if e.Date.Before(after) {
			continue
		}
		summary := domain.EventSummary{Event: e}
		for _, rsvp := range r.s.rsvps {
			if rsvp.EventID == e.ID {
				summary.Attendees++
			}
		}
		if e.WinningGameID != nil {
			if g, ok := r.s.games[*e.WinningGameID]; ok {
				summary.WinningGame = &g
			}
		}
		events = append(events, summary)
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})
	return events, nil
}

func (r eventRepository) MarkDecided(_ context.Context, id uuid.UUID, gameID uuid.UUID) error {
	e, ok := r.s.events[id]
	if !ok {
		return domain.ErrEventNotFound
	}
	e.GameDecided = true
	e.WinningGameID = &gameID
	r.s.events[id] = e
	return nil
}

func (r eventRepository) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.s.events[id]; !ok {
		return domain.ErrEventNotFound
	}
	delete(r.s.events, id)
	for pid, p := range r.s.polls {
		if p.EventID == id {
			delete(r.s.polls, pid)
		}
	}
	for rid, rsvp := range r.s.rsvps {
		if rsvp.EventID == id {
			delete(r.s.rsvps, rid)
		}
	}
	return nil
}

type gameRepository struct{ s *state }

func (r gameRepository) GetByExternalID(_ context.Context, externalID int64) (*domain.Game, error) {
	for _, g := range r.s.games {
		if g.ExternalID == externalID {
			return &g, nil
		}
	}
	return nil, nil
}

func (r gameRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Game, error) {
	g, ok := r.s.games[id]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

// Create never overwrites a cached game; the stored record is copied back.
func (r gameRepository) Create(ctx context.Context, game *domain.Game) error {
	existing, _ := r.GetByExternalID(ctx, game.ExternalID)
	if existing != nil {
		*game = *existing
		return nil
	}
	r.s.games[game.ID] = *game
	return nil
}

type suggestionRepository struct{ s *state }

func (r suggestionRepository) Create(_ context.Context, suggestion *domain.Suggestion) error {
	for _, existing := range r.s.suggestions {
		if existing.GameID == suggestion.GameID {
			return domain.ErrDuplicateSuggestion
		}
		if existing.BallotNumber == suggestion.BallotNumber {
			return domain.ErrBallotNumberTaken
		}
	}
	r.s.suggestions[suggestion.ID] = *suggestion
	return nil
}

func (r suggestionRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Suggestion, error) {
	s, ok := r.s.suggestions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r suggestionRepository) GetByBallotNumber(_ context.Context, number int) (*domain.Suggestion, error) {
	for _, s := range r.s.suggestions {
		if s.BallotNumber == number {
			return &s, nil
		}
	}
	return nil, nil
}

func (r suggestionRepository) FindByGame(_ context.Context, gameID uuid.UUID) (*domain.SuggestionView, error) {
	for _, s := range r.s.suggestions {
		if s.GameID == gameID {
			view := r.view(s)
			return &view, nil
		}
	}
	return nil, nil
}

func (r suggestionRepository) BallotNumbers(_ context.Context) ([]int, error) {
	numbers := make([]int, 0, len(r.s.suggestions))
	for _, s := range r.s.suggestions {
		numbers = append(numbers, s.BallotNumber)
	}
	slices.Sort(numbers)
	return numbers, nil
}

func (r suggestionRepository) List(_ context.Context) ([]domain.SuggestionView, error) {
	views := make([]domain.SuggestionView, 0, len(r.s.suggestions))
	for _, s := range r.s.suggestions {
		views = append(views, r.view(s))
	}
	sort.Slice(views, func(i, j int) bool {
		return views[i].BallotNumber < views[j].BallotNumber
	})
	return views, nil
}

func (r suggestionRepository) Count(_ context.Context) (int, error) {
	return len(r.s.suggestions), nil
}

func (r suggestionRepository) SetLossStreak(_ context.Context, id uuid.UUID, streak int) error {
	s, ok := r.s.suggestions[id]
	if !ok {
		return domain.ErrSuggestionNotFound
	}
	s.LossStreak = streak
	r.s.suggestions[id] = s
	return nil
}

func (r suggestionRepository) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.s.suggestions, id)
	for vid, v := range r.s.votes {
		if v.SuggestionID == id {
			delete(r.s.votes, vid)
		}
	}
	return nil
}

func (r suggestionRepository) DeleteAll(_ context.Context) error {
	clear(r.s.suggestions)
	clear(r.s.votes)
	return nil
}

func (r suggestionRepository) view(s domain.Suggestion) domain.SuggestionView {
	view := domain.SuggestionView{Suggestion: s}
	if g, ok := r.s.games[s.GameID]; ok {
		view.Title = g.Title
		view.URL = g.URL
	}
	if m, ok := r.s.members[s.AuthorID]; ok {
		view.Author = m.Identity
	}
	return view
}

type voteRepository struct{ s *state }

func (r voteRepository) Create(_ context.Context, vote *domain.Vote) error {
	if _, ok := r.s.suggestions[vote.SuggestionID]; !ok {
		return domain.ErrSuggestionNotFound
	}
	for _, existing := range r.s.votes {
		if existing.MemberID == vote.MemberID {
			return domain.ErrVoteCollision
		}
	}
	r.s.votes[vote.ID] = *vote
	return nil
}

func (r voteRepository) DeleteByMember(_ context.Context, memberID uuid.UUID) error {
	for id, v := range r.s.votes {
		if v.MemberID == memberID {
			delete(r.s.votes, id)
		}
	}
	return nil
}

func (r voteRepository) Ballots(_ context.Context) ([]domain.Ballot, error) {
	ballots := make([]domain.Ballot, 0, len(r.s.votes))
	for _, v := range r.s.votes {
		s, ok := r.s.suggestions[v.SuggestionID]
		if !ok {
			continue
		}
		ballot := domain.Ballot{
			MemberID:     v.MemberID,
			SuggestionID: s.ID,
			GameID:       s.GameID,
			BallotNumber: s.BallotNumber,
			Power:        r.s.members[v.MemberID].Power,
		}
		if g, ok := r.s.games[s.GameID]; ok {
			ballot.Title = g.Title
		}
		ballots = append(ballots, ballot)
	}
	return ballots, nil
}

func (r voteRepository) DeleteAll(_ context.Context) error {
	clear(r.s.votes)
	return nil
}

type pollRepository struct{ s *state }

func (r pollRepository) Create(_ context.Context, poll *domain.Poll) error {
	if poll.Active {
		for _, p := range r.s.polls {
			if p.Active {
				return domain.ErrPollAlreadyOpen
			}
		}
	}
	if _, ok := r.s.events[poll.EventID]; !ok {
		return domain.ErrEventNotFound
	}
	r.s.polls[poll.ID] = *poll
	return nil
}

func (r pollRepository) GetActive(_ context.Context) (*domain.Poll, error) {
	for _, p := range r.s.polls {
		if p.Active {
			return &p, nil
		}
	}
	return nil, nil
}

func (r pollRepository) GetByIDForUpdate(_ context.Context, id uuid.UUID) (*domain.Poll, error) {
	p, ok := r.s.polls[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r pollRepository) GetByEvent(_ context.Context, eventID uuid.UUID) (*domain.Poll, error) {
	for _, p := range r.s.polls {
		if p.EventID == eventID {
			return &p, nil
		}
	}
	return nil, nil
}

func (r pollRepository) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.s.polls, id)
	return nil
}

type messageRepository struct{ s *state }

func (r messageRepository) Track(_ context.Context, message *domain.TrackedMessage) error {
	r.s.messages[message.ID] = *message
	return nil
}

func (r messageRepository) List(_ context.Context) ([]domain.TrackedMessage, error) {
	messages := make([]domain.TrackedMessage, 0, len(r.s.messages))
	for _, m := range r.s.messages {
		messages = append(messages, m)
	}
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages, nil
}

func (r messageRepository) DeleteAll(_ context.Context) error {
	clear(r.s.messages)
	return nil
}

type rsvpRepository struct{ s *state }

func (r rsvpRepository) Create(ctx context.Context, rsvp *domain.Rsvp) error {
	if _, ok := r.s.events[rsvp.EventID]; !ok {
		return domain.ErrEventNotFound
	}
	attending, _ := r.HasRsvp(ctx, rsvp.MemberID, rsvp.EventID)
	if attending {
		return domain.ErrAlreadyRsvped
	}
	r.s.rsvps[rsvp.ID] = *rsvp
	return nil
}

func (r rsvpRepository) Delete(_ context.Context, eventID, memberID uuid.UUID) error {
	for id, rsvp := range r.s.rsvps {
		if rsvp.EventID == eventID && rsvp.MemberID == memberID {
			delete(r.s.rsvps, id)
			return nil
		}
	}
	return domain.ErrNotRsvped
}

func (r rsvpRepository) HasRsvp(_ context.Context, memberID, eventID uuid.UUID) (bool, error) {
	for _, rsvp := range r.s.rsvps {
		if rsvp.EventID == eventID && rsvp.MemberID == memberID {
			return true, nil
		}
	}
	return false, nil
}

func (r rsvpRepository) CountByEvent(_ context.Context, eventID uuid.UUID) (int, error) {
	count := 0
	for _, rsvp := range r.s.rsvps {
		if rsvp.EventID == eventID {
			count++
		}
	}
	return count, nil
}

func (r rsvpRepository) DeleteByEvent(_ context.Context, eventID uuid.UUID) error {
	for id, rsvp := range r.s.rsvps {
		if rsvp.EventID == eventID {
			delete(r.s.rsvps, id)
		}
	}
	return nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
