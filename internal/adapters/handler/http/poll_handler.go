package http

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/tabletop/internal/core/domain"
	"github.com/vncsmyrnk/tabletop/internal/core/ports"
)

type PollHandler struct {
	polls ports.PollService
	tally ports.TallyService
}

func NewPollHandler(polls ports.PollService, tally ports.TallyService) *PollHandler {
	return &PollHandler{
		polls: polls,
		tally: tally,
	}
}

type openPollRequest struct {
	EventID uuid.UUID `json:"event_id"`
	Hours   int       `json:"hours"`
}

type pollResponse struct {
	*domain.Poll
	RemainingSeconds int64 `json:"remaining_seconds"`
}

type totalsResponse struct {
	Empty  bool                     `json:"empty"`
	Totals []domain.SuggestionTotal `json:"totals"`
}

type ballotRequest struct {
	BallotNumber int `json:"ballot_number"`
}

func (h *PollHandler) OpenPoll(w http.ResponseWriter, r *http.Request) {
	var req openPollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	poll, err := h.polls.Open(r.Context(), ports.OpenPollInput{EventID: req.EventID, DurationHours: req.Hours})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, poll)
}

// GetPoll godoc
// @Summary      Shows the open poll and the time left to vote
// @Tags         poll
// @Produce      json
// @Success      200
// @Failure      404
// @Router       /poll [get]
func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	poll, err := h.polls.Active(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	remaining, err := h.polls.RemainingTime(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pollResponse{Poll: poll, RemainingSeconds: int64(max(remaining, 0).Seconds())})
}

func (h *PollHandler) GetTotals(w http.ResponseWriter, r *http.Request) {
	totals, ok, err := h.tally.CurrentTotals(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if totals == nil {
		totals = []domain.SuggestionTotal{}
	}
	writeJSON(w, http.StatusOK, totalsResponse{Empty: !ok, Totals: totals})
}

func (h *PollHandler) CastBallot(w http.ResponseWriter, r *http.Request) {
	member, ok := memberFrom(r)
	if !ok {
		http.Error(w, "Unauthorized: missing member context", http.StatusUnauthorized)
		return
	}

	var req ballotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	suggestion, err := h.tally.CastBallotByNumber(r.Context(), member.ID, req.BallotNumber)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, suggestion)
}

func (h *PollHandler) ClosePoll(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.polls.Close(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}
