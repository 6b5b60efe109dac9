package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vncsmyrnk/tabletop/internal/core/domain"
	"github.com/vncsmyrnk/tabletop/internal/core/ports"
)

type EventHandler struct {
	service ports.EventService
}

func NewEventHandler(service ports.EventService) *EventHandler {
	return &EventHandler{
		service: service,
	}
}

type createEventRequest struct {
	Name string    `json:"name"`
	Date time.Time `json:"date"`
}

type attendeesResponse struct {
	EventID   uuid.UUID `json:"event_id"`
	Attendees int       `json:"attendees"`
}

// ListEvents godoc
// @Summary      Lists upcoming events
// @Tags         events
// @Produce      json
// @Success      200  {array}  domain.EventSummary
// @Router       /events [get]
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.ListUpcoming(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if events == nil {
		events = []domain.EventSummary{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	event, err := h.service.Create(r.Context(), ports.CreateEventInput{Name: req.Name, Date: req.Date})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (h *EventHandler) CancelEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid event id", http.StatusBadRequest)
		return
	}

	if err := h.service.Cancel(r.Context(), eventID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *EventHandler) Rsvp(w http.ResponseWriter, r *http.Request) {
	h.changeRsvp(w, r, h.service.Rsvp, http.StatusCreated)
}

func (h *EventHandler) CancelRsvp(w http.ResponseWriter, r *http.Request) {
	h.changeRsvp(w, r, h.service.CancelRsvp, http.StatusOK)
}

func (h *EventHandler) changeRsvp(
	w http.ResponseWriter,
	r *http.Request,
	change func(ctx context.Context, eventID, memberID uuid.UUID) (int, error),
	status int,
) {
	eventID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid event id", http.StatusBadRequest)
		return
	}

	member, ok := memberFrom(r)
	if !ok {
		http.Error(w, "Unauthorized: missing member context", http.StatusUnauthorized)
		return
	}

	attendees, err := change(r.Context(), eventID, member.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status, attendeesResponse{EventID: eventID, Attendees: attendees})
}
