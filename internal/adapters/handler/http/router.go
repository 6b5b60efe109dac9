package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Handlers struct {
	Auth        *Authenticator
	Events      *EventHandler
	Suggestions *SuggestionHandler
	Poll        *PollHandler
	Members     *MemberHandler
}

func NewHandler(h Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("welcome"))
		})

		r.Get("/events", h.Events.ListEvents)
		r.Get("/suggestions", h.Suggestions.ListSuggestions)
		r.Get("/poll", h.Poll.GetPoll)
		r.Get("/poll/totals", h.Poll.GetTotals)

		r.Group(func(r chi.Router) {
			r.Use(h.Auth.Authenticate)

			r.Post("/events/{id}/rsvp", h.Events.Rsvp)
			r.Delete("/events/{id}/rsvp", h.Events.CancelRsvp)
			r.Post("/suggestions", h.Suggestions.Suggest)
			r.Post("/poll/ballots", h.Poll.CastBallot)
			r.Get("/me/power", h.Members.GetPower)

			r.Group(func(r chi.Router) {
				r.Use(h.Auth.RequireOwner)

				r.Post("/events", h.Events.CreateEvent)
				r.Delete("/events/{id}", h.Events.CancelEvent)
				r.Post("/poll", h.Poll.OpenPoll)
				r.Post("/poll/close", h.Poll.ClosePoll)
				r.Delete("/suggestions", h.Suggestions.ClearSuggestions)
				r.Delete("/messages", h.Members.ClearMessages)
			})
		})
	})

	return r
}
