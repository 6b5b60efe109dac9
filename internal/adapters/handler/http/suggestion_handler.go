package http

import (
	"encoding/json"
	"net/http"

	"github.com/vncsmyrnk/tabletop/internal/core/domain"
	"github.com/vncsmyrnk/tabletop/internal/core/ports"
)

type SuggestionHandler struct {
	service ports.SuggestionService
}

func NewSuggestionHandler(service ports.SuggestionService) *SuggestionHandler {
	return &SuggestionHandler{
		service: service,
	}
}

type suggestRequest struct {
	ExternalID         int64  `json:"external_id"`
	Title              string `json:"title"`
	URL                string `json:"url"`
	Playtime           string `json:"playtime"`
	Description        string `json:"description"`
	ImageURL           string `json:"image_url"`
	BestPlayers        string `json:"best_players"`
	RecommendedPlayers string `json:"recommended_players"`
}

// ListSuggestions godoc
// @Summary      Lists the suggestion queue by ballot number
// @Tags         suggestions
// @Produce      json
// @Success      200  {array}  domain.SuggestionView
// @Router       /suggestions [get]
func (h *SuggestionHandler) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	suggestions, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if suggestions == nil {
		suggestions = []domain.SuggestionView{}
	}
	writeJSON(w, http.StatusOK, suggestions)
}

func (h *SuggestionHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	member, ok := memberFrom(r)
	if !ok {
		http.Error(w, "Unauthorized: missing member context", http.StatusUnauthorized)
		return
	}

	var req suggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	view, err := h.service.Suggest(r.Context(), ports.SuggestInput{
		AuthorID: member.ID,
		Game: ports.GameInput{
			ExternalID:         req.ExternalID,
			Title:              req.Title,
			URL:                req.URL,
			Playtime:           req.Playtime,
			Description:        req.Description,
			ImageURL:           req.ImageURL,
			BestPlayers:        req.BestPlayers,
			RecommendedPlayers: req.RecommendedPlayers,
		},
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *SuggestionHandler) ClearSuggestions(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearAll(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
