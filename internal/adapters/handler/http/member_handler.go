package http

import (
	"net/http"

	"github.com/vncsmyrnk/tabletop/internal/core/ports"
)

type MemberHandler struct {
	messages ports.MessageService
}

func NewMemberHandler(messages ports.MessageService) *MemberHandler {
	return &MemberHandler{
		messages: messages,
	}
}

type powerResponse struct {
	Identity string `json:"identity"`
	Power    int    `json:"power"`
}

type clearedResponse struct {
	Cleared int `json:"cleared"`
}

func (h *MemberHandler) GetPower(w http.ResponseWriter, r *http.Request) {
	member, ok := memberFrom(r)
	if !ok {
		http.Error(w, "Unauthorized: missing member context", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, powerResponse{Identity: member.Identity, Power: member.Power})
}

// ClearMessages retracts every tracked announcement.
func (h *MemberHandler) ClearMessages(w http.ResponseWriter, r *http.Request) {
	cleared, err := h.messages.Clear(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, clearedResponse{Cleared: cleared})
}
