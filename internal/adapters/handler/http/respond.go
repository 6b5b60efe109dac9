package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vncsmyrnk/tabletop/internal/core/domain"
	"github.com/vncsmyrnk/tabletop/internal/logging"
)

func contextWithMember(ctx context.Context, member *domain.Member) context.Context {
	return context.WithValue(ctx, MemberKey, member)
}

func memberFrom(r *http.Request) (*domain.Member, bool) {
	member, ok := r.Context().Value(MemberKey).(*domain.Member)
	return member, ok && member != nil
}

// writeError maps domain error kinds onto status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		logging.Log.WithError(err).Error("request failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Log.WithError(err).Warn("failed to encode response")
	}
}
