package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// handleSetRead toggles the read flag of one inbox item. The row
// is created on first toggle; unknown ids are not an error.
func (s *Server) handleSetRead(
	w http.ResponseWriter, r *http.Request,
) {
	id := chi.URLParam(r, "id")
	if id == "" {
		s.writeError(w, http.StatusBadRequest, "missing item id")
		return
	}

	var body struct {
		IsRead bool `json:"isRead"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.db.SetRead(r.Context(), id, body.IsRead); err != nil {
		if handleContextError(w, err) {
			return
		}
		s.logger.Error("setting read state", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError,
			"internal server error")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"id":     id,
		"isRead": body.IsRead,
	})
}

// handleMarkManyRead marks a batch of inbox items read in one
// transaction.
func (s *Server) handleMarkManyRead(
	w http.ResponseWriter, r *http.Request,
) {
	var body struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.db.MarkManyRead(r.Context(), body.IDs); err != nil {
		if handleContextError(w, err) {
			return
		}
		s.logger.Error("marking many read", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError,
			"internal server error")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"marked": len(body.IDs),
	})
}

// handleMarkAllRead flips every unread row to read and reports
// how many changed.
func (s *Server) handleMarkAllRead(
	w http.ResponseWriter, r *http.Request,
) {
	n, err := s.db.MarkAllRead(r.Context())
	if err != nil {
		if handleContextError(w, err) {
			return
		}
		s.logger.Error("marking all read", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError,
			"internal server error")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]int{
		"updated": n,
	})
}
