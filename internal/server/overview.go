package server

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/wesm/kanbanpulse/internal/dashboard"
)

// parseTimeRange extracts the optional time-range request from
// query parameters. Malformed values are passed through: the
// resolver falls back to a preset window rather than erroring, so
// the dashboard is always renderable.
func parseTimeRange(r *http.Request) *dashboard.TimeRange {
	q := r.URL.Query()
	preset := q.Get("preset")
	from := q.Get("from")
	to := q.Get("to")
	if preset == "" && from == "" && to == "" {
		return nil
	}
	return &dashboard.TimeRange{
		Preset: dashboard.Preset(preset),
		From:   from,
		To:     to,
	}
}

func (s *Server) handleOverview(
	w http.ResponseWriter, r *http.Request,
) {
	overview, err := s.assembler.Overview(
		r.Context(), parseTimeRange(r),
	)
	if err != nil {
		if handleContextError(w, err) {
			return
		}
		s.logger.Error("assembling overview", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError,
			"aggregation unavailable")
		return
	}

	s.writeJSON(w, http.StatusOK, overview)
}
