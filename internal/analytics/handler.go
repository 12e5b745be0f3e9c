package analytics

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
)

// Handler serves the aggregator over HTTP.
type Handler struct {
	aggregator *Aggregator
	logger     *slog.Logger
}

func NewHandler(aggregator *Aggregator) *Handler {
	return &Handler{
		aggregator: aggregator,
		logger:     slog.Default().With("component", "stats-handler"),
	}
}

// Stats handles GET /api/v1/stats?top=N. top shortens the ranked query and
// term lists below the aggregator's own cut.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats := h.aggregator.Stats()
	if raw := r.URL.Query().Get("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.write(w, http.StatusBadRequest, map[string]string{"error": "top must be a non-negative integer"})
			return
		}
		stats.TopQueries = truncate(stats.TopQueries, n)
		stats.ZeroResultQueries = truncate(stats.ZeroResultQueries, n)
		stats.UnknownTerms = truncate(stats.UnknownTerms, n)
	}
	h.write(w, http.StatusOK, stats)
}

func (h *Handler) write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to write stats response", "error", err)
	}
}

func truncate(counts []QueryCount, n int) []QueryCount {
	if len(counts) > n {
		return counts[:n]
	}
	return counts
}
