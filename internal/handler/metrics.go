package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/nichegen/nichegen/internal/handler/dto"
	"github.com/nichegen/nichegen/internal/metrics"
	"github.com/nichegen/nichegen/internal/model"
)

// DailyUsageReader loads the aggregated per-engine counters for a day.
type DailyUsageReader interface {
	GetDailyUsage(ctx context.Context, day time.Time) ([]*model.DailyUsage, error)
}

// MetricsHandler exposes in-memory metrics and the aggregated usage
// counters maintained by the stream worker. Development and ops aid.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
	usage       DailyUsageReader
	logger      *slog.Logger
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter, usage DailyUsageReader, logger *slog.Logger) *MetricsHandler {
	return &MetricsHandler{
		snapshotter: snapshotter,
		usage:       usage,
		logger:      logger,
	}
}

// Snapshot handles GET /metrics/snapshot.
func (h *MetricsHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, h.snapshotter.Snapshot())
}

// Usage handles GET /metrics/usage. The day query parameter selects a
// UTC day (YYYY-MM-DD); it defaults to today.
func (h *MetricsHandler) Usage(w http.ResponseWriter, r *http.Request) {
	if h.usage == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	day := time.Now().UTC()
	if raw := r.URL.Query().Get("day"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid day; expected YYYY-MM-DD")
			return
		}
		day = parsed
	}

	usage, err := h.usage.GetDailyUsage(r.Context(), day)
	if err != nil {
		h.logger.Error("daily usage retrieval failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve usage")
		return
	}

	items := make([]dto.DailyUsageResponse, 0, len(usage))
	for _, du := range usage {
		items = append(items, dto.ToDailyUsageResponse(du))
	}

	writeJSON(w, http.StatusOK, dto.UsageResponse{
		Day:     day.UTC().Truncate(24 * time.Hour).Format("2006-01-02"),
		Engines: items,
	})
}
