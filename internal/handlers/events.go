package handlers

import (
	"net/http"
	"time"

	"github.com/ledgerpane/ledgerpane/internal/auth"
	"github.com/ledgerpane/ledgerpane/internal/feed"
	"github.com/ledgerpane/ledgerpane/internal/httputil"
	"github.com/ledgerpane/ledgerpane/internal/logging"
	"github.com/ledgerpane/ledgerpane/internal/metrics"
	"github.com/ledgerpane/ledgerpane/internal/models"
	"github.com/ledgerpane/ledgerpane/internal/timeutil"
)

// feedEvent is an event as rendered for the console: the stored fields plus
// the display timestamps the frontend shows in the feed rows.
type feedEvent struct {
	models.Event
	OccurredRelative string `json:"occurred_relative"`
	OccurredClock    string `json:"occurred_clock"`
}

type feedResponse struct {
	Events     []feedEvent `json:"events"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

// ListEvents handles GET /api/events: one page of history merged with the
// live buffer, deduplicated, newest first.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	tenantID := auth.TenantID(r.Context())
	if tenantID == "" {
		// Operators without a tenant claim may narrow the view explicitly.
		tenantID = r.URL.Query().Get("tenant")
	}

	limit := httputil.ParseIntParam(r.URL.Query().Get("limit"), h.limits.Default)
	if limit > h.limits.Max {
		limit = h.limits.Max
	}
	if limit <= 0 {
		limit = h.limits.Default
	}
	cursor := r.URL.Query().Get("cursor")

	page, err := h.repo.ListEvents(r.Context(), tenantID, limit, cursor)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list events",
			logging.TenantID(tenantID), logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list events")
		return
	}

	// Only the first page gets live events merged in: deeper pages are
	// historical by definition and merging would duplicate rows across pages.
	var live []models.Event
	if cursor == "" {
		live = filterTenant(h.live.Snapshot(), tenantID)
	}
	merged := feed.Merge(page.Events, live)
	metrics.FeedMergedSize.Observe(float64(len(merged)))

	now := h.now()
	out := feedResponse{Events: make([]feedEvent, 0, len(merged)), NextCursor: page.NextCursor}
	for _, e := range merged {
		out.Events = append(out.Events, feedEvent{
			Event:            e,
			OccurredRelative: timeutil.FormatRelative(e.OccurredAt, now),
			OccurredClock:    timeutil.FormatClock(e.OccurredAt),
		})
	}

	metrics.FeedRequestDuration.Observe(time.Since(start).Seconds())
	httputil.WriteJSON(w, http.StatusOK, out)
}

func filterTenant(events []models.Event, tenantID string) []models.Event {
	if tenantID == "" {
		return events
	}
	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		if e.TenantID == tenantID {
			out = append(out, e)
		}
	}
	return out
}
