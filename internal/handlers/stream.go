package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ledgerpane/ledgerpane/internal/auth"
	"github.com/ledgerpane/ledgerpane/internal/logging"
	"github.com/ledgerpane/ledgerpane/internal/models"
)

const heartbeatInterval = 25 * time.Second

// StreamEvents handles GET /api/events/stream as Server-Sent Events. Each
// billing event is one SSE frame with the event ID as the SSE id, so
// reconnecting browsers send Last-Event-ID and missed buffered events are
// replayed before live delivery resumes.
func (h *Handler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	tenantID := auth.TenantID(r.Context())
	if tenantID == "" {
		tenantID = r.URL.Query().Get("tenant")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch, cancel := h.live.Subscribe()
	defer cancel()

	h.logger.InfoContext(r.Context(), "stream client connected",
		logging.TenantID(tenantID), logging.Clients(h.live.ClientCount()))

	// Replay what the client missed while it was disconnected.
	if lastID := r.Header.Get("Last-Event-ID"); lastID != "" {
		for _, e := range filterTenant(h.live.SnapshotAfter(lastID), tenantID) {
			if err := writeSSE(w, e); err != nil {
				return
			}
		}
		flusher.Flush()
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.logger.Info("stream client disconnected",
				logging.TenantID(tenantID), logging.Clients(h.live.ClientCount()-1))
			return
		case <-heartbeat.C:
			// Comment frame keeps proxies from timing out the connection.
			if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case e, open := <-ch:
			if !open {
				return
			}
			if tenantID != "" && e.TenantID != tenantID {
				continue
			}
			if err := writeSSE(w, e); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, e models.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %s\nevent: billing_event\ndata: %s\n\n", e.ID, data)
	return err
}
