package handlers

import (
	"net/http"

	"github.com/ledgerpane/ledgerpane/internal/auth"
	"github.com/ledgerpane/ledgerpane/internal/httputil"
	"github.com/ledgerpane/ledgerpane/internal/logging"
)

// TenantStats handles GET /api/stats/tenants/{id}. Tenant-scoped callers can
// only read their own stats; "global" aggregates events without a tenant.
func (h *Handler) TenantStats(w http.ResponseWriter, r *http.Request) {
	if h.stats == nil {
		httputil.WriteError(w, http.StatusServiceUnavailable, "stats not enabled")
		return
	}

	tenantID := r.PathValue("id")
	if scope := auth.TenantID(r.Context()); scope != "" && tenantID != scope {
		httputil.WriteError(w, http.StatusForbidden, "stats scope not permitted")
		return
	}

	s, err := h.stats.GetStats(r.Context(), tenantID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to get tenant stats",
			logging.TenantID(tenantID), logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, s)
}
