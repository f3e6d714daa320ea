package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerpane/ledgerpane/internal/auth"
	"github.com/ledgerpane/ledgerpane/internal/httputil"
	"github.com/ledgerpane/ledgerpane/internal/logging"
	"github.com/ledgerpane/ledgerpane/internal/models"
	"github.com/ledgerpane/ledgerpane/internal/repository"
	"github.com/ledgerpane/ledgerpane/internal/subscriptions"
)

// ListSubscriptions handles GET /api/subscriptions. Query parameters map to
// filter criteria: channel, status, severity, q (search term), tenant.
// Dropdown sentinels ("all", "any", empty) leave a field unconstrained.
func (h *Handler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	scope := auth.TenantID(r.Context())

	all, err := h.repo.ListSubscriptions(r.Context(), scope)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list subscriptions", logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list subscriptions")
		return
	}

	q := r.URL.Query()
	criteria := models.FilterCriteria{
		Channel:    q.Get("channel"),
		Status:     q.Get("status"),
		Severity:   q.Get("severity"),
		SearchTerm: q.Get("q"),
	}
	if tenant := q.Get("tenant"); tenant != "" {
		criteria.AppliedTenantID = &tenant
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"subscriptions": subscriptions.Filter(all, criteria),
	})
}

// CreateSubscription handles POST /api/subscriptions. The raw delivery target
// is masked before it is stored; new subscriptions start pending verification.
func (h *Handler) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req models.SubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch req.Channel {
	case models.ChannelEmail, models.ChannelWebhook, models.ChannelSlack:
	default:
		httputil.WriteError(w, http.StatusBadRequest, "unknown channel")
		return
	}
	if req.Target == "" {
		httputil.WriteError(w, http.StatusBadRequest, "target is required")
		return
	}
	if req.Severity == "" {
		httputil.WriteError(w, http.StatusBadRequest, "severity is required")
		return
	}

	tenantID := req.TenantID
	if scope := auth.TenantID(r.Context()); scope != "" {
		// Tenant-scoped callers can only create subscriptions for themselves.
		tenantID = &scope
	}

	sub := models.Subscription{
		ID:           uuid.New().String(),
		Channel:      req.Channel,
		Status:       models.SubscriptionPendingVerification,
		Severity:     req.Severity,
		CreatedBy:    auth.UserID(r.Context()),
		MaskedTarget: subscriptions.MaskTarget(req.Channel, req.Target),
		TenantID:     tenantID,
		CreatedAt:    time.Now().UTC(),
	}

	if err := h.repo.CreateSubscription(r.Context(), sub); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to create subscription", logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to create subscription")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, sub)
}

// DeleteSubscription handles DELETE /api/subscriptions/{id}.
func (h *Handler) DeleteSubscription(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.WriteError(w, http.StatusBadRequest, "subscription ID required")
		return
	}

	if err := h.repo.DeleteSubscription(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			httputil.WriteError(w, http.StatusNotFound, "subscription not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to delete subscription", logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to delete subscription")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
