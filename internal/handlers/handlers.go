// Package handlers implements the console feed API.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/ledgerpane/ledgerpane/internal/httputil"
	"github.com/ledgerpane/ledgerpane/internal/logging"
	"github.com/ledgerpane/ledgerpane/internal/models"
	"github.com/ledgerpane/ledgerpane/internal/stats"
)

// Repository defines the persistence operations the handlers need.
type Repository interface {
	ListEvents(ctx context.Context, tenantID string, limit int, cursor string) (*models.EventPage, error)
	ListSubscriptions(ctx context.Context, tenantID string) ([]models.Subscription, error)
	CreateSubscription(ctx context.Context, s models.Subscription) error
	DeleteSubscription(ctx context.Context, id string) error
}

// LiveFeed defines the live event source the handlers need.
type LiveFeed interface {
	Snapshot() []models.Event
	SnapshotAfter(eventID string) []models.Event
	Subscribe() (<-chan models.Event, func())
	ClientCount() int
}

// StatsReader retrieves per-tenant feed statistics.
type StatsReader interface {
	GetStats(ctx context.Context, tenantID string) (*stats.Stats, error)
}

// PageLimits bound history page sizes.
type PageLimits struct {
	Default int
	Max     int
}

type Handler struct {
	repo   Repository
	live   LiveFeed
	stats  StatsReader
	limits PageLimits
	logger *logging.Logger

	// now is swappable for tests of relative-time rendering.
	now func() time.Time
}

func NewHandler(repo Repository, live LiveFeed, statsReader StatsReader, limits PageLimits, logger *logging.Logger) *Handler {
	if limits.Default <= 0 {
		limits.Default = 50
	}
	if limits.Max <= 0 {
		limits.Max = 250
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:   repo,
		live:   live,
		stats:  statsReader,
		limits: limits,
		logger: logger,
		now:    time.Now,
	}
}

// HealthCheck handles GET /api/health.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "healthy",
		"service":        "ledgerpane",
		"stream_clients": h.live.ClientCount(),
	})
}
