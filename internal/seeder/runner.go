package seeder

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ledgerpane/ledgerpane/internal/logging"
	"github.com/ledgerpane/ledgerpane/internal/messaging"
	"github.com/ledgerpane/ledgerpane/internal/models"
)

// EventStore is the persistence surface the runner writes to.
type EventStore interface {
	InsertEvent(ctx context.Context, e models.Event) error
}

// Runner seeds generated events into storage and, optionally, publishes them
// on the bus so connected consoles see them arrive live.
type Runner struct {
	store     EventStore
	publisher messaging.Publisher
	logger    *logging.Logger
}

func NewRunner(store EventStore, publisher messaging.Publisher, logger *logging.Logger) *Runner {
	if logger == nil {
		logger = logging.Default()
	}
	return &Runner{store: store, publisher: publisher, logger: logger}
}

// Run generates and stores events, returning how many were written.
func (r *Runner) Run(ctx context.Context, cfg Config) (int, error) {
	gen := NewGenerator(cfg)
	events := gen.Generate(time.Now())

	written := 0
	for _, e := range events {
		if err := r.store.InsertEvent(ctx, e); err != nil {
			return written, fmt.Errorf("seed event %s: %w", e.ID, err)
		}
		written++

		if r.publisher != nil {
			payload, err := json.Marshal(e)
			if err != nil {
				return written, fmt.Errorf("encode event %s: %w", e.ID, err)
			}
			if err := r.publisher.Publish(ctx, messaging.EventSubject(e.TenantID), payload); err != nil {
				r.logger.Warn("failed to publish seeded event",
					logging.EventID(e.ID), logging.Error(err))
			}
		}
	}

	r.logger.Info("seeding complete", logging.Count(written))
	return written, nil
}
