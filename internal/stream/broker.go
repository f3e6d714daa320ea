// Package stream maintains the live side of the billing event feed: a bounded
// buffer of recently streamed events plus fan-out to connected SSE clients.
package stream

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ledgerpane/ledgerpane/internal/logging"
	"github.com/ledgerpane/ledgerpane/internal/messaging"
	"github.com/ledgerpane/ledgerpane/internal/metrics"
	"github.com/ledgerpane/ledgerpane/internal/models"
)

const defaultClientBuffer = 64

// Broker consumes billing events from the message bus, retains the most recent
// ones for merging into feed responses, and fans each event out to subscribed
// clients. Safe for concurrent use.
type Broker struct {
	logger     *logging.Logger
	bufferSize int

	// OnEvent, when set before Start, is invoked for every decoded live event
	// (used to record tenant stats). Must not block.
	OnEvent func(models.Event)

	mu      sync.RWMutex
	buffer  []models.Event
	clients map[chan models.Event]struct{}

	sub messaging.Subscription
}

// NewBroker creates a broker retaining at most bufferSize live events.
func NewBroker(bufferSize int, logger *logging.Logger) *Broker {
	if bufferSize <= 0 {
		bufferSize = 200
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Broker{
		logger:     logger,
		bufferSize: bufferSize,
		clients:    make(map[chan models.Event]struct{}),
	}
}

// Start subscribes to the billing event subject space.
func (b *Broker) Start(sub messaging.Subscriber) error {
	s, err := sub.Subscribe(messaging.SubjectAllEvents, b.handleMessage)
	if err != nil {
		return err
	}
	b.sub = s
	b.logger.Info("subscribed to live billing events", logging.Subject(messaging.SubjectAllEvents))
	return nil
}

// Stop unsubscribes from the bus and closes all client channels.
func (b *Broker) Stop() error {
	var err error
	if b.sub != nil {
		err = b.sub.Unsubscribe()
	}

	b.mu.Lock()
	for ch := range b.clients {
		close(ch)
		delete(b.clients, ch)
	}
	b.mu.Unlock()
	metrics.StreamClients.Set(0)

	return err
}

// handleMessage decodes an inbound bus message and publishes it to the feed.
func (b *Broker) handleMessage(ctx context.Context, msg *messaging.Message) error {
	var e models.Event
	if err := json.Unmarshal(msg.Data, &e); err != nil {
		metrics.LiveEventsMalformed.Inc()
		b.logger.WarnContext(ctx, "malformed live event payload",
			logging.Subject(msg.Subject), logging.Error(err))
		return err
	}
	if e.ID == "" {
		metrics.LiveEventsMalformed.Inc()
		b.logger.WarnContext(ctx, "live event missing id", logging.Subject(msg.Subject))
		return nil
	}
	if e.TenantID == "" {
		e.TenantID = messaging.TenantFromSubject(msg.Subject)
	}

	b.Publish(e)
	return nil
}

// Publish appends an event to the live buffer and fans it out. Clients that
// cannot keep up are skipped rather than blocking the bus callback; they still
// recover via the merged history fetch.
func (b *Broker) Publish(e models.Event) {
	metrics.LiveEventsTotal.WithLabelValues(orGlobal(e.TenantID)).Inc()

	if b.OnEvent != nil {
		b.OnEvent(e)
	}

	b.mu.Lock()
	b.buffer = append(b.buffer, e)
	if len(b.buffer) > b.bufferSize {
		b.buffer = b.buffer[len(b.buffer)-b.bufferSize:]
	}
	for ch := range b.clients {
		select {
		case ch <- e:
		default:
			metrics.DroppedFanoutTotal.Inc()
		}
	}
	b.mu.Unlock()
}

// Snapshot returns a copy of the live buffer, oldest first.
func (b *Broker) Snapshot() []models.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]models.Event, len(b.buffer))
	copy(out, b.buffer)
	return out
}

// SnapshotAfter returns the buffered events that arrived after the event with
// the given ID. When the ID is unknown (or empty) the whole buffer is
// returned, which lets reconnecting clients replay conservatively.
func (b *Broker) SnapshotAfter(eventID string) []models.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	start := 0
	if eventID != "" {
		for i := len(b.buffer) - 1; i >= 0; i-- {
			if b.buffer[i].ID == eventID {
				start = i + 1
				break
			}
		}
	}

	out := make([]models.Event, len(b.buffer)-start)
	copy(out, b.buffer[start:])
	return out
}

// Subscribe registers a client channel. The returned cancel function removes
// the client and closes its channel; it is safe to call more than once.
func (b *Broker) Subscribe() (<-chan models.Event, func()) {
	ch := make(chan models.Event, defaultClientBuffer)

	b.mu.Lock()
	b.clients[ch] = struct{}{}
	n := len(b.clients)
	b.mu.Unlock()
	metrics.StreamClients.Set(float64(n))

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			if _, ok := b.clients[ch]; ok {
				delete(b.clients, ch)
				close(ch)
			}
			n := len(b.clients)
			b.mu.Unlock()
			metrics.StreamClients.Set(float64(n))
		})
	}

	return ch, cancel
}

// ClientCount returns the number of connected stream clients.
func (b *Broker) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

func orGlobal(tenant string) string {
	if tenant == "" {
		return "global"
	}
	return tenant
}
