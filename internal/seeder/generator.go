// Package seeder generates realistic billing events for demo and load
// environments.
package seeder

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"

	"github.com/ledgerpane/ledgerpane/internal/models"
)

// Event type / status / severity pools. Statuses are picked per type so the
// generated feed looks like real billing traffic, not uniform noise.
var eventTypes = []struct {
	name     string
	statuses []string
	severity string
}{
	{"invoice.created", []string{"open"}, "info"},
	{"invoice.paid", []string{"settled"}, "info"},
	{"invoice.overdue", []string{"open", "escalated"}, "major"},
	{"payment.succeeded", []string{"settled"}, "info"},
	{"payment.failed", []string{"failed", "retrying"}, "major"},
	{"credit.granted", []string{"settled"}, "info"},
	{"subscription.renewed", []string{"settled"}, "info"},
	{"subscription.canceled", []string{"closed"}, "minor"},
	{"plan.changed", []string{"settled"}, "minor"},
	{"dunning.notice_sent", []string{"open"}, "maintenance"},
}

// Config controls event generation.
type Config struct {
	Count      int
	TimeWindow time.Duration
	Tenants    []string
	Seed       int64
}

// Generator produces billing events spread over a time window.
type Generator struct {
	cfg Config
	rng *rand.Rand
}

func NewGenerator(cfg Config) *Generator {
	if cfg.Count <= 0 {
		cfg.Count = 100
	}
	if cfg.TimeWindow <= 0 {
		cfg.TimeWindow = 24 * time.Hour
	}
	if len(cfg.Tenants) == 0 {
		cfg.Tenants = []string{"tenant-acme", "tenant-globex", "tenant-initech"}
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(seed))}
}

// Generate returns cfg.Count events with jittered timestamps across the
// window, ending at now.
func (g *Generator) Generate(now time.Time) []models.Event {
	events := make([]models.Event, 0, g.cfg.Count)
	for i := 0; i < g.cfg.Count; i++ {
		events = append(events, g.generateOne(now, i))
	}
	return events
}

func (g *Generator) generateOne(now time.Time, index int) models.Event {
	et := eventTypes[g.rng.Intn(len(eventTypes))]
	tenant := g.cfg.Tenants[g.rng.Intn(len(g.cfg.Tenants))]
	occurred := g.eventTime(now, index)

	amount := int64(g.rng.Intn(200000) + 500)
	data := map[string]interface{}{
		"amount_cents": amount,
		"currency":     "USD",
		"severity":     et.severity,
		"customer":     gofakeit.Company(),
		"contact":      gofakeit.Email(),
		"invoice_ref":  fmt.Sprintf("INV-%d-%04d", occurred.Year(), g.rng.Intn(10000)),
	}
	if et.name == "payment.failed" {
		data["failure_reason"] = gofakeit.RandomString([]string{
			"card_declined", "insufficient_funds", "expired_card", "processor_timeout",
		})
	}

	return models.Event{
		ID:         uuid.New().String(),
		OccurredAt: occurred.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Type:       et.name,
		Status:     et.statuses[g.rng.Intn(len(et.statuses))],
		TenantID:   tenant,
		Data:       data,
	}
}

// eventTime spreads events across the window with ±40% jitter around an even
// distribution, placed going backwards from now.
func (g *Generator) eventTime(now time.Time, index int) time.Time {
	baseInterval := float64(g.cfg.TimeWindow) / float64(g.cfg.Count)
	baseOffset := time.Duration(float64(index) * baseInterval)

	jitterRange := baseInterval * 0.4
	jitter := time.Duration((g.rng.Float64()*2.0 - 1.0) * jitterRange)

	totalOffset := baseOffset + jitter
	if totalOffset < 0 {
		totalOffset = 0
	}
	if totalOffset > g.cfg.TimeWindow {
		totalOffset = g.cfg.TimeWindow
	}

	return now.Add(-(g.cfg.TimeWindow - totalOffset))
}
