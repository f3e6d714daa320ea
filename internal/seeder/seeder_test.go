package seeder

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerpane/ledgerpane/internal/messaging"
	"github.com/ledgerpane/ledgerpane/internal/models"
	"github.com/ledgerpane/ledgerpane/internal/timeutil"
)

func TestGenerate_CountAndWindow(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	gen := NewGenerator(Config{Count: 50, TimeWindow: 6 * time.Hour, Seed: 42})

	events := gen.Generate(now)
	require.Len(t, events, 50)

	for _, e := range events {
		occurred, ok := timeutil.ParseTimestamp(e.OccurredAt)
		require.True(t, ok, "generated timestamp must parse: %s", e.OccurredAt)
		assert.False(t, occurred.After(now))
		assert.False(t, occurred.Before(now.Add(-6*time.Hour)))

		assert.NotEmpty(t, e.ID)
		assert.NotEmpty(t, e.Type)
		assert.NotEmpty(t, e.Status)
		assert.NotEmpty(t, e.TenantID)
		assert.NotNil(t, e.Data["amount_cents"])
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	cfg := Config{Count: 20, TimeWindow: time.Hour, Seed: 7}

	a := NewGenerator(cfg).Generate(now)
	b := NewGenerator(cfg).Generate(now)

	require.Len(t, b, len(a))
	for i := range a {
		assert.Equal(t, a[i].Type, b[i].Type)
		assert.Equal(t, a[i].OccurredAt, b[i].OccurredAt)
		assert.Equal(t, a[i].TenantID, b[i].TenantID)
	}
}

func TestGenerate_FailureReasonOnFailedPayments(t *testing.T) {
	now := time.Now()
	events := NewGenerator(Config{Count: 300, Seed: 1}).Generate(now)

	sawFailure := false
	for _, e := range events {
		if e.Type == "payment.failed" {
			sawFailure = true
			assert.NotEmpty(t, e.Data["failure_reason"])
		}
	}
	assert.True(t, sawFailure, "300 events should include a failed payment")
}

type memStore struct {
	events []models.Event
}

func (m *memStore) InsertEvent(_ context.Context, e models.Event) error {
	m.events = append(m.events, e)
	return nil
}

type capturePublisher struct {
	subjects []string
	payloads [][]byte
}

func (c *capturePublisher) Publish(_ context.Context, subject string, data []byte) error {
	c.subjects = append(c.subjects, subject)
	c.payloads = append(c.payloads, data)
	return nil
}

func (c *capturePublisher) Request(_ context.Context, _ string, _ []byte, _ time.Duration) (*messaging.Message, error) {
	return nil, nil
}

func (c *capturePublisher) Close() error { return nil }

func TestRunner_StoresAndPublishes(t *testing.T) {
	store := &memStore{}
	pub := &capturePublisher{}
	runner := NewRunner(store, pub, nil)

	n, err := runner.Run(context.Background(), Config{Count: 10, Seed: 3})
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Len(t, store.events, 10)
	require.Len(t, pub.payloads, 10)

	for i, payload := range pub.payloads {
		var e models.Event
		require.NoError(t, json.Unmarshal(payload, &e))
		assert.Equal(t, store.events[i].ID, e.ID)
		assert.True(t, strings.HasPrefix(pub.subjects[i], "billing.events."))
	}
}

func TestRunner_NoPublisher(t *testing.T) {
	store := &memStore{}
	runner := NewRunner(store, nil, nil)

	n, err := runner.Run(context.Background(), Config{Count: 5, Seed: 3})
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}
