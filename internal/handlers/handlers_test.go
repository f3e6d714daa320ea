package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerpane/ledgerpane/internal/auth"
	"github.com/ledgerpane/ledgerpane/internal/models"
	"github.com/ledgerpane/ledgerpane/internal/repository"
	"github.com/ledgerpane/ledgerpane/internal/stats"
)

// fakeRepo is an in-memory Repository for handler tests.
type fakeRepo struct {
	mu     sync.Mutex
	events []models.Event
	subs   []models.Subscription
	err    error
}

func (f *fakeRepo) ListEvents(_ context.Context, tenantID string, limit int, cursor string) (*models.EventPage, error) {
	if f.err != nil {
		return nil, f.err
	}
	page := &models.EventPage{Events: []models.Event{}}
	for _, e := range f.events {
		if tenantID != "" && e.TenantID != tenantID {
			continue
		}
		if len(page.Events) == limit {
			page.NextCursor = "next"
			break
		}
		page.Events = append(page.Events, e)
	}
	return page, nil
}

func (f *fakeRepo) ListSubscriptions(_ context.Context, tenantID string) ([]models.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []models.Subscription{}
	for _, s := range f.subs {
		if tenantID == "" || s.TenantID == nil || *s.TenantID == tenantID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateSubscription(_ context.Context, s models.Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, s)
	return nil
}

func (f *fakeRepo) DeleteSubscription(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, s := range f.subs {
		if s.ID == id {
			f.subs = append(f.subs[:i], f.subs[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// fakeLive is an in-memory LiveFeed.
type fakeLive struct {
	buffer []models.Event
	ch     chan models.Event
}

func (f *fakeLive) Snapshot() []models.Event { return f.buffer }

func (f *fakeLive) SnapshotAfter(eventID string) []models.Event {
	for i := len(f.buffer) - 1; i >= 0; i-- {
		if f.buffer[i].ID == eventID {
			return f.buffer[i+1:]
		}
	}
	return f.buffer
}

func (f *fakeLive) Subscribe() (<-chan models.Event, func()) {
	if f.ch == nil {
		f.ch = make(chan models.Event, 16)
	}
	return f.ch, func() {}
}

func (f *fakeLive) ClientCount() int { return 0 }

type fakeStats struct {
	stats *stats.Stats
	err   error
}

func (f *fakeStats) GetStats(_ context.Context, tenantID string) (*stats.Stats, error) {
	if f.err != nil {
		return nil, f.err
	}
	s := *f.stats
	s.TenantID = tenantID
	return &s, nil
}

func newTestHandler(repo *fakeRepo, live *fakeLive) *Handler {
	h := NewHandler(repo, live, &fakeStats{stats: &stats.Stats{TotalEvents: 7}}, PageLimits{Default: 50, Max: 250}, nil)
	h.now = func() time.Time { return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC) }
	return h
}

func withTenant(r *http.Request, tenant string) *http.Request {
	ctx := context.WithValue(r.Context(), auth.TenantIDKey, tenant)
	return r.WithContext(ctx)
}

func TestListEvents_MergesLiveAndHistory(t *testing.T) {
	repo := &fakeRepo{events: []models.Event{
		{ID: "h1", OccurredAt: "2026-08-30T11:58:00Z", Type: "invoice.paid", Status: "settled", TenantID: "tenant-a"},
		{ID: "dup", OccurredAt: "2026-08-30T11:55:00Z", Type: "payment.failed", Status: "failed", TenantID: "tenant-a"},
	}}
	live := &fakeLive{buffer: []models.Event{
		{ID: "dup", OccurredAt: "2026-08-30T11:55:00Z", Type: "payment.failed", Status: "retrying", TenantID: "tenant-a"},
		{ID: "l1", OccurredAt: "2026-08-30T11:59:30Z", Type: "credit.granted", Status: "settled", TenantID: "tenant-a"},
	}}
	h := newTestHandler(repo, live)

	req := withTenant(httptest.NewRequest(http.MethodGet, "/api/events", nil), "tenant-a")
	rec := httptest.NewRecorder()
	h.ListEvents(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp feedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 3, "dup must appear once")

	// Newest first, live copy wins for the duplicate.
	assert.Equal(t, "l1", resp.Events[0].ID)
	assert.Equal(t, "h1", resp.Events[1].ID)
	assert.Equal(t, "dup", resp.Events[2].ID)
	assert.Equal(t, "retrying", resp.Events[2].Status)

	// Display timestamps are rendered server-side.
	assert.Equal(t, "Just now", resp.Events[0].OccurredRelative)
	assert.Equal(t, "2m ago", resp.Events[1].OccurredRelative)
	assert.NotEmpty(t, resp.Events[1].OccurredClock)
}

func TestListEvents_CursorSkipsLiveMerge(t *testing.T) {
	repo := &fakeRepo{events: []models.Event{
		{ID: "h1", OccurredAt: "2026-08-30T11:00:00Z", TenantID: "tenant-a"},
	}}
	live := &fakeLive{buffer: []models.Event{
		{ID: "l1", OccurredAt: "2026-08-30T11:59:00Z", TenantID: "tenant-a"},
	}}
	h := newTestHandler(repo, live)

	req := withTenant(httptest.NewRequest(http.MethodGet, "/api/events?cursor=abc", nil), "tenant-a")
	rec := httptest.NewRecorder()
	h.ListEvents(rec, req)

	var resp feedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 1)
	assert.Equal(t, "h1", resp.Events[0].ID)
}

func TestListEvents_TenantScopesLiveBuffer(t *testing.T) {
	repo := &fakeRepo{}
	live := &fakeLive{buffer: []models.Event{
		{ID: "a1", OccurredAt: "2026-08-30T11:59:00Z", TenantID: "tenant-a"},
		{ID: "b1", OccurredAt: "2026-08-30T11:59:10Z", TenantID: "tenant-b"},
	}}
	h := newTestHandler(repo, live)

	req := withTenant(httptest.NewRequest(http.MethodGet, "/api/events", nil), "tenant-a")
	rec := httptest.NewRecorder()
	h.ListEvents(rec, req)

	var resp feedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 1)
	assert.Equal(t, "a1", resp.Events[0].ID)
}

func TestListEvents_RepoError(t *testing.T) {
	h := newTestHandler(&fakeRepo{err: assert.AnError}, &fakeLive{})

	rec := httptest.NewRecorder()
	h.ListEvents(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestListSubscriptions_Filters(t *testing.T) {
	tenantA := "tenant-a"
	repo := &fakeRepo{subs: []models.Subscription{
		{ID: "sub-1", Channel: models.ChannelEmail, Status: models.SubscriptionActive,
			Severity: "major", CreatedBy: "alice@example.com", MaskedTarget: "a***e@example.com", TenantID: &tenantA},
		{ID: "sub-2", Channel: models.ChannelWebhook, Status: models.SubscriptionPendingVerification,
			Severity: "maintenance", CreatedBy: "bob@example.com", MaskedTarget: "https://hooks.example.com/****42"},
	}}
	h := newTestHandler(repo, &fakeLive{})

	rec := httptest.NewRecorder()
	h.ListSubscriptions(rec, httptest.NewRequest(http.MethodGet, "/api/subscriptions?channel=email&status=all&q=alice", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Subscriptions []models.Subscription `json:"subscriptions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Subscriptions, 1)
	assert.Equal(t, "sub-1", resp.Subscriptions[0].ID)
}

func TestCreateSubscription(t *testing.T) {
	repo := &fakeRepo{}
	h := newTestHandler(repo, &fakeLive{})

	body := strings.NewReader(`{"channel":"email","severity":"major","target":"alice@example.com"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/subscriptions", body)
	req = req.WithContext(context.WithValue(req.Context(), auth.UserIDKey, "user-1"))
	rec := httptest.NewRecorder()
	h.CreateSubscription(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var sub models.Subscription
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sub))
	assert.NotEmpty(t, sub.ID)
	assert.Equal(t, models.SubscriptionPendingVerification, sub.Status)
	assert.Equal(t, "user-1", sub.CreatedBy)
	assert.Equal(t, "a***e@example.com", sub.MaskedTarget, "raw target never stored")
	require.Len(t, repo.subs, 1)
}

func TestCreateSubscription_TenantScopeForced(t *testing.T) {
	repo := &fakeRepo{}
	h := newTestHandler(repo, &fakeLive{})

	body := strings.NewReader(`{"channel":"email","severity":"major","target":"a@b.com","tenant_id":"tenant-z"}`)
	req := withTenant(httptest.NewRequest(http.MethodPost, "/api/subscriptions", body), "tenant-a")
	rec := httptest.NewRecorder()
	h.CreateSubscription(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, repo.subs, 1)
	require.NotNil(t, repo.subs[0].TenantID)
	assert.Equal(t, "tenant-a", *repo.subs[0].TenantID)
}

func TestCreateSubscription_Validation(t *testing.T) {
	h := newTestHandler(&fakeRepo{}, &fakeLive{})

	cases := []string{
		`not json`,
		`{"channel":"pager","severity":"major","target":"x"}`,
		`{"channel":"email","severity":"major"}`,
		`{"channel":"email","target":"a@b.com"}`,
	}
	for _, body := range cases {
		rec := httptest.NewRecorder()
		h.CreateSubscription(rec, httptest.NewRequest(http.MethodPost, "/api/subscriptions", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", body)
	}
}

func TestDeleteSubscription(t *testing.T) {
	repo := &fakeRepo{subs: []models.Subscription{{ID: "sub-1"}}}
	h := newTestHandler(repo, &fakeLive{})

	req := httptest.NewRequest(http.MethodDelete, "/api/subscriptions/sub-1", nil)
	req.SetPathValue("id", "sub-1")
	rec := httptest.NewRecorder()
	h.DeleteSubscription(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.DeleteSubscription(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTenantStats(t *testing.T) {
	h := newTestHandler(&fakeRepo{}, &fakeLive{})

	req := httptest.NewRequest(http.MethodGet, "/api/stats/tenants/tenant-a", nil)
	req.SetPathValue("id", "tenant-a")
	rec := httptest.NewRecorder()
	h.TenantStats(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var s stats.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	assert.Equal(t, "tenant-a", s.TenantID)
	assert.Equal(t, int64(7), s.TotalEvents)
}

func TestTenantStats_ScopeEnforced(t *testing.T) {
	h := newTestHandler(&fakeRepo{}, &fakeLive{})

	req := withTenant(httptest.NewRequest(http.MethodGet, "/api/stats/tenants/tenant-b", nil), "tenant-a")
	req.SetPathValue("id", "tenant-b")
	rec := httptest.NewRecorder()
	h.TenantStats(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHealthCheck(t *testing.T) {
	h := newTestHandler(&fakeRepo{}, &fakeLive{})

	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"healthy"`)
}
