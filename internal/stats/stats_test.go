package stats

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestRecordEventAndGetStats(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	c := NewClientFromRedis(client)
	ctx := context.Background()

	occurred := time.Now().Add(-time.Minute).Truncate(time.Second)
	require.NoError(t, c.RecordEvent(ctx, "tenant-a", "evt-1", occurred))
	require.NoError(t, c.RecordEvent(ctx, "tenant-a", "evt-2", occurred.Add(30*time.Second)))

	got, err := c.GetStats(ctx, "tenant-a")
	require.NoError(t, err)

	assert.Equal(t, "tenant-a", got.TenantID)
	assert.Equal(t, int64(2), got.TotalEvents)
	assert.Equal(t, int64(2), got.EventsLastHour)
	assert.Equal(t, int64(2), got.EventsLast24h)
	assert.Equal(t, "evt-2", got.LastEventID)
	require.NotNil(t, got.LastEventAt)
	assert.Equal(t, occurred.Add(30*time.Second).Unix(), got.LastEventAt.Unix())
}

func TestGetStats_UnknownTenant(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	c := NewClientFromRedis(client)

	got, err := c.GetStats(context.Background(), "tenant-missing")
	require.NoError(t, err)

	assert.Equal(t, int64(0), got.TotalEvents)
	assert.Nil(t, got.LastEventAt)
	assert.Empty(t, got.LastEventID)
}

func TestRecordEvent_GlobalTenant(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	c := NewClientFromRedis(client)
	ctx := context.Background()

	require.NoError(t, c.RecordEvent(ctx, "", "evt-1", time.Now()))

	got, err := c.GetStats(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "global", got.TenantID)
	assert.Equal(t, int64(1), got.TotalEvents)
}

func TestHourlyCountersExpire(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	c := NewClientFromRedis(client)
	ctx := context.Background()

	require.NoError(t, c.RecordEvent(ctx, "tenant-a", "evt-1", time.Now()))

	mr.FastForward(49 * time.Hour)

	got, err := c.GetStats(ctx, "tenant-a")
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.EventsLast24h, "hourly counters expire")
	assert.Equal(t, int64(1), got.TotalEvents, "running total is kept")
}
