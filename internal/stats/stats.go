// Package stats provides Redis-backed billing feed statistics per tenant.
//
// Multiple feed instances can record concurrently; any service can read.
//
// Redis key structure:
//
//	feed:stats:{tenant}              - hash with current stats
//	feed:hourly:{tenant}:{YYYYMMDDHH} - event count for a specific hour (expires 48h)
//	feed:daily:{tenant}:{YYYYMMDD}   - event count for a specific day (expires 7d)
package stats

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const tenantGlobal = "global"

// Stats represents current feed statistics for a tenant.
type Stats struct {
	TenantID         string     `json:"tenant_id"`
	LastEventAt      *time.Time `json:"last_event_at,omitempty"`
	LastEventID      string     `json:"last_event_id,omitempty"`
	TotalEvents      int64      `json:"total_events"`
	EventsLastHour   int64      `json:"events_last_hour"`
	EventsLast24h    int64      `json:"events_last_24h"`
	StatsRetrievedAt time.Time  `json:"stats_retrieved_at"`
}

// Client records and retrieves feed statistics.
type Client struct {
	redis *redis.Client
}

// NewClient connects to Redis and verifies the connection.
func NewClient(redisURL string) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &Client{redis: client}, nil
}

// NewClientFromRedis creates a client from an existing Redis connection.
func NewClientFromRedis(client *redis.Client) *Client {
	return &Client{redis: client}
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.redis.Close()
}

// RecordEvent records one live event for a tenant. Called on every inbound
// message; the pipelined writes keep it cheap enough for that.
func (c *Client) RecordEvent(ctx context.Context, tenantID, eventID string, occurredAt time.Time) error {
	tenant := normalizeTenant(tenantID)
	now := time.Now()
	hourKey := now.Format("2006010215") // YYYYMMDDHH
	dayKey := now.Format("20060102")    // YYYYMMDD

	pipe := c.redis.Pipeline()

	statsKey := fmt.Sprintf("feed:stats:%s", tenant)
	pipe.HSet(ctx, statsKey, map[string]interface{}{
		"last_event_at": strconv.FormatInt(occurredAt.Unix(), 10),
		"last_event_id": eventID,
	})
	pipe.HIncrBy(ctx, statsKey, "total_events", 1)

	hourlyKey := fmt.Sprintf("feed:hourly:%s:%s", tenant, hourKey)
	pipe.Incr(ctx, hourlyKey)
	pipe.Expire(ctx, hourlyKey, 48*time.Hour)

	dailyKey := fmt.Sprintf("feed:daily:%s:%s", tenant, dayKey)
	pipe.Incr(ctx, dailyKey)
	pipe.Expire(ctx, dailyKey, 7*24*time.Hour)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}

// GetStats retrieves current statistics for a tenant.
func (c *Client) GetStats(ctx context.Context, tenantID string) (*Stats, error) {
	tenant := normalizeTenant(tenantID)
	now := time.Now()

	hourlyKeys := make([]string, 24)
	for i := 0; i < 24; i++ {
		t := now.Add(-time.Duration(i) * time.Hour)
		hourlyKeys[i] = fmt.Sprintf("feed:hourly:%s:%s", tenant, t.Format("2006010215"))
	}

	pipe := c.redis.Pipeline()

	statsCmd := pipe.HGetAll(ctx, fmt.Sprintf("feed:stats:%s", tenant))
	currentHourCmd := pipe.Get(ctx, hourlyKeys[0])

	hourlyCmds := make([]*redis.StringCmd, len(hourlyKeys))
	for i, key := range hourlyKeys {
		hourlyCmds[i] = pipe.Get(ctx, key)
	}

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	stats := &Stats{
		TenantID:         tenant,
		StatsRetrievedAt: now,
	}

	if statsMap, err := statsCmd.Result(); err == nil {
		if lastStr, ok := statsMap["last_event_at"]; ok {
			if unix, err := strconv.ParseInt(lastStr, 10, 64); err == nil {
				t := time.Unix(unix, 0)
				stats.LastEventAt = &t
			}
		}
		stats.LastEventID = statsMap["last_event_id"]
		if totalStr, ok := statsMap["total_events"]; ok {
			stats.TotalEvents, _ = strconv.ParseInt(totalStr, 10, 64)
		}
	}

	if val, err := currentHourCmd.Int64(); err == nil {
		stats.EventsLastHour = val
	}
	for _, cmd := range hourlyCmds {
		if val, err := cmd.Int64(); err == nil {
			stats.EventsLast24h += val
		}
	}

	return stats, nil
}

func normalizeTenant(tenantID string) string {
	if tenantID == "" {
		return tenantGlobal
	}
	return tenantID
}
