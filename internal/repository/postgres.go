// Package repository persists billing events and notification subscriptions in
// PostgreSQL.
package repository

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerpane/ledgerpane/internal/models"
	"github.com/ledgerpane/ledgerpane/internal/timeutil"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Timestamps are stored as timestamptz and rendered back in the wire format
// the console expects: RFC3339 with millisecond precision.
const wireTimeLayout = "2006-01-02T15:04:05.000Z07:00"

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(ctx context.Context, connString string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Close() { r.pool.Close() }

// InsertEvent stores a billing event. Duplicate IDs are ignored: the live
// stream and the seeder may both deliver the same event.
func (r *PostgresRepository) InsertEvent(ctx context.Context, e models.Event) error {
	occurred, ok := timeutil.ParseTimestamp(e.OccurredAt)
	if !ok {
		return fmt.Errorf("insert event %s: unparseable occurred_at %q", e.ID, e.OccurredAt)
	}

	data := e.Data
	if data == nil {
		data = map[string]interface{}{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("insert event %s: marshal data: %w", e.ID, err)
	}

	q := `INSERT INTO billing_events (id, occurred_at, event_type, status, tenant_id, data)
          VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
          ON CONFLICT (id) DO NOTHING`
	if _, err := r.pool.Exec(ctx, q, e.ID, occurred, e.Type, e.Status, e.TenantID, payload); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ListEvents returns one history page, newest first, with keyset pagination.
// An empty tenant lists events across all tenants. The returned cursor is
// empty when the page was not full.
func (r *PostgresRepository) ListEvents(ctx context.Context, tenantID string, limit int, cursor string) (*models.EventPage, error) {
	if limit <= 0 {
		limit = 50
	}

	q := `SELECT id, occurred_at, event_type, status, COALESCE(tenant_id, ''), data
          FROM billing_events`
	args := []interface{}{}
	conds := []string{}

	if tenantID != "" {
		args = append(args, tenantID)
		conds = append(conds, fmt.Sprintf("tenant_id = $%d", len(args)))
	}
	if cursor != "" {
		before, beforeID, err := decodeCursor(cursor)
		if err != nil {
			return nil, fmt.Errorf("list events: %w", err)
		}
		args = append(args, before)
		tsArg := len(args)
		args = append(args, beforeID)
		conds = append(conds, fmt.Sprintf("(occurred_at, id) < ($%d, $%d)", tsArg, tsArg+1))
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, limit)
	q += fmt.Sprintf(" ORDER BY occurred_at DESC, id DESC LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	page := &models.EventPage{Events: []models.Event{}}
	var lastOccurred time.Time
	var lastID string
	for rows.Next() {
		var e models.Event
		var occurred time.Time
		var payload []byte
		if err := rows.Scan(&e.ID, &occurred, &e.Type, &e.Status, &e.TenantID, &payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.OccurredAt = occurred.UTC().Format(wireTimeLayout)
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &e.Data); err != nil {
				return nil, fmt.Errorf("decode event data: %w", err)
			}
		}
		page.Events = append(page.Events, e)
		lastOccurred, lastID = occurred, e.ID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	if len(page.Events) == limit {
		page.NextCursor = encodeCursor(lastOccurred, lastID)
	}
	return page, nil
}

// ListSubscriptions returns all subscriptions visible to a tenant scope:
// the tenant's own plus global ones. An empty tenant lists everything.
// Criteria filtering happens in the service layer, over this superset.
func (r *PostgresRepository) ListSubscriptions(ctx context.Context, tenantID string) ([]models.Subscription, error) {
	q := `SELECT id, channel, status, severity, created_by, masked_target, tenant_id, created_at
          FROM subscriptions`
	args := []interface{}{}
	if tenantID != "" {
		q += ` WHERE tenant_id = $1 OR tenant_id IS NULL`
		args = append(args, tenantID)
	}
	q += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []models.Subscription{}
	for rows.Next() {
		var s models.Subscription
		if err := rows.Scan(&s.ID, &s.Channel, &s.Status, &s.Severity, &s.CreatedBy,
			&s.MaskedTarget, &s.TenantID, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return subs, nil
}

// CreateSubscription stores a new subscription row.
func (r *PostgresRepository) CreateSubscription(ctx context.Context, s models.Subscription) error {
	q := `INSERT INTO subscriptions (id, channel, status, severity, created_by, masked_target, tenant_id, created_at)
          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.pool.Exec(ctx, q, s.ID, s.Channel, s.Status, s.Severity, s.CreatedBy,
		s.MaskedTarget, s.TenantID, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}
	return nil
}

// DeleteSubscription removes a subscription by ID.
func (r *PostgresRepository) DeleteSubscription(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetEvent returns a single event by ID.
func (r *PostgresRepository) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	q := `SELECT id, occurred_at, event_type, status, COALESCE(tenant_id, ''), data
          FROM billing_events WHERE id = $1`

	var e models.Event
	var occurred time.Time
	var payload []byte
	err := r.pool.QueryRow(ctx, q, id).Scan(&e.ID, &occurred, &e.Type, &e.Status, &e.TenantID, &payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	e.OccurredAt = occurred.UTC().Format(wireTimeLayout)
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &e.Data); err != nil {
			return nil, fmt.Errorf("decode event data: %w", err)
		}
	}
	return &e, nil
}

// Cursors encode the last row of a page as "<unix_milli>:<id>".
func encodeCursor(occurred time.Time, id string) string {
	raw := strconv.FormatInt(occurred.UnixMilli(), 10) + ":" + id
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(cursor string) (time.Time, string, error) {
	raw, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("bad cursor: %w", err)
	}
	ms, id, ok := strings.Cut(string(raw), ":")
	if !ok {
		return time.Time{}, "", errors.New("bad cursor")
	}
	unixMilli, err := strconv.ParseInt(ms, 10, 64)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("bad cursor: %w", err)
	}
	return time.UnixMilli(unixMilli), id, nil
}
