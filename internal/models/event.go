package models

// Event is a billing event as delivered by the billing engine. The same event
// may arrive twice: once over the live stream and once in a later history page.
// ID is the dedup key.
type Event struct {
	ID         string                 `json:"id"`
	OccurredAt string                 `json:"occurred_at"`
	Type       string                 `json:"type"`
	Status     string                 `json:"status"`
	TenantID   string                 `json:"tenant_id,omitempty"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// EventPage is one page of historical events plus the cursor for the next page.
type EventPage struct {
	Events     []Event `json:"events"`
	NextCursor string  `json:"next_cursor,omitempty"`
}
