package models

import "time"

// Subscription channels and statuses. Severity values mirror what the billing
// engine emits on events.
const (
	ChannelEmail   = "email"
	ChannelWebhook = "webhook"
	ChannelSlack   = "slack"

	SubscriptionActive              = "active"
	SubscriptionPendingVerification = "pending_verification"
	SubscriptionDisabled            = "disabled"
)

// Subscription is a notification subscription configured in the console
// settings panel. TenantID is nil for global subscriptions.
type Subscription struct {
	ID           string    `json:"id"`
	Channel      string    `json:"channel"`
	Status       string    `json:"status"`
	Severity     string    `json:"severity"`
	CreatedBy    string    `json:"created_by"`
	MaskedTarget string    `json:"masked_target"`
	TenantID     *string   `json:"tenant_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// FilterCriteria selects subscriptions in the settings panel. Empty string,
// "all" and "any" mean the field is unconstrained; a nil AppliedTenantID means
// no tenant scoping.
type FilterCriteria struct {
	Channel         string  `json:"channel"`
	Status          string  `json:"status"`
	Severity        string  `json:"severity"`
	SearchTerm      string  `json:"search_term"`
	AppliedTenantID *string `json:"applied_tenant_id"`
}

// SubscriptionRequest is the request body for creating a subscription.
type SubscriptionRequest struct {
	Channel  string  `json:"channel"`
	Severity string  `json:"severity"`
	Target   string  `json:"target"`
	TenantID *string `json:"tenant_id"`
}
