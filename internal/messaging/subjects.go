package messaging

import "strings"

// Billing event subjects. Each tenant gets its own subject so consoles scoped
// to one tenant can subscribe narrowly; the wildcard form feeds the shared
// live buffer.
const (
	// SubjectEventsPrefix is the root of the billing event subject space.
	SubjectEventsPrefix = "billing.events"

	// SubjectAllEvents matches billing events for every tenant.
	SubjectAllEvents = "billing.events.>"
)

// EventSubject returns the publish subject for a tenant's billing events.
// Events with no tenant go to the "global" segment.
func EventSubject(tenantID string) string {
	if tenantID == "" {
		return SubjectEventsPrefix + ".global"
	}
	return SubjectEventsPrefix + "." + sanitizeToken(tenantID)
}

// TenantFromSubject extracts the tenant segment from an event subject.
// Returns empty string for the global segment or a foreign subject.
func TenantFromSubject(subject string) string {
	rest, ok := strings.CutPrefix(subject, SubjectEventsPrefix+".")
	if !ok || rest == "global" {
		return ""
	}
	return rest
}

// sanitizeToken makes an identifier safe for use as a subject token. NATS
// tokens must not contain spaces, dots or wildcard characters.
func sanitizeToken(s string) string {
	replacer := strings.NewReplacer(" ", "_", ".", "_", "*", "_", ">", "_")
	return replacer.Replace(s)
}
