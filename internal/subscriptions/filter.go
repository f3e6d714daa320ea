// Package subscriptions implements notification-subscription filtering for the
// console settings panel.
package subscriptions

import (
	"strings"

	"github.com/ledgerpane/ledgerpane/internal/models"
)

// unconstrained reports whether a criteria value places no constraint on its
// field. The UI sends "all" or "any" for untouched dropdowns and an empty
// string for a cleared one.
func unconstrained(v string) bool {
	return v == "" || v == "all" || v == "any"
}

// Filter returns the subscriptions matching every active criterion. Criteria
// are AND-combined. The search term is a case-insensitive substring match over
// the creator and the masked delivery target. When AppliedTenantID is set only
// subscriptions bound to that exact tenant pass; global subscriptions
// (tenant_id null) are excluded, since a concrete tenant scope asks for that
// tenant's own configuration.
func Filter(subs []models.Subscription, c models.FilterCriteria) []models.Subscription {
	matched := make([]models.Subscription, 0, len(subs))
	for _, s := range subs {
		if Matches(s, c) {
			matched = append(matched, s)
		}
	}
	return matched
}

// Matches reports whether a single subscription passes all criteria.
func Matches(s models.Subscription, c models.FilterCriteria) bool {
	if !unconstrained(c.Channel) && s.Channel != c.Channel {
		return false
	}
	if !unconstrained(c.Status) && s.Status != c.Status {
		return false
	}
	if !unconstrained(c.Severity) && s.Severity != c.Severity {
		return false
	}
	if term := strings.ToLower(strings.TrimSpace(c.SearchTerm)); term != "" {
		haystack := strings.ToLower(s.CreatedBy + " " + s.MaskedTarget)
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	if c.AppliedTenantID != nil {
		if s.TenantID == nil || *s.TenantID != *c.AppliedTenantID {
			return false
		}
	}
	return true
}
