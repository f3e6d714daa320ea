package subscriptions

import (
	"net/url"
	"strings"
)

// MaskTarget obscures a delivery target before it is stored or shown in the
// settings panel. Raw targets never leave the create request: emails keep the
// first and last character of the local part, URLs keep scheme and host with
// the path tail reduced to its last two characters.
func MaskTarget(channel, target string) string {
	switch channel {
	case "email":
		return maskEmail(target)
	case "webhook", "slack":
		return maskURL(target)
	default:
		return maskOpaque(target)
	}
}

func maskEmail(addr string) string {
	local, domain, ok := strings.Cut(addr, "@")
	if !ok || local == "" {
		return maskOpaque(addr)
	}
	if len(local) <= 2 {
		return strings.Repeat("*", len(local)) + "@" + domain
	}
	return local[:1] + strings.Repeat("*", len(local)-2) + local[len(local)-1:] + "@" + domain
}

func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return maskOpaque(raw)
	}
	path := strings.TrimSuffix(u.Path, "/")
	if len(path) <= 1 {
		return u.Scheme + "://" + u.Host + "/****"
	}
	tail := path[len(path)-2:]
	return u.Scheme + "://" + u.Host + "/****" + tail
}

func maskOpaque(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
