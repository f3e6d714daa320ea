package logging

import "log/slog"

// Common field names for consistent logging across the service.
const (
	FieldService  = "service"
	FieldTenantID = "tenant_id"
	FieldEventID  = "event_id"
	FieldSubject  = "subject"
	FieldMethod   = "method"
	FieldPath     = "path"
	FieldStatus   = "status"
	FieldDuration = "duration_ms"
	FieldError    = "error"
	FieldClients  = "clients"
	FieldCount    = "count"
)

// Service returns a slog attribute for the service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// TenantID returns a slog attribute for a tenant ID.
func TenantID(id string) slog.Attr {
	return slog.String(FieldTenantID, id)
}

// EventID returns a slog attribute for a billing event ID.
func EventID(id string) slog.Attr {
	return slog.String(FieldEventID, id)
}

// Subject returns a slog attribute for a message bus subject.
func Subject(s string) slog.Attr {
	return slog.String(FieldSubject, s)
}

// Method returns a slog attribute for the HTTP method.
func Method(method string) slog.Attr {
	return slog.String(FieldMethod, method)
}

// Path returns a slog attribute for the HTTP path.
func Path(path string) slog.Attr {
	return slog.String(FieldPath, path)
}

// Status returns a slog attribute for the HTTP status code.
func Status(code int) slog.Attr {
	return slog.Int(FieldStatus, code)
}

// Duration returns a slog attribute for duration in milliseconds.
func Duration(ms int64) slog.Attr {
	return slog.Int64(FieldDuration, ms)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}

// Clients returns a slog attribute for a connected client count.
func Clients(n int) slog.Attr {
	return slog.Int(FieldClients, n)
}

// Count returns a slog attribute for a generic item count.
func Count(n int) slog.Attr {
	return slog.Int(FieldCount, n)
}
