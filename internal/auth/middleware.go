package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/ledgerpane/ledgerpane/internal/httputil"
)

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	TenantIDKey contextKey = "tenant_id"
	RolesKey    contextKey = "roles"
)

// Middleware guards console API routes behind access token validation.
type Middleware struct {
	verifier *Verifier
}

// NewMiddleware creates an auth middleware using the given verifier.
func NewMiddleware(verifier *Verifier) *Middleware {
	return &Middleware{verifier: verifier}
}

// Protect rejects requests without a valid bearer token (or access_token
// cookie, which is what the browser console sends) and stores the caller
// identity in the request context.
func (m *Middleware) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			if cookie, err := r.Cookie("access_token"); err == nil {
				token = cookie.Value
			}
		}
		if token == "" {
			httputil.WriteError(w, http.StatusUnauthorized, "missing access token")
			return
		}

		claims, err := m.verifier.Verify(token)
		if err != nil {
			httputil.WriteError(w, http.StatusUnauthorized, "invalid access token")
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, TenantIDKey, claims.TenantID)
		ctx = context.WithValue(ctx, RolesKey, claims.Roles)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserID returns the authenticated user ID from the context, if any.
func UserID(ctx context.Context) string {
	if v, ok := ctx.Value(UserIDKey).(string); ok {
		return v
	}
	return ""
}

// TenantID returns the authenticated tenant scope from the context, if any.
func TenantID(ctx context.Context) string {
	if v, ok := ctx.Value(TenantIDKey).(string); ok {
		return v
	}
	return ""
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}
