package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifier_RoundTrip(t *testing.T) {
	v := NewVerifier("test-secret")

	token, err := v.Sign("user-1", "tenant-a", []string{"billing:read"}, time.Hour)
	require.NoError(t, err)

	claims, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "tenant-a", claims.TenantID)
	assert.Equal(t, []string{"billing:read"}, claims.Roles)
}

func TestVerifier_Expired(t *testing.T) {
	v := NewVerifier("test-secret")

	token, err := v.Sign("user-1", "", nil, -time.Minute)
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifier_WrongSecret(t *testing.T) {
	token, err := NewVerifier("secret-a").Sign("user-1", "", nil, time.Hour)
	require.NoError(t, err)

	_, err = NewVerifier("secret-b").Verify(token)
	assert.Error(t, err)
}

func TestVerifier_Garbage(t *testing.T) {
	_, err := NewVerifier("test-secret").Verify("not.a.token")
	assert.Error(t, err)
}

func TestMiddleware_Protect(t *testing.T) {
	v := NewVerifier("test-secret")
	mw := NewMiddleware(v)

	var gotUser, gotTenant string
	handler := mw.Protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserID(r.Context())
		gotTenant = TenantID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	token, err := v.Sign("user-7", "tenant-b", []string{"billing:read"}, time.Hour)
	require.NoError(t, err)

	t.Run("bearer token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/events", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user-7", gotUser)
		assert.Equal(t, "tenant-b", gotTenant)
	})

	t.Run("cookie token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/events", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user-7", gotUser)
	})

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/events", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/events", nil)
		req.Header.Set("Authorization", "Bearer bogus")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
