package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORS(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	cfg := CORSConfig{
		AllowedOrigins:   []string{"https://console.example.com", "*.preview.example.com"},
		AllowedMethods:   []string{"GET", "POST", "DELETE"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           600,
	}

	tests := []struct {
		name         string
		origin       string
		method       string
		wantOrigin   string
		wantStatus   int
	}{
		{"exact origin match", "https://console.example.com", "GET", "https://console.example.com", http.StatusOK},
		{"wildcard origin match", "https://pr-42.preview.example.com", "GET", "https://pr-42.preview.example.com", http.StatusOK},
		{"disallowed origin gets no allow header", "https://evil.example.net", "GET", "", http.StatusOK},
		{"preflight short-circuits", "https://console.example.com", "OPTIONS", "https://console.example.com", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "http://example.com/api/events", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()

			CORS(cfg)(handler).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "GET, POST, DELETE", w.Header().Get("Access-Control-Allow-Methods"))
			assert.Equal(t, "Content-Type, Authorization", w.Header().Get("Access-Control-Allow-Headers"))
			assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
			assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))
		})
	}
}
