package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func TestAdminAuth(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		header string
		want   int
	}{
		{name: "valid token", key: "secret", header: "Bearer secret", want: http.StatusNoContent},
		{name: "lowercase scheme", key: "secret", header: "bearer secret", want: http.StatusNoContent},
		{name: "wrong token", key: "secret", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "missing header", key: "secret", want: http.StatusUnauthorized},
		{name: "basic scheme", key: "secret", header: "Basic secret", want: http.StatusUnauthorized},
		{name: "admin disabled", key: "", header: "Bearer ", want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAdminAuth(tt.key).Middleware(http.HandlerFunc(okHandler))

			req := httptest.NewRequest(http.MethodGet, "/api/admin/orders/export", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestLoggerPassesThrough(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Logger(zap.NewNop()))
	r.Get("/api/orders/{id}", okHandler)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders/5", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
}
