package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/khaleelElias/YA/internal/catalog"
)

func TestNewRouter(t *testing.T) {
	store := setupTestStore(t)
	router := NewRouter(RouterConfig{
		Catalog:   catalog.NewInMemory(catalogBook("b1", "history")),
		Downloads: newFakeDownloader(),
		Store:     store,
		JWTSecret: testSecret,
		Version:   "test",
		Logger:    zap.NewNop(),
	})

	tests := []struct {
		name   string
		method string
		path   string
		header []string
		want   int
	}{
		{"ping", http.MethodGet, "/ping", nil, http.StatusOK},
		{"health", http.MethodGet, "/health", nil, http.StatusOK},
		{"catalog anonymous", http.MethodGet, "/api/catalog/books/b1", nil, http.StatusOK},
		{"catalog signed in", http.MethodGet, "/api/catalog/books/b1", []string{"Authorization", bearer(t, "u1")}, http.StatusOK},
		{"malformed authorization", http.MethodGet, "/api/catalog/books", []string{"Authorization", "Basic abc"}, http.StatusUnauthorized},
		{"downloads", http.MethodGet, "/api/downloads", nil, http.StatusOK},
		{"progress not configured", http.MethodGet, "/api/progress/b1", nil, http.StatusNotFound},
		{"bookmarks not configured", http.MethodGet, "/api/bookmarks/b1", nil, http.StatusNotFound},
		{"gc without collector", http.MethodPost, "/api/admin/gc", nil, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, tt.method, tt.path, nil, tt.header...)
			assert.Equal(t, tt.want, w.Code)
		})
	}

	w := doRequest(router, http.MethodGet, "/ping", nil)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestNewRouter_HSTS(t *testing.T) {
	plain := NewRouter(RouterConfig{Logger: zap.NewNop()})
	w := doRequest(plain, http.MethodGet, "/ping", nil, "X-Forwarded-Proto", "https")
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))

	hsts := NewRouter(RouterConfig{HSTSMaxAge: 600, Logger: zap.NewNop()})
	w = doRequest(hsts, http.MethodGet, "/ping", nil, "X-Forwarded-Proto", "https")
	assert.Equal(t, "max-age=600; includeSubDomains", w.Header().Get("Strict-Transport-Security"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}
