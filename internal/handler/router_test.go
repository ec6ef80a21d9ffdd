package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go-gin-event-booking/internal/middleware"

	"github.com/stretchr/testify/assert"
)

func TestRouter_CORSPreflight(t *testing.T) {
	s := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/bookings", nil)
	req.Header.Set("Origin", "https://tickets.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_RequestIDOnErrors(t *testing.T) {
	s := setupTestRouter(t)

	w := s.do(t, http.MethodGet, "/api/v1/bookings", nil, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}
