package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fdg312/fitgen/internal/config"
)

func hit(handler http.Handler, remoteAddr, xff string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.RemoteAddr = remoteAddr
	if xff != "" {
		req.Header.Set("X-Forwarded-For", xff)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestRateLimit_SecondRequestReturns429(t *testing.T) {
	cfg := &config.Config{RateLimitRPS: 1, RateLimitBurst: 1}
	handler := RateLimitMiddleware(cfg, okHandler(nil))

	require.Equal(t, http.StatusOK, hit(handler, "1.2.3.4:12345", "").Code)

	rr := hit(handler, "1.2.3.4:12345", "")
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"Too many requests"}`, rr.Body.String())
}

func TestRateLimit_DisabledWhenZero(t *testing.T) {
	cfg := &config.Config{}

	callCount := 0
	handler := RateLimitMiddleware(cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 10; i++ {
		require.Equal(t, http.StatusOK, hit(handler, "1.2.3.4:12345", "").Code, "request %d", i)
	}
	assert.Equal(t, 10, callCount)
}

func TestRateLimit_DifferentIPsIndependent(t *testing.T) {
	cfg := &config.Config{RateLimitRPS: 1, RateLimitBurst: 1}
	handler := RateLimitMiddleware(cfg, okHandler(nil))

	assert.Equal(t, http.StatusOK, hit(handler, "1.2.3.4:1", "").Code)
	assert.Equal(t, http.StatusOK, hit(handler, "5.6.7.8:1", "").Code)
}

func TestRateLimit_UsesFirstForwardedIP(t *testing.T) {
	cfg := &config.Config{RateLimitRPS: 1, RateLimitBurst: 1}
	handler := RateLimitMiddleware(cfg, okHandler(nil))

	assert.Equal(t, http.StatusOK, hit(handler, "10.0.0.1:1", "203.0.113.7, 10.0.0.1").Code)
	// тот же клиент через другой прокси
	assert.Equal(t, http.StatusTooManyRequests, hit(handler, "10.0.0.2:1", "203.0.113.7").Code)
}
