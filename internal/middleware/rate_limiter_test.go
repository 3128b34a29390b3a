package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doRequest(h http.Handler, target, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.RemoteAddr = ip + ":12345"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestPerPointLimitExceeded(t *testing.T) {
	ResetVisitors()
	h := RateLimitMiddleware(okHandler())

	target := "/weather?lat=10.0&lng=20.0&source=openweathermap"
	for i := 0; i < 2; i++ {
		w := doRequest(h, target, "1.2.3.4")
		assert.Equal(t, http.StatusOK, w.Code, "request %d should pass", i+1)
	}

	w := doRequest(h, target, "1.2.3.4")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "per-point limit")
}

func TestDifferentPointsHaveIndependentLimits(t *testing.T) {
	ResetVisitors()
	h := RateLimitMiddleware(okHandler())

	for i := 0; i < 2; i++ {
		w := doRequest(h, "/weather?lat=10.0&lng=20.0", "1.2.3.4")
		assert.Equal(t, http.StatusOK, w.Code)
	}

	// A different point from the same IP still has budget.
	w := doRequest(h, "/weather?lat=50.0&lng=8.0", "1.2.3.4")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGlobalLimitExceeded(t *testing.T) {
	ResetVisitors()
	h := RateLimitMiddleware(okHandler())

	// Spread requests over distinct points so only the global bucket drains.
	for i := 0; i < 10; i++ {
		target := fmt.Sprintf("/weather?lat=10.%d&lng=20.0", i)
		w := doRequest(h, target, "5.6.7.8")
		assert.Equal(t, http.StatusOK, w.Code, "request %d should pass", i+1)
	}

	w := doRequest(h, "/weather?lat=99.0&lng=20.0", "5.6.7.8")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "global limit")
}

func TestDifferentIPsHaveIndependentLimits(t *testing.T) {
	ResetVisitors()
	h := RateLimitMiddleware(okHandler())

	target := "/weather?lat=10.0&lng=20.0"
	for i := 0; i < 2; i++ {
		doRequest(h, target, "1.1.1.1")
	}
	w := doRequest(h, target, "2.2.2.2")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestXForwardedForPreferred(t *testing.T) {
	ResetVisitors()
	h := RateLimitMiddleware(okHandler())

	target := "/weather?lat=10.0&lng=20.0"
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.RemoteAddr = "9.9.9.9:1000"
		req.Header.Set("X-Forwarded-For", "7.7.7.7, 9.9.9.9")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	// Same forwarded client, different RemoteAddr: still the same bucket.
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.RemoteAddr = "8.8.8.8:1000"
	req.Header.Set("X-Forwarded-For", "7.7.7.7")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
