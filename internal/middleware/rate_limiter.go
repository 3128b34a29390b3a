package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"geowx/internal/config"
	"geowx/internal/model"
)

// the visitor holds the rate limiter and last seen time for a specific IP address.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// pointVisitor holds the rate limiter and last seen time for a specific IP and query point.
type pointVisitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var (
	// globalVisitors maps IP addresses to their corresponding visitor struct for global rate limiting.
	globalVisitors = make(map[string]*visitor) // key: ip
	// pointVisitors maps IP addresses and query points to their corresponding pointVisitor struct.
	pointVisitors = make(map[string]map[string]*pointVisitor) // key: ip -> point -> visitor
	muGlobal      sync.Mutex
	muPoint       sync.Mutex
)

// getGlobalLimiter returns the rate limiter for the given IP address, creating one if it does not exist.
func getGlobalLimiter(ip string) *rate.Limiter {
	muGlobal.Lock()
	defer muGlobal.Unlock()
	v, exists := globalVisitors[ip]
	if !exists {
		r, burst := config.GetGlobalRateLimiterConfig()
		limiter := rate.NewLimiter(rate.Limit(r/60.0), burst)
		globalVisitors[ip] = &visitor{limiter, time.Now()}
		return limiter
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// getPointLimiter returns the rate limiter for the given IP address and query point, creating one if it does not exist.
func getPointLimiter(ip, point string) *rate.Limiter {
	muPoint.Lock()
	defer muPoint.Unlock()
	if _, ok := pointVisitors[ip]; !ok {
		pointVisitors[ip] = make(map[string]*pointVisitor)
	}
	v, exists := pointVisitors[ip][point]
	if !exists {
		r, burst := config.GetParamRateLimiterConfig()
		limiter := rate.NewLimiter(rate.Limit(r/60.0), burst)
		pointVisitors[ip][point] = &pointVisitor{limiter, time.Now()}
		return limiter
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// cleanupGlobalVisitors periodically removes globalVisitors entries that have not been seen recently.
func cleanupGlobalVisitors() {
	timeout := config.GetRateLimiterCleanupTimeout()
	for {
		time.Sleep(time.Minute)
		muGlobal.Lock()
		for ip, v := range globalVisitors {
			if time.Since(v.lastSeen) > timeout {
				delete(globalVisitors, ip)
			}
		}
		muGlobal.Unlock()
	}
}

// cleanupPointVisitors periodically removes pointVisitors entries that have not been seen recently.
func cleanupPointVisitors() {
	timeout := config.GetRateLimiterCleanupTimeout()
	for {
		time.Sleep(time.Minute)
		muPoint.Lock()
		for ip, pointMap := range pointVisitors {
			for point, v := range pointMap {
				if time.Since(v.lastSeen) > timeout {
					delete(pointMap, point)
				}
			}
			if len(pointMap) == 0 {
				delete(pointVisitors, ip)
			}
		}
		muPoint.Unlock()
	}
}

// StartRateLimiterCleanup starts background goroutines to clean up stale visitors for both limiters.
func StartRateLimiterCleanup() {
	go cleanupGlobalVisitors()
	go cleanupPointVisitors()
}

// ResetVisitors clears all visitor states for both limiters. Used primarily for testing.
func ResetVisitors() {
	muGlobal.Lock()
	for k := range globalVisitors {
		delete(globalVisitors, k)
	}
	muGlobal.Unlock()
	muPoint.Lock()
	for k := range pointVisitors {
		delete(pointVisitors, k)
	}
	muPoint.Unlock()
}

// getIP extracts the client's IP address from the HTTP request, considering X-Forwarded-For headers.
func getIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr // fallback
	}
	return ip
}

// getPoint extracts the queried point identity (lat, lng, source) from the HTTP request.
func getPoint(r *http.Request) string {
	q := r.URL.Query()
	if q.Get("lat") == "" && q.Get("lng") == "" {
		return "__none__"
	}
	return q.Get("lat") + ":" + q.Get("lng") + ":" + q.Get("source")
}

// RateLimitMiddleware returns an HTTP middleware that enforces global and per-point rate limiting.
// If the rate limit is exceeded, it responds with a 429 status and a JSON error message.
func RateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := getIP(r)
		point := getPoint(r)
		globalLimiter := getGlobalLimiter(ip)
		pointLimiter := getPointLimiter(ip, point)
		if !globalLimiter.Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			errMsg := "Rate limit exceeded: too many requests per minute per user/IP"
			resp := model.Response{
				Error:   &errMsg,
				Message: "Too Many Requests (global limit)",
			}
			_ = json.NewEncoder(w).Encode(resp)
			return
		}
		if !pointLimiter.Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			errMsg := "Rate limit exceeded: too many requests per minute per point per user/IP"
			resp := model.Response{
				Error:   &errMsg,
				Message: "Too Many Requests (per-point limit)",
			}
			_ = json.NewEncoder(w).Encode(resp)
			return
		}
		next.ServeHTTP(w, r)
	})
}
