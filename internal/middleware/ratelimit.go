package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// RateLimiter counts failed admin unlocks per client IP in fixed
// windows. State is in memory and per process.
type RateLimiter struct {
	mu         sync.Mutex
	visitors   map[string]*visitor
	limit      int
	window     time.Duration
	trustProxy bool
	now        func() time.Time
}

type visitor struct {
	windowStart time.Time
	count       int
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

// TrustProxyHeaders makes ClientIP honour X-Real-IP and X-Forwarded-For.
// Enable it only behind a proxy that overwrites those headers.
func (rl *RateLimiter) TrustProxyHeaders(trust bool) *RateLimiter {
	rl.trustProxy = trust
	return rl
}

// Blocked reports whether ip has used up its failures for the current window.
func (rl *RateLimiter) Blocked(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	v := rl.current(ip)
	return v != nil && v.count >= rl.limit
}

// Fail records a failed attempt from ip.
func (rl *RateLimiter) Fail(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	v := rl.current(ip)
	if v == nil {
		v = &visitor{windowStart: rl.now()}
		rl.visitors[ip] = v
	}
	v.count++
}

// current drops expired windows and returns ip's live one, if any.
func (rl *RateLimiter) current(ip string) *visitor {
	now := rl.now()
	for key, v := range rl.visitors {
		if now.Sub(v.windowStart) > rl.window {
			delete(rl.visitors, key)
		}
	}
	return rl.visitors[ip]
}

func (rl *RateLimiter) ClientIP(r *http.Request) string {
	if rl.trustProxy {
		if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func WriteRateLimited(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":       "RATE_LIMITED",
			"message":    "too many failed unlock attempts, try again later",
			"request_id": GetRequestID(r.Context()),
		},
	})
}
