package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jeremyjsx/academy/internal/gate"
)

const AdminSecretHeader = "X-Admin-Secret"

type capabilityKey struct{}

// AdminGate unlocks g with the secret sent on each request and stores
// the capability in the request context. It only checks the shared
// secret; see package gate for what that does and does not protect.
// Failed unlocks count against rl, and a client over its limit gets 429
// without the secret being checked. A nil rl disables throttling.
func AdminGate(g *gate.Gate, rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := Unlock(g, rl, r, extractSecret(r))
			if errors.Is(err, ErrRateLimited) {
				WriteRateLimited(w, r)
				return
			}
			if err != nil {
				writeUnauthorized(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCapability(r.Context(), c)))
		})
	}
}

var ErrRateLimited = errors.New("too many failed unlock attempts")

// Unlock checks secret against g on behalf of r's client, refusing with
// ErrRateLimited once the client has too many recent failures.
func Unlock(g *gate.Gate, rl *RateLimiter, r *http.Request, secret string) (gate.Capability, error) {
	if rl == nil {
		return g.Unlock(secret)
	}
	ip := rl.ClientIP(r)
	if rl.Blocked(ip) {
		return gate.Capability{}, ErrRateLimited
	}
	c, err := g.Unlock(secret)
	if err != nil {
		rl.Fail(ip)
	}
	return c, err
}

func WithCapability(ctx context.Context, c gate.Capability) context.Context {
	return context.WithValue(ctx, capabilityKey{}, c)
}

// CapabilityFrom returns the zero (invalid) capability when the request
// did not pass the gate.
func CapabilityFrom(ctx context.Context) gate.Capability {
	c, _ := ctx.Value(capabilityKey{}).(gate.Capability)
	return c
}

func extractSecret(r *http.Request) string {
	if s := r.Header.Get(AdminSecretHeader); s != "" {
		return s
	}
	const prefix = "Bearer "
	if s := r.Header.Get("Authorization"); strings.HasPrefix(s, prefix) {
		return strings.TrimSpace(s[len(prefix):])
	}
	return ""
}

func writeUnauthorized(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":       "UNAUTHORIZED",
			"message":    "missing or invalid admin secret",
			"request_id": GetRequestID(r.Context()),
		},
	})
}
