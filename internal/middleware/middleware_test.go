package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jeremyjsx/academy/internal/gate"
)

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || rec.Header().Get(RequestIDHeader) != seen {
		t.Errorf("generated id %q header %q", seen, rec.Header().Get(RequestIDHeader))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "abc-123" {
		t.Errorf("incoming id not reused: %q", seen)
	}
}

func TestAdminGate(t *testing.T) {
	g := gate.New("riyaz")
	var valid bool
	h := AdminGate(g, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		valid = CapabilityFrom(r.Context()).Valid()
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		value  string
		want   int
	}{
		{name: "secret header", header: AdminSecretHeader, value: "riyaz", want: http.StatusNoContent},
		{name: "bearer", header: "Authorization", value: "Bearer riyaz", want: http.StatusNoContent},
		{name: "wrong secret", header: AdminSecretHeader, value: "nope", want: http.StatusUnauthorized},
		{name: "missing", want: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid = false
			req := httptest.NewRequest(http.MethodGet, "/admin/posts", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if valid != (tt.want == http.StatusNoContent) {
				t.Errorf("capability valid = %v", valid)
			}
		})
	}
}

func TestCapabilityFrom_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if CapabilityFrom(req.Context()).Valid() {
		t.Error("capability without gate")
	}
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	if rl.Blocked("1.1.1.1") {
		t.Fatal("blocked before any failure")
	}
	rl.Fail("1.1.1.1")
	if rl.Blocked("1.1.1.1") {
		t.Error("blocked after one failure")
	}
	rl.Fail("1.1.1.1")
	if !rl.Blocked("1.1.1.1") {
		t.Error("not blocked at the limit")
	}
	if rl.Blocked("2.2.2.2") {
		t.Error("other client blocked")
	}
	now = now.Add(2 * time.Minute)
	if rl.Blocked("1.1.1.1") {
		t.Error("window did not reset")
	}
}

func TestRateLimiter_ClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/admin/unlock", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	if got := NewRateLimiter(1, time.Minute).ClientIP(req); got != "10.0.0.1" {
		t.Errorf("untrusted ClientIP = %q, want RemoteAddr host", got)
	}
	if got := NewRateLimiter(1, time.Minute).TrustProxyHeaders(true).ClientIP(req); got != "203.0.113.7" {
		t.Errorf("trusted ClientIP = %q, want first forwarded hop", got)
	}
	req.Header.Set("X-Real-IP", "198.51.100.2")
	if got := NewRateLimiter(1, time.Minute).TrustProxyHeaders(true).ClientIP(req); got != "198.51.100.2" {
		t.Errorf("trusted ClientIP = %q, want X-Real-IP", got)
	}
}

func TestAdminGate_ThrottlesFailures(t *testing.T) {
	g := gate.New("riyaz")
	rl := NewRateLimiter(2, time.Minute)
	h := AdminGate(g, rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	send := func(secret, forwardedFor string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/admin/posts", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		req.Header.Set(AdminSecretHeader, secret)
		req.Header.Set("X-Forwarded-For", forwardedFor)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if rec := send("riyaz", "1.1.1.1"); rec.Code != http.StatusNoContent {
		t.Fatalf("correct secret status = %d", rec.Code)
	}
	attempts := []struct {
		forwardedFor string
		want         int
	}{
		{"192.0.2.1", http.StatusUnauthorized},
		{"192.0.2.2", http.StatusUnauthorized},
		{"192.0.2.3", http.StatusTooManyRequests},
	}
	for i, a := range attempts {
		if rec := send("nope", a.forwardedFor); rec.Code != a.want {
			t.Errorf("failure %d status = %d, want %d", i, rec.Code, a.want)
		}
	}
	rec := send("riyaz", "9.9.9.9")
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("blocked client with correct secret status = %d, want 429", rec.Code)
	}
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body.Error.Code != "RATE_LIMITED" {
		t.Errorf("429 body code = %q, err %v", body.Error.Code, err)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("429 content type = %q", ct)
	}
}

func TestLogging_CapturesStatus(t *testing.T) {
	h := Logging(discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/posts", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestRecover(t *testing.T) {
	h := Recover(discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
