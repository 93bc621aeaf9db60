package api

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

var noContent = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func requestFrom(remote, forwarded string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/results?scan_id=s", nil)
	req.RemoteAddr = remote
	if forwarded != "" {
		req.Header.Set("X-Forwarded-For", forwarded)
	}
	return req
}

func TestHardenDefaultPolicy(t *testing.T) {
	rec := serve(Harden("")(noContent), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	for _, kv := range baseHeaders {
		if got := rec.Header().Get(kv[0]); got != kv[1] {
			t.Errorf("%s = %q, want %q", kv[0], got, kv[1])
		}
	}
	if got := rec.Header().Get("Content-Security-Policy"); got != lockdownCSP {
		t.Errorf("Content-Security-Policy = %q, want lockdown", got)
	}
}

func TestHardenPinnedPage(t *testing.T) {
	csp := PageCSP([]string{"'sha256-abc'"}, []string{"'sha256-def'"})
	rec := serve(Harden(csp)(noContent), httptest.NewRequest(http.MethodGet, "/results", nil))

	want := "default-src 'none'; script-src 'sha256-abc'; style-src 'sha256-def'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'"
	if got := rec.Header().Get("Content-Security-Policy"); got != want {
		t.Errorf("Content-Security-Policy = %q\nwant %q", got, want)
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("expected frame denial alongside a custom CSP")
	}
}

func TestPageCSPNoHashesIsLockdown(t *testing.T) {
	if got := PageCSP(nil, nil); got != lockdownCSP {
		t.Errorf("PageCSP(nil, nil) = %q", got)
	}
}

func TestLimitBody(t *testing.T) {
	h := LimitBody(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.Copy(io.Discard, r.Body); err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				return
			}
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		body string
		want int
	}{
		{"12345678", http.StatusNoContent},
		{"123456789", http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/api/results", strings.NewReader(tt.body))
		if got := serve(h, req).Code; got != tt.want {
			t.Errorf("body of %d bytes: status = %d, want %d", len(tt.body), got, tt.want)
		}
	}
}

func TestThrottleBudget(t *testing.T) {
	h := Throttle(2, time.Minute)(noContent)

	for i := 1; i <= 2; i++ {
		if got := serve(h, requestFrom("198.51.100.7:1000", "")).Code; got != http.StatusNoContent {
			t.Fatalf("request %d: status = %d", i, got)
		}
	}
	rec := serve(h, requestFrom("198.51.100.7:1000", ""))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("over budget: status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After on 429")
	}

	if got := serve(h, requestFrom("198.51.100.8:1000", "")).Code; got != http.StatusNoContent {
		t.Errorf("other client: status = %d, want 204", got)
	}
}

func TestThrottleKeysOnForwardedFor(t *testing.T) {
	h := Throttle(1, time.Minute)(noContent)

	if got := serve(h, requestFrom("10.0.0.5:12345", "203.0.113.100, 10.0.0.5")).Code; got != http.StatusNoContent {
		t.Fatalf("first: status = %d", got)
	}
	if got := serve(h, requestFrom("10.0.0.6:12345", "203.0.113.100, 10.0.0.6")).Code; got != http.StatusTooManyRequests {
		t.Errorf("same origin via other proxy: status = %d, want 429", got)
	}
}

func TestLimiterWindowAndRetryAfter(t *testing.T) {
	current := time.Unix(1_700_000_000, 0)
	l := newLimiter(1, time.Minute, func() time.Time { return current })

	if ok, _ := l.Take("a"); !ok {
		t.Fatal("first take should pass")
	}

	current = current.Add(20 * time.Second)
	ok, wait := l.Take("a")
	if ok {
		t.Fatal("second take inside the window should fail")
	}
	if wait != 40*time.Second {
		t.Errorf("wait = %v, want 40s", wait)
	}

	rec := serve(l.Middleware(noContent), requestFrom("a:1", ""))
	if rec.Header().Get("Retry-After") != "40" {
		t.Errorf("Retry-After = %q, want 40", rec.Header().Get("Retry-After"))
	}

	current = current.Add(41 * time.Second)
	if ok, _ := l.Take("a"); !ok {
		t.Error("take after the window should pass")
	}
}

func TestLimiterSweepsClosedWindows(t *testing.T) {
	current := time.Unix(0, 0)
	l := newLimiter(5, time.Minute, func() time.Time { return current })

	l.Take("a")
	l.Take("b")
	current = current.Add(2 * time.Minute)
	l.Take("c")

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.clients) != 1 {
		t.Errorf("tracked clients = %d, want 1", len(l.clients))
	}
}

func TestClientAddr(t *testing.T) {
	tests := []struct {
		remote, forwarded, want string
	}{
		{"192.0.2.1:5555", "", "192.0.2.1"},
		{"192.0.2.1:5555", " 203.0.113.9 , 10.0.0.1", "203.0.113.9"},
		{"192.0.2.1:5555", " , 10.0.0.1", "192.0.2.1"},
		{"[2001:db8::1]:443", "", "2001:db8::1"},
		{"no-port", "", "no-port"},
		{"", "", "unknown"},
	}
	for _, tt := range tests {
		if got := ClientAddr(requestFrom(tt.remote, tt.forwarded)); got != tt.want {
			t.Errorf("ClientAddr(%q, %q) = %q, want %q", tt.remote, tt.forwarded, got, tt.want)
		}
	}
}
