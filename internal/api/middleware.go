package api

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// MaxRequestBody bounds what the results server will read from a client.
	MaxRequestBody int64 = 64 << 10

	// ThrottleRequests is the per-client budget for one ThrottleWindow.
	// A results page costs one backend reasoning call per public bucket.
	ThrottleRequests = 30

	// ThrottleWindow is the fixed window ThrottleRequests applies to.
	ThrottleWindow = time.Minute
)

// lockdownCSP is served when a page carries no inline assets.
const lockdownCSP = "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'"

// baseHeaders are set on every response before the CSP.
var baseHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Referrer-Policy", "no-referrer"},
	{"Strict-Transport-Security", "max-age=63072000; includeSubDomains"},
}

// PageCSP pins the inline script and style of a rendered page by hash.
// Empty hash lists leave the corresponding directive at default-src.
func PageCSP(scriptHashes, styleHashes []string) string {
	directives := make([]string, 0, 6)
	directives = append(directives, "default-src 'none'")
	if len(scriptHashes) > 0 {
		directives = append(directives, "script-src "+strings.Join(scriptHashes, " "))
	}
	if len(styleHashes) > 0 {
		directives = append(directives, "style-src "+strings.Join(styleHashes, " "))
	}
	directives = append(directives, "frame-ancestors 'none'", "base-uri 'none'", "form-action 'none'")
	return strings.Join(directives, "; ")
}

// Harden sets browser hardening headers and the given CSP on every response.
// An empty csp means the full lockdown policy.
func Harden(csp string) func(http.Handler) http.Handler {
	if csp == "" {
		csp = lockdownCSP
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for _, kv := range baseHeaders {
				h.Set(kv[0], kv[1])
			}
			h.Set("Content-Security-Policy", csp)
			next.ServeHTTP(w, r)
		})
	}
}

// LimitBody wraps request bodies so reads past max fail with
// *http.MaxBytesError.
func LimitBody(max int64) func(http.Handler) http.Handler {
	if max <= 0 {
		max = MaxRequestBody
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(w, r.Body, max)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Limiter is a fixed-window request counter keyed by client address.
type Limiter struct {
	limit  int
	window time.Duration
	clock  func() time.Time

	mu        sync.Mutex
	clients   map[string]*clientWindow
	lastSweep time.Time
}

type clientWindow struct {
	opened time.Time
	used   int
}

// NewLimiter returns a limiter allowing limit requests per window.
// Non-positive values fall back to ThrottleRequests and ThrottleWindow.
func NewLimiter(limit int, window time.Duration) *Limiter {
	return newLimiter(limit, window, time.Now)
}

func newLimiter(limit int, window time.Duration, clock func() time.Time) *Limiter {
	if limit <= 0 {
		limit = ThrottleRequests
	}
	if window <= 0 {
		window = ThrottleWindow
	}
	return &Limiter{
		limit:   limit,
		window:  window,
		clock:   clock,
		clients: map[string]*clientWindow{},
	}
}

// Take consumes one request for client. When the budget is spent it reports
// false and how long until the client's window reopens.
func (l *Limiter) Take(client string) (bool, time.Duration) {
	now := l.clock()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.window {
		l.sweep(now)
	}

	cw, ok := l.clients[client]
	if !ok || now.Sub(cw.opened) >= l.window {
		l.clients[client] = &clientWindow{opened: now, used: 1}
		return true, 0
	}
	if cw.used < l.limit {
		cw.used++
		return true, 0
	}
	return false, cw.opened.Add(l.window).Sub(now)
}

// sweep forgets clients whose window closed; callers hold mu.
func (l *Limiter) sweep(now time.Time) {
	for client, cw := range l.clients {
		if now.Sub(cw.opened) >= l.window {
			delete(l.clients, client)
		}
	}
	l.lastSweep = now
}

// Middleware answers 429 with Retry-After once a client exhausts its budget.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, wait := l.Take(ClientAddr(r))
		if ok {
			next.ServeHTTP(w, r)
			return
		}
		secs := int(math.Ceil(wait.Seconds()))
		if secs < 1 {
			secs = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		http.Error(w, "Too many requests.", http.StatusTooManyRequests)
	})
}

// Throttle is NewLimiter(limit, window).Middleware.
func Throttle(limit int, window time.Duration) func(http.Handler) http.Handler {
	return NewLimiter(limit, window).Middleware
}

// ClientAddr identifies the caller: the first X-Forwarded-For hop when a
// proxy supplied one, else the host part of RemoteAddr.
func ClientAddr(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
		return host
	}
	if addr == "" {
		return "unknown"
	}
	return addr
}
