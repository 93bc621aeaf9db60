package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gcsguardian/guardian/internal/api"
	"github.com/gcsguardian/guardian/internal/apiclient"
	"github.com/gcsguardian/guardian/internal/config"
	"github.com/gcsguardian/guardian/internal/loader"
	"github.com/gcsguardian/guardian/internal/render"
	"github.com/gcsguardian/guardian/internal/results"
	"github.com/gcsguardian/guardian/internal/storage"
)

const msgInvalidScanID = "Invalid scan_id."

// Config configures the results server. ListenAddr defaults to
// config.DefaultListenAddr. Token and Persistent only back requests while the
// server listens on a loopback address.
type Config struct {
	ListenAddr   string
	APIBase      string
	Token        string
	Persistent   storage.Store
	HTTPClient   *http.Client
	UserAgent    string
	Version      string
	CopyFeedback time.Duration
	RateLimit    int
	Logger       *slog.Logger
}

// Server renders results pages over HTTP. Each request is its own session:
// the token comes from the request when present and nothing is shared
// between requests except the persistent store. Off loopback, requests must
// bring their own token and never see the operator's cached scan.
type Server struct {
	cfg    Config
	router chi.Router
	logger *slog.Logger
	local  bool
}

// New creates a Server with its routes installed.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = config.DefaultListenAddr
	}

	s := &Server{
		cfg:    cfg,
		router: chi.NewRouter(),
		logger: logger,
		local:  isLoopback(cfg.ListenAddr),
	}
	if !s.local {
		logger.Warn("listening beyond loopback, requests must send their own bearer token",
			"addr", cfg.ListenAddr)
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	csp := api.PageCSP([]string{render.ScriptHash()}, []string{render.StyleHash()})
	r.Use(api.Harden(csp))
	r.Use(api.LimitBody(api.MaxRequestBody))
	r.Use(api.Throttle(s.cfg.RateLimit, api.ThrottleWindow))

	r.Get("/healthz", s.handleHealth)
	r.Get("/results", s.handleResultsPage)
	r.Get("/api/results", s.handleResultsJSON)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	s.router.ServeHTTP(w, r)
	s.logger.Info("http_request",
		"method", r.Method,
		"path", r.URL.Path,
		"duration", time.Since(start))
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.cfg.Version,
	})
}

func (s *Server) handleResultsPage(w http.ResponseWriter, r *http.Request) {
	target := render.NewHTMLTarget(s.cfg.CopyFeedback)
	status := s.show(r, target)

	var buf bytes.Buffer
	if err := target.Render(&buf); err != nil {
		s.logger.Error("render results page", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleResultsJSON(w http.ResponseWriter, r *http.Request) {
	target := render.NewJSONTarget(nil, false)
	status := s.show(r, target)
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, status, target.Document())
}

// show runs one results view into target and returns the HTTP status.
func (s *Server) show(r *http.Request, target render.Target) int {
	scanID := r.URL.Query().Get("scan_id")
	if scanID != "" {
		if err := api.ValidateScanID(scanID); err != nil {
			s.logger.Warn("rejected scan id", "error", err)
			target.Summary(msgInvalidScanID)
			return http.StatusBadRequest
		}
	}

	persistent := s.cfg.Persistent
	if !s.local {
		persistent = nil
	}

	env := results.Env{
		APIBase:    s.cfg.APIBase,
		Token:      func() string { return s.requestToken(r) },
		Persistent: persistent,
		Target:     target,
		HTTPClient: s.cfg.HTTPClient,
		UserAgent:  s.cfg.UserAgent,
		Logger:     s.logger,
	}

	_, err := results.Show(r.Context(), env, scanID)
	return statusFor(err)
}

// requestToken prefers the caller's bearer token over the configured one.
// The configured token is only lent to loopback listeners.
func (s *Server) requestToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if tok, ok := strings.CutPrefix(auth, "Bearer "); ok && strings.TrimSpace(tok) != "" {
		return strings.TrimSpace(tok)
	}
	if !s.local {
		return ""
	}
	return s.cfg.Token
}

// isLoopback reports whether addr binds only the loopback interface. An
// empty or wildcard host binds every interface.
func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, loader.ErrMissingScanID):
		return http.StatusBadRequest
	case errors.Is(err, loader.ErrMissingToken), errors.Is(err, apiclient.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, loader.ErrScanNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}
