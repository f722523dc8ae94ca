// Package server provides the HTTP API for ATS scoring, keyword extraction, live
// scoring sessions and report history.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/jonathan/resume-builder/internal/ats"
	"github.com/jonathan/resume-builder/internal/config"
	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/fetch"
	"github.com/jonathan/resume-builder/internal/jdparser"
	"github.com/jonathan/resume-builder/internal/llm"
	"github.com/jonathan/resume-builder/internal/recalc"
	"github.com/jonathan/resume-builder/internal/server/middleware"
	"github.com/jonathan/resume-builder/internal/server/ratelimit"
	"golang.org/x/sync/errgroup"
)

const (
	// reapInterval is how often idle sessions are closed.
	reapInterval    = time.Minute
	shutdownTimeout = 30 * time.Second
)

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	handler     http.Handler
	store       db.ReportStore
	scorer      *ats.Scorer
	parser      *jdparser.Parser
	fetcher     *fetch.CachedFetcher
	sessions    *SessionManager
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
	llmClient   llm.Client
	logger      *slog.Logger
	closeOnce   sync.Once
}

// Config holds server configuration
type Config struct {
	Port        int
	DatabaseURL string
	APIKey      string
	Policy      *ats.Policy
	Timing      recalc.Options
	UseBrowser  bool
	Logger      *slog.Logger
}

// deps are the collaborators New builds from the environment. Tests supply them directly.
type deps struct {
	store      db.ReportStore
	llmClient  llm.Client
	jwtService *JWTService
	limiter    *ratelimit.Limiter
	sched      recalc.Scheduler
}

// New creates a new server instance. History endpoints need both DATABASE_URL and
// JWT_SECRET; without them the server still scores.
func New(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx := context.Background()
	d := deps{
		limiter: ratelimit.NewLimiter(ratelimit.LoadConfig()),
		sched:   recalc.SystemScheduler(),
	}

	if cfg.DatabaseURL != "" {
		store, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close() //nolint:errcheck
			return nil, fmt.Errorf("failed to prepare database schema: %w", err)
		}
		d.store = store
	}

	if jwtConfig, err := config.NewJWTConfig(); err == nil {
		d.jwtService = NewJWTService(jwtConfig)
	} else {
		logger.Warn("authentication disabled", slog.Any("error", err))
	}

	if cfg.APIKey != "" {
		client, err := llm.NewClient(ctx, llm.ConfigFromEnv(), cfg.APIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
		d.llmClient = client
	}

	return newServer(cfg, d)
}

func newServer(cfg Config, d deps) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	policy := ats.DefaultPolicy()
	if cfg.Policy != nil {
		policy = cfg.Policy.MergeWithDefaults()
	}
	scorer, err := ats.NewScorer(policy)
	if err != nil {
		return nil, fmt.Errorf("failed to create scorer: %w", err)
	}

	fetchConfig := fetch.DefaultCachedFetcherConfig()
	fetchConfig.Options.UseBrowser = cfg.UseBrowser
	fetchConfig.Options.Logger = logger

	limiter := d.limiter
	if limiter == nil {
		limiter = ratelimit.NewLimiter(&ratelimit.Config{Enabled: false})
	}

	s := &Server{
		store:       d.store,
		scorer:      scorer,
		parser:      jdparser.NewParser(d.llmClient, logger),
		fetcher:     fetch.NewCachedFetcher(fetchConfig),
		sessions:    NewSessionManager(scorer, d.sched, cfg.Timing, logger),
		rateLimiter: limiter,
		jwtService:  d.jwtService,
		llmClient:   d.llmClient,
		logger:      logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("POST /score", s.optionalAuth(http.HandlerFunc(s.handleScore)))
	mux.HandleFunc("POST /keywords", s.handleKeywords)

	// Live scoring sessions
	mux.HandleFunc("POST /sessions", s.handleCreateSession)
	mux.HandleFunc("GET /sessions/{id}", s.handleGetSession)
	mux.HandleFunc("POST /sessions/{id}/recalculate", s.handleRecalculate)
	mux.HandleFunc("POST /sessions/{id}/flush", s.handleFlushSession)
	mux.HandleFunc("GET /sessions/{id}/stream", s.handleSessionStream)
	mux.HandleFunc("DELETE /sessions/{id}", s.handleDeleteSession)

	// Report history
	mux.Handle("GET /resumes/{id}/reports", s.requireAuth(http.HandlerFunc(s.handleListReports)))
	mux.Handle("GET /reports/{id}", s.requireAuth(http.HandlerFunc(s.handleGetReport)))

	s.handler = s.withRateLimit(s.withLogging(s.withCORS(mux)))
	s.httpServer = &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     s.handler,
		ReadTimeout: 30 * time.Second,
		// Streams stay open; WriteTimeout would cut them off.
		IdleTimeout: 60 * time.Second,
	}

	return s, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled or the listener fails, then drains open
// streams and shuts down. Resources are released before Run returns.
func (s *Server) Run(ctx context.Context) error {
	defer s.Close()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("server starting", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(reapInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				s.sessions.ReapIdle()
			}
		}
	})

	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// Open streams only end once their sessions close.
		s.sessions.CloseAll()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	err := g.Wait()
	s.logger.Info("server stopped")
	return err
}

// Close releases sessions, the rate limiter, the store and the LLM client. It is idempotent.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		s.sessions.CloseAll()
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		if s.store != nil {
			if err := s.store.Close(); err != nil {
				s.logger.Warn("failed to close report store", slog.Any("error", err))
			}
		}
		if s.llmClient != nil {
			if err := s.llmClient.Close(); err != nil {
				s.logger.Warn("failed to close LLM client", slog.Any("error", err))
			}
		}
	})
}

// optionalAuth attaches the caller's user ID when a token is present.
func (s *Server) optionalAuth(next http.Handler) http.Handler {
	if s.jwtService == nil {
		return next
	}
	return middleware.OptionalAuthMiddleware(s.jwtService.AsTokenValidator())(next)
}

// requireAuth guards history routes. Without a store or JWT secret they answer 503.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	if s.jwtService == nil || s.store == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			s.writeError(w, &ErrHistoryUnavailable{})
		})
	}
	return middleware.AuthMiddleware(s.jwtService.AsTokenValidator())(next)
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, clientID, info)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for request logs.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush keeps SSE working through the logging middleware.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)),
			slog.String("remote", r.RemoteAddr))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
		"history":  s.store != nil && s.jwtService != nil,
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// writeError maps err to a status. Internal errors are logged and not echoed.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", slog.Any("error", err))
		s.errorResponse(w, status, "Internal server error")
		return
	}
	s.errorResponse(w, status, err.Error())
}

// extractClientID extracts the client identifier from the request.
// X-Forwarded-For is ignored since it cannot be trusted without a known proxy.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, clientID string, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds())
		if seconds < 1 {
			seconds = 1
		}
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	s.logger.Warn("rate limit exceeded",
		slog.String("client", clientID),
		slog.Int("limit", info.Limit),
		slog.Time("reset", info.ResetTime))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
