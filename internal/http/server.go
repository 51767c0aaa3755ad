// Package http exposes the ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"finance/internal/ledger"
	"finance/internal/log"
	"finance/internal/metrics"
	"finance/internal/middleware/ratelimit"
	"finance/internal/middleware/security"
	"finance/internal/middleware/trace"
)

const (
	defaultRequestTimeout = 10 * time.Second
	readyTimeout          = 3 * time.Second
)

type Options struct {
	Logger         *log.Logger
	RateLimitRPM   int
	RequestTimeout time.Duration
	// Ready backs /readyz; nil means always ready.
	Ready func(context.Context) error
	// Now is the reference clock for reports that default to "today".
	Now func() time.Time
}

type Server struct {
	http.Server
	store    *ledger.Store
	logger   *log.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	ready    func(context.Context) error
	now      func() time.Time

	// writeMu serialises mutations within this process.
	writeMu      sync.Mutex
	shutdownOnce sync.Once
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, store *ledger.Store, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default(log.ComponentHTTP)
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		store:    store,
		logger:   opts.Logger.WithComponent(log.ComponentHTTP),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitRPM}),
		detector: security.NewDetector(),
		ready:    opts.Ready,
		now:      opts.Now,
	}

	r := chi.NewRouter()
	r.Use(trace.Middleware)
	r.Use(log.Middleware(s.logger, trace.FromRequest))
	r.Use(middleware.Recoverer)
	r.Use(s.countRequests)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware(s.onSuspicious))

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.Middleware(s.detector.ClientIP, s.onRateLimited))
		r.Use(middleware.Timeout(opts.RequestTimeout))

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", s.handleListTransactions)
			r.Post("/", s.handleCreateTransaction)
			r.Get("/uid/{uid}", s.handleFindByUID)
			r.Put("/{id}", s.handleUpdateTransaction)
			r.Delete("/{id}", s.handleDeleteTransaction)
		})
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.handleListCategories)
			r.Get("/suggest", s.handleSuggestCategory)
		})
		r.Route("/reports", func(r chi.Router) {
			r.Get("/dashboard", s.handleDashboard)
			r.Get("/monthly", s.handleMonthlyTotals)
			r.Get("/categories", s.handleExpenseByCategory)
			r.Get("/series", s.handleMonthlySeries)
			r.Get("/balance", s.handleCumulativeBalance)
			r.Get("/recent", s.handleRecent)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "route not found", Kind: "not_found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed", Kind: "method_not_allowed"})
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       opts.RequestTimeout,
		WriteTimeout:      opts.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and the limiter cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// countRequests records every response under its route pattern.
func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequests.WithLabelValues(route, metrics.StatusClass(status)).Inc()
	})
}

func (s *Server) onSuspicious(r *http.Request) {
	metrics.SuspiciousRequests.Inc()
	log.FromContext(r.Context()).WithComponent(log.ComponentSecurity).WarnContext(r.Context(), "Suspicious request rejected",
		log.FieldClientIP, s.detector.ClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path,
		log.FieldUserAgent, r.UserAgent())
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	metrics.RateLimited.Inc()
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded, try again later", Kind: "rate_limited"})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
