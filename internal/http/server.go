package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"pocketwatcher/internal/auth"
	"pocketwatcher/internal/core"
	"pocketwatcher/internal/log"
	"pocketwatcher/internal/middleware/ratelimit"
	"pocketwatcher/internal/middleware/security"
	"pocketwatcher/internal/middleware/trace"
	"pocketwatcher/internal/services"
	"pocketwatcher/internal/stats"
)

// ExpenseManager is the expense use-case surface the handlers need.
type ExpenseManager interface {
	Add(ctx context.Context, ownerID string, e core.Expense) (core.Expense, error)
	Update(ctx context.Context, ownerID, id string, patch services.ExpensePatch) (core.Expense, error)
	Delete(ctx context.Context, ownerID, id string) error
	List(ctx context.Context, ownerID string) ([]core.Expense, error)
}

// StatsProvider serves the derived views.
type StatsProvider interface {
	Monthly(ctx context.Context, ownerID string, year int, month time.Month) (core.MonthlyStats, error)
	Breakdown(ctx context.Context, ownerID string, year int, month time.Month) ([]core.CategoryShare, error)
	Trend(ctx context.Context, ownerID string, year int, month time.Month, monthCount int) ([]core.MonthTotal, error)
	Dashboard(ctx context.Context, ownerID string, year int, month time.Month, trendMonths int) (services.Dashboard, error)
}

// TokenParser resolves a bearer token to an owner ID.
type TokenParser interface {
	ParseToken(token string) (string, error)
}

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// Options configures NewServer.
type Options struct {
	Addr               string
	Expenses           ExpenseManager
	Stats              StatsProvider
	Tokens             TokenParser
	Checks             map[string]ReadinessCheck
	Logger             *log.Logger
	RateLimitPerMinute int
	TrendMonths        int
}

// maxTrendMonths bounds the months query parameter.
const maxTrendMonths = 120

type Server struct {
	http.Server
	expenses    ExpenseManager
	stats       StatsProvider
	tokens      TokenParser
	checks      map[string]ReadinessCheck
	logger      *log.Logger
	events      *log.StructuredLogger
	rateLimiter *ratelimit.Limiter
	detector    *security.Detector
	tracer      *trace.Middleware
	trendMonths int
	now         func() time.Time
	started     time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server. Call Shutdown to stop it and its background goroutines.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	trendMonths := opts.TrendMonths
	if trendMonths <= 0 {
		trendMonths = stats.DefaultTrendMonths
	}

	detector := security.NewDetector()
	events := log.NewStructuredLogger(logger)

	s := &Server{
		expenses: opts.Expenses,
		stats:    opts.Stats,
		tokens:   opts.Tokens,
		checks:   opts.Checks,
		logger:   logger,
		events:   events,
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
		}),
		detector:    detector,
		tracer:      trace.NewMiddleware(detector.ExtractClientIP, events),
		trendMonths: trendMonths,
		now:         time.Now,
		started:     time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.Handle("GET /api/expenses", s.requireAuth(s.handleListExpenses))
	mux.Handle("POST /api/expenses", s.requireAuth(s.handleCreateExpense))
	mux.Handle("PUT /api/expenses/{id}", s.requireAuth(s.handleUpdateExpense))
	mux.Handle("DELETE /api/expenses/{id}", s.requireAuth(s.handleDeleteExpense))

	mux.Handle("GET /api/stats/monthly", s.requireAuth(s.handleMonthlyStats))
	mux.Handle("GET /api/stats/categories", s.requireAuth(s.handleCategoryBreakdown))
	mux.Handle("GET /api/stats/trend", s.requireAuth(s.handleTrend))
	mux.Handle("GET /api/dashboard", s.requireAuth(s.handleDashboard))

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// middleware wraps h, outermost first: request logger, request ID, access
// log, security headers, probe detection, rate limiting.
func (s *Server) middleware(h http.Handler) http.Handler {
	h = s.rateLimiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.detector.ExtractClientIP(r),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		_ = ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").Write(w)
	})(h)
	h = s.detector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.tracer.Middleware(h)
	h = log.RequestIDMiddleware(trace.RequestIDFrom)(h)
	h = trace.RequestID(h)
	return log.Middleware(s.logger)(h)
}

// requireAuth resolves the bearer token into the request's owner.
func (s *Server) requireAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.BearerToken(r.Header.Get("Authorization"))
		if err == nil {
			var owner string
			if owner, err = s.tokens.ParseToken(token); err == nil {
				ctx := log.IntoContext(r.Context(), log.FromContext(r.Context()).With(log.FieldOwnerID, owner))
				next(w, r.WithContext(auth.WithOwner(ctx, owner)))
				return
			}
		}
		log.FromContext(r.Context()).WithComponent(log.ComponentAuth).DebugContext(r.Context(), "Request rejected",
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
		_ = UnauthorizedError().Write(w)
	})
}

// fail writes the response for err, logging it when it is a server error.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	resp, internal := errorResponse(err)
	if internal {
		s.events.LogError(r.Context(), "Request failed", err, log.ComponentHTTP, op,
			log.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")))
	}
	_ = resp.Write(w)
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, resp *JSONResponseBuilder) {
	if err := resp.Write(w); err != nil {
		s.events.LogError(r.Context(), "Failed to write response", err, log.ComponentHTTP, "respond", nil)
	}
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
