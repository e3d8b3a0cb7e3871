package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"finwell/internal/auth"
	"finwell/internal/core"
	"finwell/internal/log"
	"finwell/internal/metrics"
	authmw "finwell/internal/middleware/auth"
	"finwell/internal/middleware/ratelimit"
	"finwell/internal/middleware/security"
	"finwell/internal/middleware/trace"
	"finwell/internal/services"
)

const readyTimeout = 2 * time.Second

// Deps are the collaborators the server routes to. Metrics may be nil, in
// which case /metrics is not mounted.
type Deps struct {
	Categories   *services.CategoryService
	Transactions *services.TransactionService
	Budgets      *services.BudgetService
	Reports      *services.ReportBuilder
	Health       *services.HealthCalculator

	// Ready reports whether the store is reachable.
	Ready func(ctx context.Context) error

	JWT                *auth.JWTManager
	Metrics            *metrics.Metrics
	Logger             *log.Logger
	RateLimitPerMinute int

	// Now defaults to time.Now and anchors the health score month.
	Now func() time.Time
}

type Server struct {
	http.Server
	deps        Deps
	logger      *log.Logger
	errLogger   *log.StructuredLogger
	rateLimiter *ratelimit.Limiter
	now         func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	s := &Server{
		deps:        deps,
		logger:      logger,
		errLogger:   log.NewStructuredLogger(logger.WithComponent(log.ComponentHTTP)),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitPerMinute}),
		now:         now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics.Handler())
	}

	protected := authmw.RequireOwner(deps.JWT)
	route := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, protected(h))
	}

	route("GET /categories", s.handleListCategories)
	route("POST /categories", s.handleCreateCategory)
	route("GET /categories/{id}", s.handleGetCategory)
	route("PUT /categories/{id}", s.handleUpdateCategory)
	route("PATCH /categories/{id}", s.handlePatchCategory)
	route("DELETE /categories/{id}", s.handleDeleteCategory)

	route("GET /transactions", s.handleListTransactions)
	route("POST /transactions", s.handleCreateTransaction)
	route("GET /transactions/{id}", s.handleGetTransaction)
	route("PUT /transactions/{id}", s.handleUpdateTransaction)
	route("PATCH /transactions/{id}", s.handlePatchTransaction)
	route("DELETE /transactions/{id}", s.handleDeleteTransaction)

	route("GET /budgets", s.handleListBudgets)
	route("POST /budgets", s.handleCreateBudget)
	route("GET /budgets/{id}", s.handleGetBudget)
	route("PUT /budgets/{id}", s.handleUpdateBudget)
	route("PATCH /budgets/{id}", s.handlePatchBudget)
	route("DELETE /budgets/{id}", s.handleDeleteBudget)

	route("GET /reports/summary", s.handleSummary)
	route("GET /reports/health-score", s.handleHealthScore)

	resolver := security.NewClientIPResolver()
	tracer := trace.NewMiddleware(logger, deps.Metrics, resolver.ExtractClientIP)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	// Nothing between the tracer and the mux may replace the request, or the
	// matched pattern never reaches the tracer.
	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(resolver.ExtractClientIP)(handler)
	handler = headers.Middleware(handler)
	handler = tracer.Middleware(handler)
	handler = log.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and its background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	OK(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := s.deps.Ready(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", "error", err)
			ErrorResponse(http.StatusServiceUnavailable, "not ready").Write(w)
			return
		}
	}
	OK(map[string]string{"status": "ready"}).Write(w)
}

// writeError maps service errors to responses: field errors to 400, missing
// rows to 404, everything else to a logged 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, component, operation string) {
	if verrs, ok := core.AsValidation(err); ok {
		ValidationErrorResponse(verrs).Write(w)
		return
	}
	if errors.Is(err, core.ErrNotFound) {
		NotFoundError().Write(w)
		return
	}
	s.errLogger.LogError(r.Context(), "Request failed", err, component, operation)
	InternalServerError().Write(w)
}

// parseBody reads the JSON body, writing a 400 and returning nil when it is
// malformed.
func (s *Server) parseBody(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		BadRequestError("JSON parse error - " + err.Error()).Write(w)
		return nil
	}
	return p
}
