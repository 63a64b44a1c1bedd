package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"finpulse/internal/auth"
	"finpulse/internal/log"
	"finpulse/internal/middleware/ratelimit"
	"finpulse/internal/middleware/security"
	"finpulse/internal/middleware/trace"
	"finpulse/internal/services"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Services are the use cases the API exposes. Advice may be nil, in which
// case the advice route answers 503.
type Services struct {
	Ledger    *services.LedgerService
	Budgets   *services.BudgetService
	Goals     *services.GoalService
	Sweeps    *services.SweepService
	Recurring *services.RecurringService
	Advice    *services.AdviceService
}

type Config struct {
	Addr     string
	Verifier *auth.Verifier
	Logger   *log.Logger
	// Ready reports whether backing stores are reachable; nil means always.
	Ready           func(context.Context) error
	RateLimit       ratelimit.Config
	TrustedProxies  []string
	BlockSuspicious bool
}

type Server struct {
	http.Server
	svc      Services
	ready    func(context.Context) error
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	now      func() time.Time

	shutdownOnce sync.Once
}

// NewServer builds the router. Call Shutdown to stop background work.
func NewServer(cfg Config, svc Services) (*Server, error) {
	if cfg.Verifier == nil {
		return nil, errors.New("http server needs a token verifier")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentHTTP})
	}

	detector := security.NewDetector()
	detector.Block = cfg.BlockSuspicious
	for _, cidr := range cfg.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, err
		}
	}

	s := &Server{
		Server: http.Server{
			Addr:              cfg.Addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		svc:      svc,
		ready:    cfg.Ready,
		limiter:  ratelimit.NewLimiter(cfg.RateLimit),
		detector: detector,
		tracer:   trace.NewMiddleware(detector.ExtractClientIP),
		now:      func() time.Time { return time.Now().UTC() },
	}
	s.Handler = s.routes(logger, cfg.Verifier)
	return s, nil
}

func (s *Server) routes(logger *log.Logger, verifier *auth.Verifier) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(log.Middleware(logger))
	r.Use(s.tracer.Middleware)
	r.Use(chimw.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		MethodNotAllowedError().Write(w)
	})

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	r.Group(func(r chi.Router) {
		r.Use(verifier.Middleware)
		r.Use(userLogger)
		r.Use(s.limiter.Middleware(s.rateKey,
			http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete))

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", s.handleCreateTransaction)
			r.Get("/", s.handleListTransactions)
			r.Patch("/{id}/category", s.handleRecategorize)
			r.Delete("/{id}", s.handleDeleteTransaction)
		})
		r.Route("/budgets", func(r chi.Router) {
			r.Post("/", s.handleCreateBudget)
			r.Get("/", s.handleListBudgets)
			r.Get("/{id}", s.handleGetBudget)
			r.Put("/{id}", s.handleUpdateBudget)
			r.Delete("/{id}", s.handleDeleteBudget)
			r.Post("/{id}/sweep", s.handleSweep)
		})
		r.Route("/goals", func(r chi.Router) {
			r.Post("/", s.handleCreateGoal)
			r.Get("/", s.handleListGoals)
			r.Get("/{id}", s.handleGetGoal)
			r.Put("/{id}", s.handleEditGoal)
			r.Delete("/{id}", s.handleDeleteGoal)
			r.Post("/{id}/contributions", s.handleContribute)
			r.Post("/{id}/archive", s.handleArchiveGoal)
			r.Post("/{id}/restore", s.handleRestoreGoal)
			r.Post("/{id}/advice", s.handleAdviseGoal)
		})
		r.Route("/recurring", func(r chi.Router) {
			r.Post("/", s.handleCreateRecurring)
			r.Get("/", s.handleListRecurring)
			r.Delete("/{id}", s.handleDeleteRecurring)
		})
	})
	return r
}

// userLogger tags the request logger with the authenticated user.
func userLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.FromContext(r.Context()).With(log.FieldUserID, userID(r))
		next.ServeHTTP(w, r.WithContext(log.WithLogger(r.Context(), logger)))
	})
}

// rateKey buckets writes per user, falling back to the client address.
func (s *Server) rateKey(r *http.Request) string {
	if id := userID(r); id != "" {
		return "user:" + id
	}
	return "ip:" + s.detector.ExtractClientIP(r)
}

// Shutdown stops the limiter's cleanup loop and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(s.limiter.Stop)
	return s.Server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", "error", err)
			ErrorResponse(http.StatusServiceUnavailable, "not ready").Write(w)
			return
		}
	}
	NewJSONResponse().Body(map[string]string{"status": "ready"}).Write(w)
}

type metricsResponse struct {
	Requests  trace.Metrics             `json:"requests"`
	RateLimit ratelimit.Metrics         `json:"rate_limit"`
	Security  security.DetectionMetrics `json:"security"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(metricsResponse{
		Requests:  s.tracer.GetMetrics(),
		RateLimit: s.limiter.GetMetrics(),
		Security:  s.detector.GetMetrics(),
	}).Write(w)
}
