package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/jitenkr2030/Rail-Clean/internal/analytics"
	"github.com/jitenkr2030/Rail-Clean/internal/config"
	"github.com/jitenkr2030/Rail-Clean/internal/domain"
	"github.com/jitenkr2030/Rail-Clean/internal/feedback"
	"github.com/jitenkr2030/Rail-Clean/internal/logging"
	"github.com/jitenkr2030/Rail-Clean/internal/photos"
)

// PhotoPrefix is the URL path photos are served under.
const PhotoPrefix = "/photos"

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// FeedbackService ingests and lists passenger ratings.
type FeedbackService interface {
	Submit(ctx context.Context, sub feedback.Submission) (feedback.Result, error)
	ForCoach(ctx context.Context, coachID string) (feedback.CoachFeedback, error)
}

// ReportService computes the dashboard and analytics payloads.
type ReportService interface {
	Dashboard(ctx context.Context) (analytics.Dashboard, error)
	Report(ctx context.Context) (analytics.Report, error)
}

// CoachLookup resolves QR codes.
type CoachLookup interface {
	CoachByQRCode(ctx context.Context, qrCode string) (domain.CoachInfo, error)
}

// TeamDirectory lists cleaning teams.
type TeamDirectory interface {
	ActiveTeams(ctx context.Context) ([]domain.CleaningTeam, error)
}

// CleaningLog stores and lists cleaning records.
type CleaningLog interface {
	CreateRecord(ctx context.Context, rec domain.CleaningRecord) (domain.CleaningRecordDetail, error)
	ListRecords(ctx context.Context, coachID string, limit int) ([]domain.CleaningRecordDetail, error)
}

// PhotoStore saves uploaded photos and serves them back.
type PhotoStore interface {
	photos.Store
	Handler() http.Handler
}

// Deps are the collaborators the handlers call.
type Deps struct {
	Health   HealthChecker
	Feedback FeedbackService
	Reports  ReportService
	Coaches  CoachLookup
	Teams    TeamDirectory
	Records  CleaningLog
	Photos   PhotoStore
	Logger   zerolog.Logger
}

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg     config.Config
	deps    Deps
	logger  zerolog.Logger
	limiter *RateLimiter
	router  chi.Router
	httpSrv *http.Server
}

// New constructs the HTTP server with base middleware and routes.
func New(cfg config.Config, deps Deps) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.AccessLog(deps.Logger))
	r.Use(middleware.Recoverer)

	s := &Server{
		cfg:     cfg,
		deps:    deps,
		logger:  deps.Logger.With().Str("component", "http").Logger(),
		limiter: NewRateLimiter(cfg.FeedbackRateRPS, cfg.FeedbackRateBurst),
		router:  r,
	}
	s.httpSrv = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeoutSecs) * time.Second,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealthz)

	s.router.Route("/feedback", func(r chi.Router) {
		r.Get("/", s.handleListFeedback)
		r.With(s.limiter.Middleware(s.handleRateLimited)).Post("/", s.handleSubmitFeedback)
	})
	s.router.Get("/dashboard", s.handleDashboard)
	s.router.Get("/analytics", s.handleAnalytics)

	s.router.Get("/coaches/{qrCode}", s.handleGetCoach)
	s.router.Get("/teams", s.handleListTeams)
	s.router.Route("/cleaning-records", func(r chi.Router) {
		r.Get("/", s.handleListCleaningRecords)
		r.Post("/", s.handleCreateCleaningRecord)
	})
	s.router.Post(PhotoPrefix, s.handleUploadPhoto)
	if s.deps.Photos != nil {
		s.router.Handle(PhotoPrefix+"/*", http.StripPrefix(PhotoPrefix, s.deps.Photos.Handler()))
	}
}

// ServeHTTP makes the server usable as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start boots the HTTP server and blocks until ctx is done or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.httpSrv.Addr).Msg("http server listening")
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server and the rate limiter sweeper.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Close()
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.deps.Health.HealthCheck(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("health check failed")
		s.respondError(w, http.StatusServiceUnavailable, http.StatusText(http.StatusServiceUnavailable))
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
