package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/radiance-dashboard/internal/dashboard"
	"github.com/couchcryptid/radiance-dashboard/internal/domain"
)

// Dashboard is the view-model the HTTP API reads and drives.
type Dashboard interface {
	sharedobs.ReadinessChecker

	Snapshot() dashboard.State
	Slider() dashboard.SliderView

	SelectMunicipalities(ctx context.Context, names []string) (dashboard.State, error)
	ToggleMunicipality(ctx context.Context, name string) (dashboard.State, error)
	ToggleAllMunicipalities(ctx context.Context) (dashboard.State, error)
	SelectMetrics(ctx context.Context, metrics []domain.Metric) (dashboard.State, error)
	ToggleMetric(ctx context.Context, m domain.Metric) (dashboard.State, error)
	ToggleAllMetrics(ctx context.Context) (dashboard.State, error)
	SelectYear(ctx context.Context, year *int) (dashboard.State, error)
	MoveSlider(ctx context.Context, low, high *int) dashboard.SliderView
	ToggleMarkers() dashboard.State
	Download(ctx context.Context) (domain.Export, error)
}

// Options tunes the HTTP server.
type Options struct {
	// RateLimit is the number of /api requests allowed per client IP per
	// minute. Zero disables limiting.
	RateLimit int
}

// Server exposes the dashboard API plus health, readiness, and metrics
// endpoints.
type Server struct {
	httpServer *http.Server
	dash       Dashboard
	validate   *validator.Validate
	logger     *slog.Logger
}

// NewServer creates the HTTP server and its routes.
func NewServer(addr string, dash Dashboard, opts Options, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		dash:     dash,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(dash))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if opts.RateLimit > 0 {
			r.Use(httprate.LimitByIP(opts.RateLimit, time.Minute))
		}

		r.Get("/state", s.handleState)
		r.Get("/slider", s.handleSlider)
		r.Put("/slider", s.handleMoveSlider)
		r.Post("/markers/toggle", s.handleToggleMarkers)

		r.Route("/selection", func(r chi.Router) {
			r.Put("/municipalities", s.handleSelectMunicipalities)
			r.Post("/municipalities/toggle", s.handleToggleMunicipality)
			r.Put("/metrics", s.handleSelectMetrics)
			r.Post("/metrics/toggle", s.handleToggleMetric)
			r.Put("/year", s.handleSelectYear)
		})

		// Views that replace the dashboard with the error banner when the
		// initial load failed.
		r.Group(func(r chi.Router) {
			r.Use(s.requireLoaded)
			r.Get("/charts/series", s.handleSeriesCharts)
			r.Get("/charts/distribution", s.handleDistribution)
			r.Get("/charts/ranking", s.handleRanking)
			r.Get("/stats", s.handleStats)
			r.Get("/download", s.handleDownload)
		})
	})

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) requireLoaded(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := s.dash.Snapshot()
		if !st.Ready {
			msg := st.Err
			if msg == "" {
				msg = dashboard.ErrNotReady.Error()
			}
			writeError(w, http.StatusServiceUnavailable, msg)
			return
		}
		next.ServeHTTP(w, r)
	})
}
