package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"retailcli/internal/config"
	"retailcli/internal/exporter"
)

// Server serves the artifacts of the latest pipeline run. Artifacts are read
// from disk on every request, so re-running the pipeline is immediately
// visible without restarting the server.
type Server struct {
	cfg        config.ServerConfig
	reportsDir string
	logger     *slog.Logger

	registry *prometheus.Registry
	requests *prometheus.CounterVec
}

// NewServer creates a report server over the given reports directory.
func NewServer(cfg config.ServerConfig, reportsDir string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "retail_report_requests_total",
		Help: "HTTP requests served by the report server.",
	}, []string{"path", "status"})
	registry.MustRegister(requests)

	return &Server{
		cfg:        cfg,
		reportsDir: reportsDir,
		logger:     logger.With(slog.String("component", "report_server")),
		registry:   registry,
		requests:   requests,
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.countRequests)

	r.Get("/healthz", s.healthCheck)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/summary", s.serveArtifact(exporter.SummaryFile))
		r.Get("/rankings/historical", s.serveArtifact(exporter.HistoricalRankingName+".json"))
		r.Get("/rankings/predicted", s.serveArtifact(exporter.PredictedRankingName+".json"))
		r.Get("/alerts", s.getAlerts)
	})

	return r
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully within the configured timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.Router(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("report server listening",
			slog.String("addr", srv.Addr),
			slog.String("reports_dir", s.reportsDir))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.logger.Info("report server shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// serveArtifact returns a handler that relays one JSON artifact from the
// reports directory. A missing artifact means no run has happened yet.
func (s *Server) serveArtifact(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := os.ReadFile(filepath.Join(s.reportsDir, name))
		if os.IsNotExist(err) {
			s.renderError(w, r, http.StatusNotFound, "artifact not available: run the pipeline first")
			return
		}
		if err != nil {
			s.logger.ErrorContext(r.Context(), "failed to read artifact",
				slog.String("artifact", name),
				slog.String("error", err.Error()))
			s.renderError(w, r, http.StatusInternalServerError, "failed to read artifact")
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}

func (s *Server) getAlerts(w http.ResponseWriter, r *http.Request) {
	data, err := os.ReadFile(filepath.Join(s.reportsDir, exporter.SummaryFile))
	if os.IsNotExist(err) {
		s.renderError(w, r, http.StatusNotFound, "artifact not available: run the pipeline first")
		return
	}
	if err != nil {
		s.renderError(w, r, http.StatusInternalServerError, "failed to read summary")
		return
	}

	var summary Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		s.logger.ErrorContext(r.Context(), "failed to decode summary artifact",
			slog.String("error", err.Error()))
		s.renderError(w, r, http.StatusInternalServerError, "failed to decode summary")
		return
	}

	alerts := summary.DropAlerts
	if alerts == nil {
		alerts = []DropAlert{}
	}
	render.JSON(w, r, alerts)
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": message})
}

// countRequests records every served request in the Prometheus counter.
func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.requests.WithLabelValues(r.URL.Path, strconv.Itoa(ww.Status())).Inc()
	})
}
