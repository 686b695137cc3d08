package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/irrigation-decision-service/internal/domain"
	"github.com/couchcryptid/irrigation-decision-service/internal/engine"
)

const maxBodyBytes = 1 << 20

// DecisionService is the engine surface the API needs.
type DecisionService interface {
	Locate(ctx context.Context, loc domain.Location) domain.Location
	Decide(ctx context.Context, req domain.DecisionRequest) (domain.Decision, error)
	Hazards(lat, lon float64) engine.HazardReport
}

// Options configures the API server.
type Options struct {
	Addr        string
	RateLimit   int // requests per minute per IP on /v1; 0 disables
	CORSOrigins []string
	Weather     domain.WeatherProvider // optional
}

// Server exposes the decision API plus health, readiness and metrics.
type Server struct {
	httpServer *http.Server
	svc        DecisionService
	weather    domain.WeatherProvider
	logger     *slog.Logger
}

// NewServer creates the HTTP server and its routes.
func NewServer(opts Options, svc DecisionService, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         opts.Addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		svc:     svc,
		weather: opts.Weather,
		logger:  logger,
	}

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(ready))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         300,
		}))
		if opts.RateLimit > 0 {
			r.Use(httprate.LimitByIP(opts.RateLimit, time.Minute))
		}
		r.Use(s.accessLog)

		r.Post("/decisions", s.handleDecision)
		r.Get("/hazards", s.handleHazards)
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

func (s *Server) handleDecision(w http.ResponseWriter, r *http.Request) {
	var req domain.DecisionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.ObservedAt.IsZero() {
		req.ObservedAt = domain.Now()
	}

	req = domain.NormalizeRequest(req)
	if err := domain.ValidateRequest(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Current == nil {
		req.Location = s.svc.Locate(r.Context(), req.Location)
		filled, err := domain.FillWeather(r.Context(), req, s.weather)
		switch {
		case errors.Is(err, domain.ErrMissingConditions):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		case err != nil:
			s.logger.Warn("weather fetch failed", "error", err, "lat", req.Location.Lat, "lon", req.Location.Lon)
			status := http.StatusBadGateway
			if errors.Is(err, domain.ErrProviderUnavailable) {
				status = http.StatusServiceUnavailable
			}
			writeError(w, status, err.Error())
			return
		}
		req = filled
	}

	d, err := s.svc.Decide(r.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrMissingConditions) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleHazards(w http.ResponseWriter, r *http.Request) {
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if errLat != nil || errLon != nil || !domain.ValidCoordinate(lat, lon) {
		writeError(w, http.StatusBadRequest, "lat and lon must be valid coordinates")
		return
	}
	writeJSON(w, http.StatusOK, s.svc.Hazards(lat, lon))
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", chimiddleware.GetReqID(r.Context()),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
