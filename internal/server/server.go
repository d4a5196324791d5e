package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"parking-facility/internal/logging"
)

type Server struct {
	httpServer *http.Server
	handler    *Handler
	registry   *prometheus.Registry
}

// NewServer wires the facility API onto a chi router. Extra collectors are
// registered next to the Go and process collectors on a private registry
// served at /metrics.
func NewServer(port string, facility FacilityService, serviceName string, extra ...prometheus.Collector) *Server {
	handler := NewHandler(facility, serviceName)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	registry.MustRegister(extra...)

	r := chi.NewRouter()

	r.Use(RecoveryMiddleware)
	r.Use(RequestIDMiddleware)
	r.Use(TracingMiddleware(serviceName))
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)

	r.Get("/health", handler.HealthCheck)
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	r.Route("/api/facility", func(r chi.Router) {
		r.Get("/spots", handler.AvailableSpots)
		r.Get("/spots/all", handler.AllSpots)
		r.Post("/park", handler.Park)
		r.Get("/bill/{plate}", handler.Bill)
		r.Post("/pay", handler.Pay)
		r.Post("/tow", handler.Tow)
		r.Post("/fines", handler.RecordFine)
		r.Get("/report", handler.Report)
		r.Put("/fine-scheme", handler.SetFineScheme)
	})

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		handler:    handler,
		registry:   registry,
	}
}

func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	logging.Info(context.Background(), "starting HTTP server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info(ctx, "shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) GetAddress() string {
	return fmt.Sprintf("http://localhost%s", s.httpServer.Addr)
}
