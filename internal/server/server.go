package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/capstone-so2/statuspage/internal/config"
	"github.com/capstone-so2/statuspage/internal/metrics"
	"github.com/capstone-so2/statuspage/internal/serverstate"
)

// Options carries the dependencies of the HTTP handler.
type Options struct {
	Config  config.ServerConfig
	Tracker *serverstate.Tracker
	Build   BuildInfo
	// Registry receives the server collectors. A nil Registry gets a fresh one.
	Registry *prometheus.Registry
}

// New constructs the HTTP handler for the server.
func New(opts Options) http.Handler {
	cfg := opts.Config
	r := chi.NewRouter()
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"*"},
			// cors answers every preflight with 200; preflightNoContent ends it instead.
			OptionsPassthrough: true,
		}))
		r.Use(preflightNoContent)
	}
	for _, m := range MiddlewareChain() {
		r.Use(m)
	}

	tracker := opts.Tracker
	if tracker == nil {
		tracker = serverstate.NewTracker(nil, "")
	}
	preg := opts.Registry
	if preg == nil {
		preg = prometheus.NewRegistry()
	}
	metrics.Register(preg)
	preg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics.SetBuildInfo(opts.Build.Version, opts.Build.SHA, opts.Build.Date)

	src := &stateSource{tracker: tracker, build: opts.Build}
	interval := cfg.StreamInterval
	if interval <= 0 {
		interval = defaultStreamInterval
	}

	r.NotFound(NotFoundHandler())
	r.MethodNotAllowed(MethodNotAllowedHandler())

	r.Get("/", StatusPageHandler())
	r.Get("/healthz", HealthHandler(tracker))
	r.Route("/api", func(ar chi.Router) {
		ar.Get("/state", StateHandler(src))
		ar.Get("/state/stream", StateStreamHandler(src, interval, cfg.AllowedOrigins))
		ar.Get("/openapi.json", OpenAPIHandler())
	})

	if cfg.MetricsOnMainPort() {
		r.Handle("/metrics", promhttp.HandlerFor(preg, promhttp.HandlerOpts{}))
	}

	return r
}

// preflightNoContent ends a CORS preflight with 204 once the cors middleware
// has set its headers. 200 is reserved for GET /.
func preflightNoContent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasOrigin := r.Header["Origin"]
		if r.Method == http.MethodOptions && hasOrigin && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// MetricsHandler serves preg on a dedicated listener.
func MetricsHandler(preg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(preg, promhttp.HandlerOpts{}))
	return mux
}
