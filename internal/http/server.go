package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"findash/internal/backend"
	"findash/internal/dashboard"
	"findash/internal/log"
	"findash/internal/middleware/ratelimit"
	"findash/internal/middleware/security"
	"findash/internal/middleware/trace"
	"findash/internal/services"
	appweb "findash/web"
)

// Config holds the server settings taken from the application config.
type Config struct {
	Addr             string
	UploadsPerMinute int
	MaxUploadBytes   int64
	// Health checks the dataset store; nil means always healthy.
	Health backend.HealthFunc
}

type Server struct {
	http.Server
	templates  *template.Template
	controller *dashboard.Controller
	datasets   *services.DatasetService
	health     backend.HealthFunc
	maxUpload  int64
	started    time.Time
	logger     *log.Logger

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes, templates and middleware, returning a
// ready-to-run server.
func NewServer(cfg Config, controller *dashboard.Controller, datasets *services.DatasetService, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	limits := ratelimit.DefaultConfig()
	if cfg.UploadsPerMinute > 0 {
		limits.RequestsPerMinute = cfg.UploadsPerMinute
	}

	detector := security.NewDetector()
	s := &Server{
		templates:        t,
		controller:       controller,
		datasets:         datasets,
		health:           cfg.Health,
		maxUpload:        cfg.MaxUploadBytes,
		started:          time.Now(),
		logger:           logger,
		rateLimiter:      ratelimit.NewLimiter(limits),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(detector.ExtractClientIP, logger),
	}
	if s.maxUpload <= 0 {
		s.maxUpload = 5 << 20
	}

	mux := http.NewServeMux()

	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(
		http.StripPrefix("/static/", http.FileServer(http.FS(static)))))

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /ui/charts", s.handleCharts)
	mux.HandleFunc("GET /api/charts", s.handleChartsJSON)
	mux.HandleFunc("GET /ui/trend", s.handleTrend)
	mux.Handle("POST /upload", s.rateLimiter.Middleware(detector.ExtractClientIP, s.handleRateLimited)(
		http.HandlerFunc(s.handleUpload)))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.traceMiddleware.Middleware(detector.Middleware(headers.Middleware(mux))),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
