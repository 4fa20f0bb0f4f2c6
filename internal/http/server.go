// Package http serves the dashboard, the expense pages and the JSON API.
package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"spendtrack/internal/auth"
	"spendtrack/internal/cache"
	applog "spendtrack/internal/log"
	"spendtrack/internal/middleware/ratelimit"
	"spendtrack/internal/middleware/security"
	"spendtrack/internal/middleware/trace"
	"spendtrack/internal/services"
	"spendtrack/internal/summary"
	appweb "spendtrack/web"
)

const (
	requestTimeout       = 7 * time.Second
	cacheCleanupInterval = 10 * time.Minute
	staticMaxAge         = 3600
)

// Options configures NewServer.
type Options struct {
	Addr    string
	Service *services.ExpenseService
	// Resolver identifies the user behind each request.
	Resolver auth.Resolver
	LoginURL string
	// Ready reports whether storage can serve requests; nil means always.
	Ready func(ctx context.Context) error
	// Caches are cleaned periodically while the server runs.
	Caches []cache.Cleaner

	RateLimitPerMinute int
	TopCategories      int
	MonthLabelFormat   string
	CurrencySymbol     string

	Logger *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	http.Server
	templates *template.Template
	svc       *services.ExpenseService
	ready     func(ctx context.Context) error
	opts      Options
	now       func() time.Time

	cacheManager *cache.Manager
	limiter      *ratelimit.Limiter
	tracer       *trace.Middleware
	detector     *security.Detector

	shutdownOnce sync.Once
}

// NewServer parses the embedded templates, mounts the routes and builds the
// middleware chain. The returned server is ready for ListenAndServe.
func NewServer(opts Options) (*Server, error) {
	if opts.Service == nil {
		return nil, errors.New("expense service is required")
	}
	if opts.Resolver == nil {
		opts.Resolver = auth.HeaderResolver{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TopCategories <= 0 {
		opts.TopCategories = summary.DefaultTopN
	}
	if opts.CurrencySymbol == "" {
		opts.CurrencySymbol = "₹"
	}

	s := &Server{
		svc:          opts.Service,
		ready:        opts.Ready,
		opts:         opts,
		now:          opts.Now,
		cacheManager: cache.NewManager(),
		detector:     security.NewDetector(),
	}

	t, err := template.New("").Funcs(s.templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	s.templates = t

	for _, c := range opts.Caches {
		s.cacheManager.Register(c)
	}
	s.cacheManager.StartCleanup(cacheCleanupInterval)

	rlCfg := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		rlCfg.RequestsPerMinute = opts.RateLimitPerMinute
	}
	s.limiter = ratelimit.NewLimiter(rlCfg)
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	app := http.NewServeMux()
	app.HandleFunc("GET /{$}", s.handleDashboard)
	app.HandleFunc("GET /expenses", s.handleListExpenses)
	app.HandleFunc("POST /expenses", s.handleCreateExpense)
	app.HandleFunc("GET /expenses/new", s.handleNewExpenseForm)
	app.HandleFunc("GET /expenses/{id}/edit", s.handleEditExpenseForm)
	app.HandleFunc("POST /expenses/{id}", s.handleUpdateExpense)
	app.HandleFunc("PUT /expenses/{id}", s.handleUpdateExpense)
	app.HandleFunc("DELETE /expenses/{id}", s.handleDeleteExpense)
	app.HandleFunc("POST /expenses/{id}/delete", s.handleDeleteExpense)
	app.HandleFunc("GET /api/summary", s.handleAPISummary)
	app.HandleFunc("GET /api/expenses", s.handleAPIExpenses)

	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", handleHealth)
	root.HandleFunc("GET /readyz", s.handleReady)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		root.Handle("GET /static/", security.StaticAssetMiddleware(staticMaxAge)(static))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}
	root.Handle("/", auth.Middleware(s.opts.Resolver, s.opts.LoginURL)(app))

	// Outermost first.
	chain := []func(http.Handler) http.Handler{
		s.detector.Middleware,
		s.tracer.Middleware,
		security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware,
		s.limiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited),
		applog.Middleware(s.opts.Logger, trace.GetRequestID),
	}
	var h http.Handler = root
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}
	return h
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	// The limiter runs outside the request logger, so log through the server logger.
	s.opts.Logger.WarnContext(ctx, "Rate limit exceeded",
		applog.NewFields().
			WithComponent(applog.ComponentRateLimit).
			WithClientIP(s.detector.ExtractClientIP(r)).
			WithRateLimit(s.limiter.Rejected(), s.limiter.ActiveClients()).
			ToSlice()...)

	if wantsJSON(r) {
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
		return
	}
	ErrorResponse(http.StatusTooManyRequests, "Too many requests. Please try again later.").Write(w)
}

// Shutdown stops background cleanup and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			slog.WarnContext(ctx, "Readiness check failed", "error", err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
