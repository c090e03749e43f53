package http

import (
	"context"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"deductible/internal/auth"
	"deductible/internal/core"
	"deductible/internal/log"
	"deductible/internal/middleware/security"
	"deductible/internal/middleware/trace"
	"deductible/internal/receipts"
	"deductible/internal/services"
	appweb "deductible/web"
)

// ExpenseService is the application behaviour the handlers depend on.
type ExpenseService interface {
	Create(ctx context.Context, fields map[string]string, receipt *services.Upload) (core.Expense, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f core.ListFilter) ([]core.Expense, error)
	Summary(ctx context.Context, year int, deductibleOnly bool) (core.YearSummary, error)
	Monthly(ctx context.Context, year int) (core.MonthlySeries, error)
	Export(ctx context.Context, w io.Writer, f core.ListFilter) (int, error)
	Import(ctx context.Context, r io.Reader) (int, error)
	Ready(ctx context.Context) error
}

// Options configures NewServer.
type Options struct {
	Addr           string
	Service        ExpenseService
	Auth           *auth.Authenticator
	ReceiptsDir    string
	MaxUploadBytes int64
	Logger         *log.Logger
}

type Server struct {
	http.Server
	templates *template.Template
	svc       ExpenseService
	auth      *auth.Authenticator
	logger    *log.Logger
	tracer    *trace.Middleware
	detector  *security.Detector
	maxUpload int64
	started   time.Time
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 32 << 20
	}

	detector := security.NewDetector()
	s := &Server{
		svc:       opts.Service,
		auth:      opts.Auth,
		logger:    logger,
		detector:  detector,
		tracer:    trace.NewMiddleware(logger, detector.ExtractClientIP),
		maxUpload: maxUpload,
		started:   time.Now(),
	}

	t, err := parseTemplates()
	if err != nil {
		logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(opts.ReceiptsDir),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}

	return s
}

func (s *Server) routes(receiptsDir string) http.Handler {
	r := chi.NewRouter()

	r.Use(log.Middleware(s.logger))
	r.Use(s.tracer.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(s.detector.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Group(func(r chi.Router) {
		r.Use(log.ComponentMiddleware(log.ComponentAuth))
		r.Get("/login", s.handleLoginPage)
		r.Post("/login", s.handleLogin)
		r.Get("/logout", s.handleLogout)
	})

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.With(security.StaticAssetMiddleware(3600)).Handle("/static/*", static)
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	r.Group(func(r chi.Router) {
		r.Use(s.auth.RequireAuth)
		r.Use(security.NoStore)

		r.Get("/", s.handleReport)
		r.Get("/charts", s.handleCharts)
		r.Get("/expenses", s.handleExpenses)
		r.Post("/add", s.handleAdd)
		r.Post("/delete/{id}", s.handleDelete)
		r.Get("/export.csv", s.handleExport)
		r.Get("/import", s.handleImportPage)
		r.Post("/import", s.handleImport)

		r.Get("/api/totals", s.handleAPITotals)
		r.Get("/api/monthly", s.handleAPIMonthly)

		if receiptsDir != "" {
			files := http.StripPrefix(receipts.DefaultURLPrefix, http.FileServer(http.Dir(receiptsDir)))
			r.Handle(receipts.DefaultURLPrefix+"*", files)
		}
	})

	return r
}

// Metrics exposes the request counters for diagnostics.
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.GetMetrics()
}
