package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"cafeledger/internal/auth"
	"cafeledger/internal/cache"
	"cafeledger/internal/core"
	"cafeledger/internal/forms"
	"cafeledger/internal/log"
	"cafeledger/internal/middleware/ratelimit"
	"cafeledger/internal/middleware/security"
	"cafeledger/internal/middleware/trace"
	"cafeledger/internal/services"
	"cafeledger/internal/settings"
	appweb "cafeledger/web"
)

// Check is a named readiness probe.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// Deps are the collaborators a Server needs.
type Deps struct {
	Ledger   *services.LedgerService
	Settings settings.Store
	Logger   *log.Logger

	// AuthEnabled false makes every request an admin.
	AuthEnabled bool
	Resolver    auth.Resolver
	Sessions    *auth.Sessions

	ReceiptMaxBytes    int64
	RateLimitPerMinute int
	Checks             []Check
	Caches             *cache.Manager
}

type Server struct {
	http.Server
	templates *template.Template
	ledger    *services.LedgerService
	settings  settings.Store
	logger    *log.Logger

	authEnabled bool
	resolver    auth.Resolver
	sessions    *auth.Sessions

	receiptLimit int64
	checks       []Check
	caches       *cache.Manager

	tracer    *trace.Middleware
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	startedAt time.Time

	shutdownOnce sync.Once
}

var funcs = template.FuncMap{
	"money":  core.FormatAmount,
	"rupees": core.FormatRupees,
	"clock":  func(t time.Time) string { return t.Format("15:04") },
	"date":   func(t time.Time) string { return t.Format("02 Jan 2006") },
	"day":    func(t time.Time) string { return t.Format("Monday, 02 January 2006") },
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, d Deps) (*Server, error) {
	if d.Logger == nil {
		d.Logger = log.Discard()
	}
	if d.ReceiptMaxBytes <= 0 {
		d.ReceiptMaxBytes = forms.DefaultReceiptLimit
	}
	if d.AuthEnabled && (d.Resolver == nil || d.Sessions == nil) {
		return nil, fmt.Errorf("auth enabled without resolver and sessions")
	}

	t, err := template.New("").Funcs(funcs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	detector := security.NewDetector()
	s := &Server{
		templates:    t,
		ledger:       d.Ledger,
		settings:     d.Settings,
		logger:       d.Logger.WithComponent(log.ComponentHTTP),
		authEnabled:  d.AuthEnabled,
		resolver:     d.Resolver,
		sessions:     d.Sessions,
		receiptLimit: d.ReceiptMaxBytes,
		checks:       d.Checks,
		caches:       d.Caches,
		tracer:       trace.NewMiddleware(d.Logger, detector.ExtractClientIP),
		limiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: d.RateLimitPerMinute}),
		detector:     detector,
		startedAt:    time.Now(),
	}

	mux := http.NewServeMux()
	s.routes(mux)

	var h http.Handler = mux
	h = s.withIdentity(h)
	h = s.limiter.Middleware(detector.ExtractClientIP, s.handleRateLimited)(h)
	h = detector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) {
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /reports/daily-close", s.requireSession(s.handleDailyClose))

	api := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, security.NoStore(h))
	}
	// Ledger reads need a session. Writes are gated by role in the service.
	read := func(pattern string, h http.HandlerFunc) {
		api(pattern, s.requireSession(h))
	}
	read("GET /api/transactions", s.handleListTransactions)
	api("POST /api/transactions", s.handleCreateTransaction)
	api("DELETE /api/transactions", s.handleClearTransactions)
	api("DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	api("POST /api/recurring/{id}/add", s.handleAddRecurring)
	read("GET /api/recurring/reminders", s.handleReminders)

	read("GET /api/notes", s.handleListNotes)
	api("POST /api/notes", s.handleCreateNote)
	api("DELETE /api/notes/{id}", s.handleDeleteNote)

	read("GET /api/summary", s.handleSummary)
	read("GET /api/insights", s.handleInsights)
	read("GET /api/cash", s.handleCash)
	read("GET /api/categories/suggestions", s.handleSuggestions)

	api("GET /api/settings", s.handleGetSettings)
	api("PUT /api/settings", s.handlePutSettings)
	api("PUT /api/settings/starting-cash/{date}", s.handlePutStartingCash)

	read("GET /api/export.csv", s.handleExportCSV)
	read("GET /api/export.json", s.handleExportJSON)

	api("POST /auth/login", s.handleLogin)
	api("POST /auth/logout", s.handleLogout)
	api("GET /auth/session", s.handleSession)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
}

// Shutdown gracefully shuts down the server and its cleanup goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.requestLogger(r).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeError(w, r, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
}

func (s *Server) requestLogger(r *http.Request) *log.Logger {
	return log.FromContext(r.Context()).WithComponent(log.ComponentHTTP)
}

// now is the ledger clock, in the configured location.
func (s *Server) now() time.Time {
	return s.ledger.Now()
}
