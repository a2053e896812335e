// Package http serves the usage dashboard: the page, its HTMX partials,
// chart images, a JSON summary API and operational endpoints.
package http

import (
	"context"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"netusage/internal/config"
	"netusage/internal/events"
	"netusage/internal/log"
	"netusage/internal/metrics"
	"netusage/internal/session"
	appweb "netusage/web"
)

const (
	uploadRateLimit  = 10
	uploadRateWindow = time.Minute
	announceTimeout  = 10 * time.Second
)

// Deps are the collaborators a Server needs. Metrics and Publisher are
// optional.
type Deps struct {
	Sessions  *session.Store
	Metrics   *metrics.Metrics
	Publisher events.Publisher
	Logger    *log.Logger
}

// Server is the dashboard HTTP server.
type Server struct {
	http.Server
	cfg        *config.Config
	templates  *template.Template
	sessions   *session.Store
	metrics    *metrics.Metrics
	publisher  events.Publisher
	logger     *log.Logger
	validate   *validator.Validate
	limiter    *rateLimiter
	secMetrics securityMetrics

	announcing   sync.WaitGroup
	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(cfg *config.Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.Discard()
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.Noop{}
	}

	s := &Server{
		cfg:       cfg,
		sessions:  deps.Sessions,
		metrics:   deps.Metrics,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentHTTP),
		validate:  newValidator(),
		limiter:   newRateLimiter(uploadRateLimit, uploadRateWindow),
	}
	s.limiter.startCleanup(5 * time.Minute)

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.Templates(), "*.html")
	if err != nil {
		s.logger.WithComponent(log.ComponentTemplate).Error("Failed parsing templates", log.FieldError, err)
	} else {
		s.templates = t
	}

	s.Server = http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("HTTP server configured",
		"addr", s.Addr,
		"upload_limit", humanize.IBytes(uint64(cfg.Data.UploadMaxBytes)),
		"metrics", s.metrics != nil)
	return s
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.observeRoute)

	r.PathPrefix("/static/").Handler(staticHandler(s.logger))

	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/upload", s.handleUpload).Methods(http.MethodPost)
	r.HandleFunc("/session/clear", s.handleClearSession).Methods(http.MethodPost)
	r.HandleFunc("/ui/summary", s.handleSummaryPartial).Methods(http.MethodGet)
	r.HandleFunc("/chart.svg", s.handleChart).Methods(http.MethodGet)
	r.HandleFunc("/chart.png", s.handleChart).Methods(http.MethodGet)
	r.HandleFunc("/api/summary", s.handleAPISummary).Methods(http.MethodGet)

	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet, http.MethodHead)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusNotFound, "Not found").Write(w)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		MethodNotAllowedError(allowedMethods(r)).Write(w)
	})

	return s.withRequestContext(r)
}

func staticHandler(logger *log.Logger) http.Handler {
	sub := appweb.Static()
	if _, err := fs.Stat(sub, "app.css"); err != nil {
		logger.Warn("Embedded static assets missing", log.FieldError, err)
	}
	static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
		static.ServeHTTP(w, r)
	})
}

// allowedMethods lists the methods of the route matching r's path.
func allowedMethods(r *http.Request) string {
	switch r.URL.Path {
	case "/upload", "/session/clear":
		return http.MethodPost
	case "/", "/healthz", "/readyz":
		return "GET, HEAD"
	default:
		return http.MethodGet
	}
}

// announce publishes the dataset-loaded event in the background. Shutdown
// waits for in-flight announcements.
func (s *Server) announce(ctx context.Context, sess *session.Session) {
	msg := events.NewDatasetLoaded(sess)
	s.announcing.Add(1)
	go func() {
		defer s.announcing.Done()
		actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), announceTimeout)
		defer cancel()
		events.Announce(actx, s.publisher, msg)
	}()
}

// Shutdown stops accepting requests, then waits for pending announcements
// until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.close()
		shutdownErr = s.Server.Shutdown(ctx)

		done := make(chan struct{})
		go func() {
			s.announcing.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			shutdownErr = errors.Join(shutdownErr, ctx.Err())
		}
		s.logger.Info("HTTP server stopped",
			"rate_limit_hits", s.secMetrics.rateLimitHitsCount(),
			"suspicious_requests", s.secMetrics.suspiciousCount())
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil || s.sessions == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
