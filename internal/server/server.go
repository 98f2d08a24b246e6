package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dailymemedigest/memefactory/pkg/cache"
	"github.com/dailymemedigest/memefactory/pkg/imageprobe"
	"github.com/dailymemedigest/memefactory/pkg/masonry"
	"github.com/dailymemedigest/memefactory/pkg/memes"
	"github.com/dailymemedigest/memefactory/pkg/news"
	"github.com/dailymemedigest/memefactory/pkg/ratelimit"
	"github.com/dailymemedigest/memefactory/pkg/store"
	"github.com/dailymemedigest/memefactory/pkg/subscribe"
)

// Service is the name the health check reports.
const Service = "memefactory"

// Generator makes a batch of memes. *memes.Generator implements it.
type Generator interface {
	Generate(ctx context.Context, req memes.Request) (*memes.Result, error)
}

// NewsSource finds articles. *news.Aggregator implements it.
type NewsSource interface {
	Fetch(ctx context.Context, keywords []string, daysBack int) ([]news.Article, error)
}

// Deps are the services the handlers call. Store, News and Subscribe are
// required; a nil Generator disables /api/generate.
type Deps struct {
	Store     store.Store
	Generator Generator
	News      NewsSource
	Subscribe *subscribe.Service
	Media     *memes.MediaStore
	Probe     *imageprobe.Prober
	Cache     cache.Cache
	Keyer     cache.Keyer
	Limiter   ratelimit.Limiter
	Logger    *log.Logger
}

// Settings are the server's knobs.
type Settings struct {
	Addr           string
	Version        string
	AllowedOrigins []string

	// Gallery geometry used when a request does not give its own.
	GalleryWidth float64
	ColumnWidth  float64
	Gap          float64
	PageSize     int
	Spans        masonry.SpanThresholds

	// GenerateTimeout bounds one /api/generate request.
	GenerateTimeout time.Duration
}

func (s Settings) withDefaults() Settings {
	if s.Addr == "" {
		s.Addr = ":8080"
	}
	if s.Version == "" {
		s.Version = "dev"
	}
	if s.GalleryWidth <= 0 {
		s.GalleryWidth = 1200
	}
	if s.ColumnWidth <= 0 {
		s.ColumnWidth = 280
	}
	if s.Gap < 0 {
		s.Gap = 0
	}
	if s.Spans.Double <= 0 {
		s.Spans = masonry.DefaultSpanThresholds()
	}
	if s.PageSize <= 0 {
		s.PageSize = defaultLimit
	}
	if s.GenerateTimeout <= 0 {
		s.GenerateTimeout = 2 * time.Minute
	}
	return s
}

// Server serves the API, the gallery page and generated images.
type Server struct {
	deps     Deps
	settings Settings
	logger   *log.Logger
	now      func() time.Time
}

// New returns a Server.
func New(deps Deps, settings Settings) *Server {
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	if deps.Cache == nil {
		deps.Cache = cache.NewNullCache()
	}
	if deps.Keyer == nil {
		deps.Keyer = cache.NewDefaultKeyer()
	}
	if deps.Probe == nil {
		var opts []imageprobe.Option
		if deps.Media != nil {
			opts = append(opts, imageprobe.WithMediaDir(deps.Media.Dir(), deps.Media.Prefix()))
		}
		deps.Probe = imageprobe.New(append(opts, imageprobe.WithLogger(deps.Logger))...)
	}
	return &Server{deps: deps, settings: settings.withDefaults(), logger: deps.Logger, now: time.Now}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(recoverer(s.logger))
	r.Use(cors(s.settings.AllowedOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found", "NOT_FOUND")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed", "METHOD_NOT_ALLOWED")
	})

	limited := func(scope string) func(http.Handler) http.Handler {
		return rateLimit(s.deps.Limiter, scope, s.logger)
	}

	r.Get("/", s.handleGallery)
	if s.deps.Media != nil {
		r.Handle(s.deps.Media.Prefix()+"*", s.deps.Media.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.With(limited("subscribe")).Post("/subscribe", s.handleSubscribe)
		r.With(limited("subscribe")).Post("/preferences", s.handlePreferences)
		r.Get("/confirm/{token}", s.handleConfirm)
		r.With(limited("generate")).Post("/generate", s.handleGenerate)
		r.Get("/memes", s.handleListMemes)
		r.Get("/memes/layout", s.handleLayout)
		r.Post("/memes/{id}/vote", s.handleVote)
		r.Get("/news", s.handleNews)

		r.Route("/v1", func(r chi.Router) {
			r.Get("/health", s.handleHealth)
			r.Get("/debug/mailchimp", s.handleMailchimpDebug)
			r.Get("/memes", s.handleListMemes)
		})
	})
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.settings.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.settings.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
