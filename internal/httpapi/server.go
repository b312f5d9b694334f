package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/corporategifts/giftsite/middlewares"
	"github.com/corporategifts/giftsite/pkg/catalog"
	"github.com/corporategifts/giftsite/pkg/forms"
	"github.com/corporategifts/giftsite/pkg/health"
	"github.com/corporategifts/giftsite/pkg/swr"
)

// Catalog is the read side the API serves. *catalog.Service implements it.
type Catalog interface {
	RandomProducts(ctx context.Context) swr.Result[[]catalog.Product]
	Categories(ctx context.Context) swr.Result[[]catalog.Category]
	ProductsByCategory(ctx context.Context, categoryID string) swr.Result[[]catalog.Product]
	Refresh(ctx context.Context, key swr.Key) error
	Invalidate(ctx context.Context, key swr.Key)
	InvalidateAll(ctx context.Context) int
}

// Recorder counts intake outcomes. *metrics.Metrics implements it.
type Recorder interface {
	Submission(kind forms.Kind, outcome string)
}

// Deps are the collaborators the handlers call into.
type Deps struct {
	Catalog    Catalog
	Intake     *forms.Intake
	Dispatcher forms.Dispatcher
	Recorder   Recorder
	Logger     *slog.Logger

	// Metrics serves /metrics when set.
	Metrics http.Handler
	// Instrument wraps every routed request when set.
	Instrument func(http.Handler) http.Handler

	Ready    health.Checks
	Optional health.Checks
}

// Server owns the route table.
type Server struct {
	catalog    Catalog
	intake     *forms.Intake
	dispatcher forms.Dispatcher
	recorder   Recorder
	logger     *slog.Logger
	deps       Deps
	cfg        Config
}

type nopRecorder struct{}

func (nopRecorder) Submission(forms.Kind, string) {}

// New creates a Server. Catalog, Intake and Dispatcher are required.
func New(cfg Config, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	if deps.Recorder == nil {
		deps.Recorder = nopRecorder{}
	}
	return &Server{
		catalog:    deps.Catalog,
		intake:     deps.Intake,
		dispatcher: deps.Dispatcher,
		recorder:   deps.Recorder,
		logger:     deps.Logger,
		deps:       deps,
		cfg:        cfg,
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middlewares.CORS(
		middlewares.WithAllowOrigins(s.cfg.AllowedOrigins...),
		middlewares.WithExposeHeaders("X-Request-ID"),
	))
	if s.cfg.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middlewares.RequestID())
	r.Use(middlewares.AccessLog(s.logger, middlewares.WithAccessLogSkipPaths("/health/live", "/health/ready", "/metrics")))
	if s.deps.Instrument != nil {
		r.Use(s.deps.Instrument)
	}
	r.Use(middlewares.Recover(
		middlewares.WithRecoverLogger(s.logger),
		middlewares.WithRecoverErrorHandler(s.writeError),
	))

	r.NotFound(s.wrap(func(http.ResponseWriter, *http.Request) error {
		return ErrNotFound("Not Found")
	}))
	r.MethodNotAllowed(s.wrap(func(http.ResponseWriter, *http.Request) error {
		return NewHTTPError(http.StatusMethodNotAllowed, "Method Not Allowed")
	}))

	r.Get("/health/live", health.LivenessHandler())
	r.Get("/health/ready", health.ReadinessHandler(s.deps.Ready,
		health.WithOptional(s.deps.Optional),
		health.WithLogger(s.logger),
	))
	if s.deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.deps.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middlewares.Timeout(s.cfg.RequestTimeout,
			middlewares.WithTimeoutLogger(s.logger),
			middlewares.WithTimeoutErrorHandler(s.writeError),
		))

		r.Get("/products/random", s.wrap(s.randomProducts))
		r.Get("/categories", s.wrap(s.categories))
		r.Get("/categories/{id}/products", s.wrap(s.productsByCategory))

		r.Post("/phone/check", s.wrap(s.checkPhone))
		r.Post("/forms/{kind}", s.wrap(s.submitForm))

		// Admin routes exist only when a token is configured.
		if s.cfg.AdminToken != "" {
			r.Group(func(r chi.Router) {
				r.Use(bearerAuth(s.cfg.AdminToken, s.writeError))
				r.Post("/cache/invalidate", s.wrap(s.invalidateCache))
				r.Post("/cache/refresh", s.wrap(s.refreshCache))
			})
		}
	})

	return r
}
