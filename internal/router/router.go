package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pdl-records/internal/config"
	"pdl-records/internal/handler"
	"pdl-records/internal/metrics"
	"pdl-records/internal/middleware"
)

type Handlers struct {
	Auth      *handler.AuthHandler
	PDL       *handler.PDLHandler
	User      *handler.UserHandler
	Dashboard *handler.DashboardHandler
	Audit     *handler.AuditHandler
}

func New(
	cfg *config.Config,
	authMiddleware *middleware.AuthMiddleware,
	h Handlers,
	m *metrics.Metrics,
	registry *prometheus.Registry,
	uploadRoot string,
	health http.HandlerFunc,
) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Metrics(m))
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", health)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// Stored mugshots are public static content addressed by their
	// generated filenames.
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadRoot))))

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/login", h.Auth.Login)
			auth.With(authMiddleware.RequireAuth).Get("/me", h.Auth.Me)
		})

		api.Route("/pdl", func(pdl chi.Router) {
			pdl.Use(authMiddleware.RequireAuth)
			pdl.With(authMiddleware.RequirePermission("PDL Management", "view")).Get("/", h.PDL.List)
			pdl.With(authMiddleware.RequirePermission("PDL Management", "create")).Post("/", h.PDL.Register)
			pdl.With(authMiddleware.RequirePermission("PDL Management", "view")).Get("/{id}", h.PDL.Get)
			pdl.With(authMiddleware.RequirePermission("PDL Management", "edit")).Put("/{id}", h.PDL.Update)
			pdl.With(authMiddleware.RequirePermission("PDL Management", "view")).Get("/{id}/thumbnail", h.PDL.Thumbnail)
		})

		api.Route("/users", func(users chi.Router) {
			users.Use(authMiddleware.RequireAuth)
			users.With(authMiddleware.RequirePermission("User Management", "view")).Get("/", h.User.List)
			users.With(authMiddleware.RequirePermission("User Management", "create")).Post("/", h.User.Create)
			users.With(authMiddleware.RequirePermission("User Management", "edit")).Put("/{id}/status", h.User.SetStatus)
			users.With(authMiddleware.RequirePermission("User Management", "edit")).Put("/{id}/role", h.User.ChangeRole)
		})

		api.With(authMiddleware.RequireAuth, authMiddleware.RequirePermission("Dashboard", "view")).
			Get("/dashboard/stats", h.Dashboard.Stats)
		api.With(authMiddleware.RequireAuth, authMiddleware.RequirePermission("Audit Log", "view")).
			Get("/audit", h.Audit.List)
	})

	return r
}
