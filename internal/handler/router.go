package handler

import (
	"net/http"

	"github.com/Giancarlo174/cenit/internal/infra/observability"
	"github.com/Giancarlo174/cenit/internal/port"
	"github.com/Giancarlo174/cenit/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Deps bundles the collaborators the router needs.
type Deps struct {
	AuthSvc   *service.AuthService
	Manager   *service.WorkspaceManager
	Auth      port.AuthAPI
	JWTSecret string
	Metrics   *observability.Metrics
	Logger    *zap.Logger
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(d.Logger))
	r.Use(observability.TracingMiddleware)
	r.Use(RequestMetricsMiddleware(d.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// Autenticación (public)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authRegisterHandler(d.AuthSvc, d.Logger))
			r.Post("/login", authLoginHandler(d.AuthSvc, d.Logger))
			r.Post("/refresh", authRefreshHandler(d.AuthSvc, d.Logger))

			r.Group(func(r chi.Router) {
				r.Use(WorkspaceMiddleware(d.Manager, d.Auth, d.JWTSecret, d.Logger))
				r.Post("/logout", authLogoutHandler(d.AuthSvc, d.Manager, d.Logger))
			})
		})

		// Everything below is scoped to the authenticated workspace.
		r.Group(func(r chi.Router) {
			r.Use(WorkspaceMiddleware(d.Manager, d.Auth, d.JWTSecret, d.Logger))

			// Transacciones
			r.Get("/transactions", listTransactionsHandler(d.Logger))
			r.Post("/transactions", createTransactionHandler(d.Logger))
			r.Post("/transactions/fetch", fetchTransactionsHandler(d.Logger))
			r.Get("/transactions/uncategorized", listUncategorizedHandler(d.Logger))
			r.Put("/transactions/{id}", updateTransactionHandler(d.Logger))
			r.Delete("/transactions/{id}", deleteTransactionHandler(d.Logger))
			r.Post("/transactions/{id}/category", assignCategoryHandler(d.Logger))

			// Categorías
			r.Get("/categories", listCategoriesHandler(d.Logger))
			r.Post("/categories", createCategoryHandler(d.Logger))
			r.Put("/categories/{id}", updateCategoryHandler(d.Logger))
			r.Delete("/categories/{id}", deleteCategoryHandler(d.Logger))
			r.Post("/categories/reorder/start", startReorderHandler(d.Logger))
			r.Post("/categories/reorder/move", moveReorderHandler(d.Logger))
			r.Post("/categories/reorder/cancel", cancelReorderHandler(d.Logger))
			r.Post("/categories/reorder/save", saveReorderHandler(d.Logger))

			// Perfil
			r.Get("/profile", getProfileHandler(d.Logger))
			r.Put("/profile", updateProfileHandler(d.Logger))

			// Dashboard
			r.Get("/dashboard/stats", dashboardStatsHandler(d.Logger))
			r.Get("/dashboard/chart", dashboardChartHandler(d.Logger))
			r.Get("/dashboard/periods", dashboardPeriodsHandler(d.Logger))
		})

		// Métricas
		r.Get("/metrics/stores", storeMetricsHandler(d.Metrics, d.Logger))
	})

	return r
}

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
