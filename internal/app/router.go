package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/meridian-pos/meridian-pos/internal/auth"
	"github.com/meridian-pos/meridian-pos/internal/customers"
	"github.com/meridian-pos/meridian-pos/internal/dashboard"
	"github.com/meridian-pos/meridian-pos/internal/inventory"
	"github.com/meridian-pos/meridian-pos/internal/masterdata/categories"
	"github.com/meridian-pos/meridian-pos/internal/masterdata/products"
	"github.com/meridian-pos/meridian-pos/internal/masterdata/suppliers"
	"github.com/meridian-pos/meridian-pos/internal/observability"
	"github.com/meridian-pos/meridian-pos/internal/reports"
	"github.com/meridian-pos/meridian-pos/internal/sales"
	"github.com/meridian-pos/meridian-pos/internal/users"
	"github.com/meridian-pos/meridian-pos/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	AuthMiddleware    auth.Middleware
	AuthHandler       *auth.Handler
	UsersHandler      *users.Handler
	CategoriesHandler *categories.Handler
	SuppliersHandler  *suppliers.Handler
	ProductsHandler   *products.Handler
	CustomersHandler  *customers.Handler
	InventoryHandler  *inventory.Handler
	SalesHandler      *sales.Handler
	ReportsHandler    *reports.Handler
	DashboardHandler  *dashboard.Handler
	JobsHandler       *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with Meridian defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	authMW := params.AuthMiddleware

	// token issuance and refresh stay outside the auth guard
	if params.AuthHandler != nil {
		params.AuthHandler.MountRoutes(r, authMW)
	}
	staff := []string{auth.RoleAdmin, auth.RoleManager, auth.RoleCashier}
	managers := []string{auth.RoleAdmin, auth.RoleManager}

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(authMW.RequireAuth)

		// user administration is admin only
		api.Group(func(g chi.Router) {
			g.Use(authMW.RequireRole(auth.RoleAdmin))
			if params.UsersHandler != nil {
				params.UsersHandler.MountRoutes(g)
			}
		})

		// catalogue writes, inventory corrections and reports need a manager
		api.Group(func(g chi.Router) {
			g.Use(authMW.RequireRole(managers...))
			if params.CategoriesHandler != nil {
				params.CategoriesHandler.MountWriteRoutes(g)
			}
			if params.SuppliersHandler != nil {
				params.SuppliersHandler.MountWriteRoutes(g)
			}
			if params.ProductsHandler != nil {
				params.ProductsHandler.MountWriteRoutes(g)
			}
			if params.InventoryHandler != nil {
				params.InventoryHandler.MountRoutes(g)
			}
			if params.ReportsHandler != nil {
				params.ReportsHandler.MountRoutes(g)
			}
		})

		// day to day POS surface is open to every staff role
		api.Group(func(g chi.Router) {
			g.Use(authMW.RequireRole(staff...))
			if params.CategoriesHandler != nil {
				params.CategoriesHandler.MountReadRoutes(g)
			}
			if params.SuppliersHandler != nil {
				params.SuppliersHandler.MountReadRoutes(g)
			}
			if params.ProductsHandler != nil {
				params.ProductsHandler.MountReadRoutes(g)
			}
			if params.CustomersHandler != nil {
				params.CustomersHandler.MountRoutes(g)
			}
			if params.SalesHandler != nil {
				params.SalesHandler.MountRoutes(g)
			}
			if params.DashboardHandler != nil {
				params.DashboardHandler.MountRoutes(g)
			}
		})

		if params.JobsHandler != nil {
			api.Route("/jobs", func(g chi.Router) {
				g.Use(authMW.RequireRole(auth.RoleAdmin))
				params.JobsHandler.MountRoutes(g)
			})
		}
	})

	return r
}
