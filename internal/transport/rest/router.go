package rest

import (
	"database/sql"
	"log/slog"
	"net/http"
	"net/netip"

	"github.com/frahmantamala/access-control/internal/ability"
	"github.com/frahmantamala/access-control/internal/auth"
	"github.com/frahmantamala/access-control/internal/catalog"
	"github.com/frahmantamala/access-control/internal/project"
	"github.com/frahmantamala/access-control/internal/transport/middleware"
	"github.com/frahmantamala/access-control/internal/transport/swagger"
	"github.com/frahmantamala/access-control/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

// Routes carries everything the router mounts. Nil handlers leave their
// routes unregistered.
type Routes struct {
	DB             *sql.DB
	Logger         *slog.Logger
	AllowedOrigins string
	TrustedProxies []netip.Prefix
	LoginLimiter   *middleware.RateLimiter

	Metrics        *middleware.Metrics
	MetricsPath    string
	MetricsHandler http.Handler

	Auth     *auth.Handler
	RBAC     *auth.RBACAuthorization
	Users    *user.Handler
	Catalog  *catalog.Handler
	Projects *project.Handler
}

func RegisterAllRoutes(router *chi.Mux, rt Routes) {
	healthHandler := NewHealthHandler(rt.DB)

	rbac := rt.RBAC
	if rbac == nil {
		rbac = auth.NewRBACAuthorization(rt.Logger)
	}

	// Apply global middleware
	router.Use(middleware.CORS(rt.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RealIP(rt.TrustedProxies))
	router.Use(middleware.RequestID)
	router.Use(middleware.ClientMetadata)
	if rt.Metrics != nil {
		router.Use(rt.Metrics.Instrument)
	}
	router.Use(middleware.LoggingMiddleware(rt.Logger))
	router.Use(middleware.RecoveryMiddleware(rt.Logger))

	router.Get(swagger.DocumentPath, swagger.DocumentHandler)
	router.Handle("/swagger/*", swagger.Handler())

	if rt.MetricsHandler != nil {
		path := rt.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.Handle(path, rt.MetricsHandler)
	}

	// Mount API under /api/v1 to match the OpenAPI server url
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if rt.Auth == nil {
			return
		}

		if rt.LoginLimiter != nil {
			r.With(rt.LoginLimiter.Limit).Post("/auth/login", rt.Auth.Login)
		} else {
			r.Post("/auth/login", rt.Auth.Login)
		}

		// Protected routes that require a verified session
		r.Group(func(pr chi.Router) {
			pr.Use(rt.Auth.AuthMiddleware)

			pr.Post("/auth/logout", rt.Auth.Logout)
			pr.Get("/auth/me", rt.Auth.Me)

			if rt.Users != nil {
				registerUserRoutes(pr, rbac, rt.Users)
			}
			if rt.Projects != nil {
				registerProjectRoutes(pr, rbac, rt.Projects)
			}
			if rt.Catalog != nil {
				pr.Route("/admin", func(ar chi.Router) {
					ar.With(rbac.RequirePermissions(ability.PermRoleView)).Get("/roles", rt.Catalog.GetRoles)
					ar.With(rbac.RequirePermissions(ability.PermPermissionView)).Get("/permissions", rt.Catalog.GetPermissions)
				})
			}
		})
	})
}

func registerUserRoutes(r chi.Router, rbac *auth.RBACAuthorization, h *user.Handler) {
	view := rbac.RequirePermissions(ability.PermUserView)
	update := rbac.RequirePermissions(ability.PermUserUpdate)

	r.Route("/users", func(ur chi.Router) {
		ur.With(view).Get("/", h.ListUsers)
		ur.With(rbac.RequirePermissions(ability.PermUserCreate)).Post("/", h.CreateUser)

		ur.Route("/{userId}", func(ir chi.Router) {
			ir.With(view).Get("/", h.GetUser)
			ir.With(update).Put("/", h.UpdateUser)
			ir.With(rbac.RequirePermissions(ability.PermUserDelete)).Delete("/", h.DeleteUser)
			ir.With(update).Post("/roles", h.AssignRoles)
			ir.With(update).Post("/companies", h.AssignCompanies)
			ir.With(update).Patch("/password", h.ChangePassword)
		})
	})
}

func registerProjectRoutes(r chi.Router, rbac *auth.RBACAuthorization, h *project.Handler) {
	r.Route("/projects", func(pr chi.Router) {
		pr.With(rbac.RequirePermissions(ability.PermProjectView)).Get("/", h.ListProjects)
		pr.With(rbac.RequirePermissions(ability.PermProjectCreate)).Post("/", h.CreateProject)
		pr.With(rbac.RequirePermissions(ability.PermProjectUpdate)).Put("/{projectId}", h.UpdateProject)
		pr.With(rbac.RequirePermissions(ability.PermProjectDelete)).Delete("/{projectId}", h.DeleteProject)
	})

	r.With(rbac.RequireCompanyParam("companyId", ability.Requirement{
		Permissions: []ability.Permission{ability.PermProjectView},
		RequireAll:  true,
	})).Get("/companies/{companyId}/projects", h.ListCompanyProjects)
}
