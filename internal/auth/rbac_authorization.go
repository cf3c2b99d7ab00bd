package auth

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/frahmantamala/access-control/internal"
	"github.com/frahmantamala/access-control/internal/ability"
	"github.com/frahmantamala/access-control/internal/transport"
	"github.com/go-chi/chi"
)

// RBACAuthorization gates routes on the abilities of the verified caller.
// It must run after AuthMiddleware.
type RBACAuthorization struct {
	*transport.BaseHandler
}

func NewRBACAuthorization(logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{BaseHandler: transport.NewBaseHandler(logger)}
}

func (ra *RBACAuthorization) check(w http.ResponseWriter, r *http.Request, req ability.Requirement) bool {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		ra.WriteAppError(w, r, internal.ErrAuthenticationRequired)
		return false
	}
	if !ability.HasAccess(p.Set, req) {
		ra.Logger.WarnContext(r.Context(), "access denied: insufficient abilities",
			"user_id", p.User.UserID,
			"required_roles", req.Roles,
			"required_permissions", req.Permissions,
			"required_companies", req.Companies)
		ra.WriteAppError(w, r, internal.ErrInsufficientAbilities)
		return false
	}
	return true
}

func (ra *RBACAuthorization) Require(req ability.Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ra.check(w, r, req) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

// RequirePermissions demands every listed permission.
func (ra *RBACAuthorization) RequirePermissions(perms ...ability.Permission) func(http.Handler) http.Handler {
	return ra.Require(ability.Requirement{Permissions: perms, RequireAll: true})
}

// RequireRoles demands any one of the listed roles.
func (ra *RBACAuthorization) RequireRoles(roles ...ability.Role) func(http.Handler) http.Handler {
	return ra.Require(ability.Requirement{Roles: roles})
}

// RequireCompanyParam demands membership of the company named by the URL
// parameter, on top of base.
func (ra *RBACAuthorization) RequireCompanyParam(param string, base ability.Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
			if err != nil || id <= 0 {
				ra.WriteAppError(w, r, internal.NewValidationFieldError(param, param+" must be a positive integer", internal.ErrCodeInvalidID))
				return
			}
			req := base
			req.Companies = append(append([]int64(nil), base.Companies...), id)
			if ra.check(w, r, req) {
				next.ServeHTTP(w, r)
			}
		})
	}
}
