package catalog

import (
	"context"
	"net/http"

	"github.com/frahmantamala/access-control/internal/transport"
)

type ServiceAPI interface {
	Roles(ctx context.Context) (*RolesResponse, error)
	Permissions(ctx context.Context) (*PermissionsResponse, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) GetRoles(w http.ResponseWriter, r *http.Request) {
	resp, err := h.Service.Roles(r.Context())
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetPermissions(w http.ResponseWriter, r *http.Request) {
	resp, err := h.Service.Permissions(r.Context())
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}
