// Package project exposes permission-gated project routes. Project storage
// is not implemented yet; the handlers answer with empty results.
package project

import (
	"net/http"

	"github.com/frahmantamala/access-control/internal/transport"
	"github.com/go-chi/chi"
)

type Response struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type Handler struct {
	*transport.BaseHandler
}

func NewHandler(baseHandler *transport.BaseHandler) *Handler {
	return &Handler{BaseHandler: baseHandler}
}

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, Response{
		Message: "projects",
		Data:    map[string]interface{}{"projects": []interface{}{}},
	})
}

func (h *Handler) ListCompanyProjects(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, Response{
		Message: "projects of company " + chi.URLParam(r, "companyId"),
		Data:    map[string]interface{}{"projects": []interface{}{}},
	})
}

func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusCreated, Response{Message: "project created"})
}

func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, Response{Message: "project " + chi.URLParam(r, "projectId") + " updated"})
}

func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, Response{Message: "project " + chi.URLParam(r, "projectId") + " deleted"})
}
