package user

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/frahmantamala/access-control/internal"
	"github.com/frahmantamala/access-control/internal/pagination"
	"github.com/frahmantamala/access-control/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	List(ctx context.Context, q ListQuery) (*ListResponse, error)
	Detail(ctx context.Context, id int64) (*UserDetail, error)
	Create(ctx context.Context, dto CreateUserDTO) (*UserDetail, error)
	Update(ctx context.Context, id int64, dto UpdateUserDTO) (*UserDetail, error)
	Delete(ctx context.Context, id int64) error
	AssignRoles(ctx context.Context, id int64, dto AssignRolesDTO) error
	AssignCompanies(ctx context.Context, id int64, dto AssignCompaniesDTO) error
	ChangePassword(ctx context.Context, id int64, dto ChangePasswordDTO) error
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

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	resp, err := h.Service.List(r.Context(), q)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	resp, err := h.Service.Detail(r.Context(), id)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var dto CreateUserDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	resp, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, resp)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	var dto UpdateUserDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	resp, err := h.Service.Update(r.Context(), id, dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AssignRoles(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	var dto AssignRolesDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	if err := h.Service.AssignRoles(r.Context(), id, dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.respondDetail(w, r, id)
}

func (h *Handler) AssignCompanies(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	var dto AssignCompaniesDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	if err := h.Service.AssignCompanies(r.Context(), id, dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.respondDetail(w, r, id)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	var dto ChangePasswordDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	if err := h.Service.ChangePassword(r.Context(), id, dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondDetail(w http.ResponseWriter, r *http.Request, id int64) {
	resp, err := h.Service.Detail(r.Context(), id)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func userID(r *http.Request) (int64, error) {
	return positiveInt(chi.URLParam(r, "userId"), "userId")
}

func positiveInt(raw, field string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, internal.NewValidationFieldError(field, field+" must be a positive integer", internal.ErrCodeInvalidID)
	}
	return id, nil
}

func parseListQuery(r *http.Request) (ListQuery, error) {
	v := r.URL.Query()
	q := ListQuery{
		Page: pagination.Query{
			AfterCursor:  v.Get("afterCursor"),
			BeforeCursor: v.Get("beforeCursor"),
			Order:        pagination.Order(strings.ToUpper(v.Get("order"))),
		},
		Search: v.Get("search"),
	}

	if raw := v.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return q, internal.NewValidationFieldError("limit", "limit must be an integer", internal.ErrCodeValidationFailed)
		}
		q.Page.Limit = limit
	}
	if raw := v.Get("isActive"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return q, internal.NewValidationFieldError("isActive", "isActive must be true or false", internal.ErrCodeValidationFailed)
		}
		q.IsActive = &active
	}
	if raw := v.Get("roleId"); raw != "" {
		id, err := positiveInt(raw, "roleId")
		if err != nil {
			return q, err
		}
		q.RoleID = id
	}
	if raw := v.Get("companyId"); raw != "" {
		id, err := positiveInt(raw, "companyId")
		if err != nil {
			return q, err
		}
		q.CompanyID = id
	}
	return q, nil
}
