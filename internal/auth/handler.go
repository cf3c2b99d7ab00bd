package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/access-control/internal"
	"github.com/frahmantamala/access-control/internal/ability"
	"github.com/frahmantamala/access-control/internal/transport"
	"github.com/frahmantamala/access-control/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Cookie  CookieOptions
}

func NewHandler(svc ServiceAPI, cookie CookieOptions) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
		Cookie:      cookie,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	resp, err := h.Service.Login(r.Context(), dto, internal.ClientMetadataFromContext(r.Context()))
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	SetAuthCookie(w, h.Cookie, resp.Token)
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, r, internal.ErrAuthenticationRequired)
		return
	}

	if err := h.Service.RevokeToken(r.Context(), p.Token); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	ClearAuthCookie(w, h.Cookie)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, r, internal.ErrAuthenticationRequired)
		return
	}

	resp, err := h.Service.Me(r.Context(), p.User)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

// AuthMiddleware verifies the presented token and stores the caller's
// parsed abilities on the request context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token := ExtractToken(r, h.Cookie.Name)
		if token == "" {
			h.WriteAppError(w, r, internal.ErrAuthenticationRequired)
			return
		}

		data, err := h.Service.Verify(ctx, token)
		if err != nil {
			h.WriteAppError(w, r, err)
			return
		}
		if data == nil {
			logger.From(ctx).Info("auth middleware: session rejected")
			h.WriteAppError(w, r, internal.ErrAuthenticationRequired)
			return
		}

		ctx = logger.With(ctx, "user_id", data.UserID)
		ctx = ContextWithPrincipal(ctx, &Principal{
			User:  *data,
			Token: token,
			Set:   ability.Parse(ctx, data.Abilities),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
