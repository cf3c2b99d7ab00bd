package auth_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/frahmantamala/access-control/internal/ability"
	"github.com/frahmantamala/access-control/internal/auth"
	authPostgres "github.com/frahmantamala/access-control/internal/auth/postgres"
	"github.com/frahmantamala/access-control/internal/core/datamodel/access"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Handler", func() {
	var (
		f      *fixture
		router http.Handler
		alice  *access.User
	)

	BeforeEach(func() {
		f = newFixture()
		alice = f.user("alice")

		quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
		svc := auth.NewService(authPostgres.NewRepository(f.db, nil), f.hasher, quiet)
		h := auth.NewHandler(svc, auth.CookieOptions{Name: "mt_auth", SameSite: http.SameSiteLaxMode})
		gate := auth.NewRBACAuthorization(quiet)

		ok := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

		r := chi.NewRouter()
		r.Post("/login", h.Login)
		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware)
			r.Get("/me", h.Me)
			r.Post("/logout", h.Logout)
			r.With(gate.RequirePermissions(ability.PermProjectView)).Get("/projects", ok)
			r.With(gate.RequirePermissions(ability.PermUserDelete)).Delete("/users", ok)
			r.With(gate.RequireCompanyParam("companyId", ability.Requirement{})).Get("/companies/{companyId}", ok)
		})
		router = r
	})

	login := func(identifier, password string) *httptest.ResponseRecorder {
		body := `{"identifier":"` + identifier + `","password":"` + password + `"}`
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	tokenOf := func(rec *httptest.ResponseRecorder) string {
		var resp auth.LoginResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		return resp.Token
	}

	call := func(method, path, bearer string, cookie *http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}
		if cookie != nil {
			req.AddCookie(cookie)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	It("sets an http-only session cookie on login", func() {
		rec := login("alice", "secret123")
		Expect(rec.Code).To(Equal(http.StatusOK))

		cookies := rec.Result().Cookies()
		Expect(cookies).To(HaveLen(1))
		Expect(cookies[0].Name).To(Equal("mt_auth"))
		Expect(cookies[0].HttpOnly).To(BeTrue())
		Expect(cookies[0].Value).To(Equal(tokenOf(rec)))
	})

	It("does not reveal why a login failed", func() {
		wrong := login("alice", "nope")
		unknown := login("mallory", "secret123")
		Expect(wrong.Code).To(Equal(http.StatusUnauthorized))
		Expect(unknown.Code).To(Equal(http.StatusUnauthorized))
		Expect(wrong.Body.String()).To(Equal(unknown.Body.String()))
	})

	It("accepts the token from the cookie or the header and prefers the header", func() {
		token := tokenOf(login("alice", "secret123"))

		Expect(call(http.MethodGet, "/me", "", &http.Cookie{Name: "mt_auth", Value: token}).Code).To(Equal(http.StatusOK))
		Expect(call(http.MethodGet, "/me", token, nil).Code).To(Equal(http.StatusOK))
		Expect(call(http.MethodGet, "/me", "bogus", &http.Cookie{Name: "mt_auth", Value: token}).Code).To(Equal(http.StatusUnauthorized))
	})

	It("returns the caller and abilities from me", func() {
		token := tokenOf(login("alice", "secret123"))
		rec := call(http.MethodGet, "/me", token, nil)

		var me auth.MeResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &me)).To(Succeed())
		Expect(me.User.ID).To(Equal(alice.ID))
		Expect(me.Abilities).To(ContainElement("permission:PRJ_VIEW"))
	})

	It("revokes the session on logout", func() {
		token := tokenOf(login("alice", "secret123"))

		rec := call(http.MethodPost, "/logout", token, nil)
		Expect(rec.Code).To(Equal(http.StatusNoContent))
		Expect(rec.Result().Cookies()[0].MaxAge).To(BeNumerically("<", 0))

		Expect(call(http.MethodGet, "/me", token, nil).Code).To(Equal(http.StatusUnauthorized))
	})

	It("requires a token on protected routes", func() {
		Expect(call(http.MethodGet, "/me", "", nil).Code).To(Equal(http.StatusUnauthorized))
	})

	It("gates routes on abilities", func() {
		token := tokenOf(login("alice", "secret123"))

		Expect(call(http.MethodGet, "/projects", token, nil).Code).To(Equal(http.StatusOK))
		Expect(call(http.MethodDelete, "/users", token, nil).Code).To(Equal(http.StatusForbidden))
		Expect(call(http.MethodGet, "/companies/"+itoa(f.company.ID), token, nil).Code).To(Equal(http.StatusOK))
		Expect(call(http.MethodGet, "/companies/999", token, nil).Code).To(Equal(http.StatusForbidden))
		Expect(call(http.MethodGet, "/companies/abc", token, nil).Code).To(Equal(http.StatusBadRequest))
	})

	It("lets a super administrator through every gate", func() {
		super := access.Role{RoleName: "SUPER_ADMIN", IsActive: true}
		Expect(f.db.Create(&super).Error).To(Succeed())
		Expect(f.db.Create(&access.UserRole{UserID: alice.ID, RoleID: super.ID, IsActive: true}).Error).To(Succeed())

		token := tokenOf(login("alice", "secret123"))
		Expect(call(http.MethodDelete, "/users", token, nil).Code).To(Equal(http.StatusOK))
		Expect(call(http.MethodGet, "/companies/999", token, nil).Code).To(Equal(http.StatusOK))
	})
})
