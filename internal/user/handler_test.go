package user_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/access-control/internal"
	"github.com/frahmantamala/access-control/internal/auth"
	authPostgres "github.com/frahmantamala/access-control/internal/auth/postgres"
	"github.com/frahmantamala/access-control/internal/core/datamodel/access"
	"github.com/frahmantamala/access-control/internal/transport"
	"github.com/frahmantamala/access-control/internal/user"
	userPostgres "github.com/frahmantamala/access-control/internal/user/postgres"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type errorBody struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			Errors []struct {
				Field string `json:"field"`
			} `json:"errors"`
		} `json:"details"`
	} `json:"error"`
}

var _ = Describe("User Handler Integration", func() {
	var (
		ctx      context.Context
		db       *gorm.DB
		authSvc  *auth.Service
		router   http.Handler
		director access.Role
		acme     access.Company
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(access.Models()...)).To(Succeed())

		director = access.Role{RoleName: "DIRECTOR", Description: "Director", IsActive: true}
		Expect(db.Create(&director).Error).To(Succeed())
		perm := access.Permission{PermissionName: "PRJ_VIEW", IsActive: true}
		Expect(db.Create(&perm).Error).To(Succeed())
		Expect(db.Create(&access.RolePermission{RoleID: director.ID, PermissionID: perm.ID, IsActive: true}).Error).To(Succeed())
		acme = access.Company{CompanyCode: "ACME", CompanyName: "Acme", IsActive: true}
		Expect(db.Create(&acme).Error).To(Succeed())

		quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
		hasher := auth.NewBcryptHasher(bcrypt.MinCost)
		authRepo := authPostgres.NewRepository(db, nil)
		authSvc = auth.NewService(authRepo, hasher, quiet)
		svc := user.NewService(userPostgres.NewRepository(db, nil), authRepo, hasher, authSvc, quiet)
		h := user.NewHandler(&transport.BaseHandler{Logger: quiet}, svc)

		r := chi.NewRouter()
		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.ListUsers)
			r.Post("/", h.CreateUser)
			r.Get("/{userId}", h.GetUser)
			r.Put("/{userId}", h.UpdateUser)
			r.Delete("/{userId}", h.DeleteUser)
			r.Post("/{userId}/roles", h.AssignRoles)
			r.Post("/{userId}/companies", h.AssignCompanies)
			r.Patch("/{userId}/password", h.ChangePassword)
		})
		router = r
	})

	do := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	decodeErr := func(rec *httptest.ResponseRecorder) errorBody {
		var body errorBody
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		return body
	}

	create := func(name string) user.UserDetail {
		rec := do(http.MethodPost, "/users", map[string]interface{}{
			"userName":   name,
			"fullName":   "Test " + name,
			"email":      name + "@example.com",
			"password":   "secret123",
			"roleIds":    []int64{director.ID},
			"companyIds": []int64{acme.ID},
		})
		Expect(rec.Code).To(Equal(http.StatusCreated), rec.Body.String())
		var d user.UserDetail
		Expect(json.Unmarshal(rec.Body.Bytes(), &d)).To(Succeed())
		return d
	}

	session := func(name string) string {
		resp, err := authSvc.Login(ctx, auth.LoginDTO{Identifier: name, Password: "secret123"}, internal.ClientMetadata{})
		Expect(err).NotTo(HaveOccurred())
		return resp.Token
	}

	alive := func(token string) bool {
		data, err := authSvc.Verify(ctx, token)
		Expect(err).NotTo(HaveOccurred())
		return data != nil
	}

	Describe("POST /users", func() {
		It("creates the user with its assignments", func() {
			d := create("alice")
			Expect(d.UserName).To(Equal("alice"))
			Expect(d.IsActive).To(BeTrue())
			Expect(d.Roles).To(HaveLen(1))
			Expect(d.Roles[0].Description).To(Equal("Director"))
			Expect(d.Permissions).To(HaveLen(1))
			Expect(d.Companies).To(HaveLen(1))
			Expect(d.ProfileDTO.ID).To(BeNumerically(">", 0))

			var stored access.User
			Expect(db.First(&stored, d.ID).Error).To(Succeed())
			Expect(stored.Password).NotTo(Equal("secret123"))
		})

		It("reports field-level validation failures", func() {
			rec := do(http.MethodPost, "/users", map[string]interface{}{"userName": "al", "email": "bad", "password": "123"})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))

			body := decodeErr(rec)
			fields := []string{}
			for _, e := range body.Error.Details.Errors {
				fields = append(fields, e.Field)
			}
			Expect(fields).To(ConsistOf("userName", "email", "password"))
		})

		It("reports duplicate user names and emails distinctly", func() {
			create("alice")

			rec := do(http.MethodPost, "/users", map[string]interface{}{"userName": "alice", "email": "new@example.com", "password": "secret123"})
			Expect(rec.Code).To(Equal(http.StatusConflict))
			Expect(decodeErr(rec).Error.Code).To(Equal(string(internal.ErrCodeUsernameTaken)))

			rec = do(http.MethodPost, "/users", map[string]interface{}{"userName": "alice2", "email": "ALICE@example.com", "password": "secret123"})
			Expect(rec.Code).To(Equal(http.StatusConflict))
			Expect(decodeErr(rec).Error.Code).To(Equal(string(internal.ErrCodeEmailTaken)))
		})

		It("rejects unknown roles without creating anything", func() {
			rec := do(http.MethodPost, "/users", map[string]interface{}{
				"userName": "bob", "email": "bob@example.com", "password": "secret123", "roleIds": []int64{director.ID, 77},
			})
			Expect(rec.Code).To(Equal(http.StatusNotFound))
			Expect(decodeErr(rec).Error.Code).To(Equal(string(internal.ErrCodeRoleNotFound)))

			var n int64
			Expect(db.Model(&access.User{}).Count(&n).Error).To(Succeed())
			Expect(n).To(BeZero())
		})
	})

	Describe("GET /users", func() {
		It("walks every user once through cursors", func() {
			for _, n := range []string{"user1", "user2", "user3", "user4", "user5"} {
				create(n)
			}

			var names []string
			path := "/users?limit=2"
			for {
				rec := do(http.MethodGet, path, nil)
				Expect(rec.Code).To(Equal(http.StatusOK))
				var page user.ListResponse
				Expect(json.Unmarshal(rec.Body.Bytes(), &page)).To(Succeed())
				for _, it := range page.Data {
					names = append(names, it.UserName)
					Expect(it.Roles).To(HaveLen(1))
				}
				if page.Cursor.AfterCursor == nil {
					break
				}
				path = "/users?limit=2&afterCursor=" + *page.Cursor.AfterCursor
			}
			Expect(names).To(Equal([]string{"user5", "user4", "user3", "user2", "user1"}))
		})

		It("rejects both cursors at once", func() {
			rec := do(http.MethodGet, "/users?afterCursor=a&beforeCursor=b", nil)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(decodeErr(rec).Error.Details.Errors[0].Field).To(Equal("beforeCursor"))
		})

		It("rejects malformed filters", func() {
			Expect(do(http.MethodGet, "/users?roleId=-1", nil).Code).To(Equal(http.StatusBadRequest))
			Expect(do(http.MethodGet, "/users?isActive=maybe", nil).Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("GET /users/{userId}", func() {
		It("distinguishes bad ids from missing users", func() {
			Expect(do(http.MethodGet, "/users/abc", nil).Code).To(Equal(http.StatusBadRequest))

			rec := do(http.MethodGet, "/users/42", nil)
			Expect(rec.Code).To(Equal(http.StatusNotFound))
			Expect(decodeErr(rec).Error.Code).To(Equal(string(internal.ErrCodeUserNotFound)))
		})
	})

	Describe("session invalidation", func() {
		var (
			alice user.UserDetail
			token string
		)

		BeforeEach(func() {
			alice = create("alice")
			token = session("alice")
			Expect(alive(token)).To(BeTrue())
		})

		path := func(suffix string) string {
			return "/users/" + itoa(alice.ID) + suffix
		}

		It("keeps sessions on a profile edit", func() {
			rec := do(http.MethodPut, path(""), map[string]interface{}{"fullName": "Alice A."})
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(alive(token)).To(BeTrue())
		})

		It("ends sessions when the user is deactivated", func() {
			rec := do(http.MethodPut, path(""), map[string]interface{}{"isActive": false})
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(alive(token)).To(BeFalse())

			var n int64
			Expect(db.Model(&access.AccessToken{}).Where("user_id = ?", alice.ID).Count(&n).Error).To(Succeed())
			Expect(n).To(BeZero())
		})

		It("ends sessions on soft delete and keeps the row", func() {
			Expect(do(http.MethodDelete, path(""), nil).Code).To(Equal(http.StatusNoContent))
			Expect(alive(token)).To(BeFalse())

			var stored access.User
			Expect(db.First(&stored, alice.ID).Error).To(Succeed())
			Expect(stored.IsActive).To(BeFalse())
		})

		It("ends sessions on a password change", func() {
			rec := do(http.MethodPatch, path("/password"), map[string]interface{}{"newPassword": "another1"})
			Expect(rec.Code).To(Equal(http.StatusNoContent))
			Expect(alive(token)).To(BeFalse())

			_, err := authSvc.Login(ctx, auth.LoginDTO{Identifier: "alice", Password: "another1"}, internal.ClientMetadata{})
			Expect(err).NotTo(HaveOccurred())
		})

		It("ends sessions when roles or companies are replaced", func() {
			other := access.Role{RoleName: "IT_ADMIN", IsActive: true}
			Expect(db.Create(&other).Error).To(Succeed())

			rec := do(http.MethodPost, path("/roles"), map[string]interface{}{"roleIds": []int64{other.ID}})
			Expect(rec.Code).To(Equal(http.StatusOK))
			var d user.UserDetail
			Expect(json.Unmarshal(rec.Body.Bytes(), &d)).To(Succeed())
			Expect(d.Roles).To(HaveLen(1))
			Expect(d.Roles[0].RoleName).To(Equal("IT_ADMIN"))
			Expect(d.Permissions).To(BeEmpty())
			Expect(alive(token)).To(BeFalse())

			token = session("alice")
			rec = do(http.MethodPost, path("/companies"), map[string]interface{}{"companyIds": []int64{acme.ID}})
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(alive(token)).To(BeFalse())
		})

		It("keeps sessions when an assignment is rejected", func() {
			rec := do(http.MethodPost, path("/roles"), map[string]interface{}{"roleIds": []int64{}})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))

			rec = do(http.MethodPost, path("/companies"), map[string]interface{}{"companyIds": []int64{999}})
			Expect(rec.Code).To(Equal(http.StatusNotFound))
			Expect(alive(token)).To(BeTrue())
		})
	})
})
