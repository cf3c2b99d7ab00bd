package postgres_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/frahmantamala/access-control/internal"
	"github.com/frahmantamala/access-control/internal/core/datamodel/access"
	"github.com/frahmantamala/access-control/internal/pagination"
	"github.com/frahmantamala/access-control/internal/user"
	userPostgres "github.com/frahmantamala/access-control/internal/user/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestUserPostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Postgres Suite")
}

var _ = Describe("User Repository", func() {
	var (
		ctx      context.Context
		db       *gorm.DB
		repo     *userPostgres.Repository
		director access.Role
		operator access.Role
		acme     access.Company
		globex   access.Company
		ids      []int64
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(access.Models()...)).To(Succeed())

		repo = userPostgres.NewRepository(db, nil)

		director = access.Role{RoleName: "DIRECTOR", IsActive: true}
		operator = access.Role{RoleName: "SHOP_OPERATOR", IsActive: true}
		acme = access.Company{CompanyCode: "ACME", CompanyName: "Acme", IsActive: true}
		globex = access.Company{CompanyCode: "GLOBEX", CompanyName: "Globex", IsActive: true}
		Expect(db.Create(&director).Error).To(Succeed())
		Expect(db.Create(&operator).Error).To(Succeed())
		Expect(db.Create(&acme).Error).To(Succeed())
		Expect(db.Create(&globex).Error).To(Succeed())

		ids = nil
		for i := 1; i <= 5; i++ {
			u := &access.User{
				UserName: fmt.Sprintf("user%d", i),
				FullName: fmt.Sprintf("User %d", i),
				Email:    fmt.Sprintf("user%d@example.com", i),
				Password: "x",
				IsActive: true,
			}
			roles := []int64{director.ID}
			if i%2 == 0 {
				roles = []int64{operator.ID}
			}
			Expect(repo.Create(ctx, u, roles, []int64{acme.ID})).To(Succeed())
			ids = append(ids, u.ID)
		}
	})

	Describe("List", func() {
		It("hydrates live assignments in page order", func() {
			page, err := repo.List(ctx, user.ListQuery{Page: pagination.Query{Limit: 3}})
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Data).To(HaveLen(3))
			Expect(page.Data[0].ID).To(Equal(ids[4]))
			Expect(page.Data[1].ID).To(Equal(ids[3]))
			Expect(page.Data[2].ID).To(Equal(ids[2]))
			Expect(page.Cursor.AfterCursor).NotTo(BeNil())

			item := user.ToListItem(page.Data[1])
			Expect(item.Roles).To(HaveLen(1))
			Expect(item.Roles[0].RoleName).To(Equal("SHOP_OPERATOR"))
			Expect(item.Companies).To(HaveLen(1))
		})

		It("filters by role membership through live assignments only", func() {
			page, err := repo.List(ctx, user.ListQuery{RoleID: operator.ID})
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Data).To(HaveLen(2))

			Expect(repo.ReplaceRoles(ctx, ids[1], []int64{director.ID})).To(Succeed())

			page, err = repo.List(ctx, user.ListQuery{RoleID: operator.ID})
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Data).To(HaveLen(1))
			Expect(page.Data[0].ID).To(Equal(ids[3]))
		})

		It("combines search, active and company filters", func() {
			inactive := false
			Expect(db.Model(&access.User{}).Where("id = ?", ids[0]).Update("is_active", false).Error).To(Succeed())

			page, err := repo.List(ctx, user.ListQuery{IsActive: &inactive, CompanyID: acme.ID})
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Data).To(HaveLen(1))
			Expect(page.Data[0].ID).To(Equal(ids[0]))

			page, err = repo.List(ctx, user.ListQuery{Search: "user2", CompanyID: globex.ID})
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Data).To(BeEmpty())
			Expect(page.Cursor.AfterCursor).To(BeNil())
		})
	})

	Describe("assignment replacement", func() {
		It("deactivates the previous set and inserts the new one", func() {
			Expect(repo.ReplaceCompanies(ctx, ids[0], []int64{globex.ID})).To(Succeed())

			var rows []access.UserCompany
			Expect(db.Where("user_id = ?", ids[0]).Order("id").Find(&rows).Error).To(Succeed())
			Expect(rows).To(HaveLen(2))
			Expect(rows[0].IsActive).To(BeFalse())
			Expect(rows[1].CompanyID).To(Equal(globex.ID))
			Expect(rows[1].IsActive).To(BeTrue())
		})

		It("rejects the whole set when any id is unknown or inactive", func() {
			Expect(db.Model(&operator).Update("is_active", false).Error).To(Succeed())

			err := repo.ReplaceRoles(ctx, ids[0], []int64{director.ID, operator.ID})
			Expect(err).To(MatchError(internal.ErrRoleNotFound))

			err = repo.ReplaceCompanies(ctx, ids[0], []int64{acme.ID, 999})
			Expect(err).To(MatchError(internal.ErrCompanyNotFound))

			var live int64
			Expect(db.Model(&access.UserRole{}).Where("user_id = ? AND is_active = ?", ids[0], true).Count(&live).Error).To(Succeed())
			Expect(live).To(Equal(int64(1)))
		})

		It("reports unknown users", func() {
			Expect(repo.ReplaceRoles(ctx, 999, []int64{director.ID})).To(MatchError(internal.ErrUserNotFound))
		})
	})

	Describe("Create", func() {
		It("rolls back the user when an assignment is invalid", func() {
			u := &access.User{UserName: "ghost", Email: "ghost@example.com", Password: "x", IsActive: true}
			Expect(repo.Create(ctx, u, []int64{director.ID}, []int64{404})).To(MatchError(internal.ErrCompanyNotFound))

			found, err := repo.ExistsUserName(ctx, "ghost", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeFalse())
		})

		It("names the colliding column when a duplicate reaches the database", func() {
			dupEmail := &access.User{UserName: "newcomer", Email: "user2@example.com", Password: "x", IsActive: true}
			Expect(repo.Create(ctx, dupEmail, nil, nil)).To(MatchError(internal.ErrEmailTaken))

			dupName := &access.User{UserName: "user3", Email: "fresh@example.com", Password: "x", IsActive: true}
			Expect(repo.Create(ctx, dupName, nil, nil)).To(MatchError(internal.ErrUsernameTaken))

			renamed, err := repo.FindByID(ctx, ids[0])
			Expect(err).NotTo(HaveOccurred())
			renamed.Email = "user4@example.com"
			Expect(repo.Save(ctx, renamed)).To(MatchError(internal.ErrEmailTaken))
		})

		It("persists an explicit inactive flag", func() {
			u := &access.User{UserName: "dormant", Email: "dormant@example.com", Password: "x", IsActive: false}
			Expect(repo.Create(ctx, u, nil, nil)).To(Succeed())

			stored, err := repo.FindByID(ctx, u.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.IsActive).To(BeFalse())
		})
	})

	Describe("uniqueness checks", func() {
		It("ignores the user being edited and compares email case-insensitively", func() {
			taken, err := repo.ExistsEmail(ctx, "USER1@example.com", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(taken).To(BeTrue())

			taken, err = repo.ExistsEmail(ctx, "user1@example.com", ids[0])
			Expect(err).NotTo(HaveOccurred())
			Expect(taken).To(BeFalse())
		})
	})
})
