package ability_test

import (
	"context"

	"github.com/frahmantamala/access-control/internal/ability"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("HasAccess", func() {
	parse := func(entries ...string) ability.Set {
		return ability.Parse(context.Background(), entries)
	}

	Context("super admin", func() {
		It("passes regardless of requirements", func() {
			set := parse("SUPER_ADMIN")

			Expect(ability.HasAccess(set, ability.Requirement{
				Roles:       []ability.Role{ability.RoleDirector, ability.RoleShopOperator},
				Permissions: []ability.Permission{ability.PermUserDelete},
				Companies:   []int64{999},
				RequireAll:  true,
			})).To(BeTrue())
			Expect(ability.BelongsToCompany(set, 42)).To(BeTrue())
		})
	})

	Context("roles", func() {
		It("requires every role when RequireAll is set", func() {
			req := ability.Requirement{
				Roles:      []ability.Role{ability.RoleDirector, ability.RoleProdManager},
				RequireAll: true,
			}

			Expect(ability.HasAccess(parse("DIRECTOR"), req)).To(BeFalse())
			Expect(ability.HasAccess(parse("DIRECTOR", "PROD_MANAGER"), req)).To(BeTrue())
		})

		It("accepts any listed role otherwise", func() {
			Expect(ability.HasRole(parse("PROD_MANAGER"), ability.RoleDirector, ability.RoleProdManager)).To(BeTrue())
			Expect(ability.HasRole(parse("SHOP_OPERATOR"), ability.RoleDirector)).To(BeFalse())
		})
	})

	Context("categories", func() {
		It("ANDs categories together", func() {
			set := parse("DIRECTOR", "permission:PRJ_VIEW", "company:1")

			Expect(ability.HasAccess(set, ability.Requirement{
				Roles:       []ability.Role{ability.RoleDirector},
				Permissions: []ability.Permission{ability.PermProjectView},
				Companies:   []int64{1},
			})).To(BeTrue())

			Expect(ability.HasAccess(set, ability.Requirement{
				Roles:     []ability.Role{ability.RoleDirector},
				Companies: []int64{2},
			})).To(BeFalse())
		})

		It("imposes nothing for empty requirements", func() {
			Expect(ability.HasAccess(parse(), ability.Requirement{})).To(BeTrue())
			Expect(ability.HasAccess(parse(), ability.Requirement{RequireAll: true})).To(BeTrue())
		})

		It("checks permissions and companies with the convenience wrappers", func() {
			set := parse("permission:USER_VIEW", "company:5")

			Expect(ability.HasPermission(set, ability.PermUserView)).To(BeTrue())
			Expect(ability.HasPermission(set, ability.PermUserUpdate)).To(BeFalse())
			Expect(ability.BelongsToCompany(set, 4, 5)).To(BeTrue())
			Expect(ability.BelongsToCompany(set, 4)).To(BeFalse())
		})
	})
})
