package catalog

import (
	"context"

	"github.com/frahmantamala/access-control/internal/ability"
	"github.com/frahmantamala/access-control/internal/core/datamodel/access"
)

type RepositoryAPI interface {
	ActiveRoles(ctx context.Context) ([]access.Role, error)
	ActivePermissions(ctx context.Context) ([]access.Permission, error)

	// The Ensure methods insert when missing and return the stored row
	// otherwise, so seeding can run repeatedly.
	EnsureRole(ctx context.Context, name, description string) (*access.Role, error)
	EnsurePermission(ctx context.Context, name, description string) (*access.Permission, error)
	EnsureRolePermission(ctx context.Context, roleID, permissionID int64) error
	EnsureCompany(ctx context.Context, code, name string) (*access.Company, error)
}

type CompanySeed struct {
	Code string
	Name string
}

// SeedPlan is the catalogue a fresh installation starts with.
type SeedPlan struct {
	Roles       []ability.Role
	Permissions []ability.Permission
	Grants      map[ability.Role][]ability.Permission
	Companies   []CompanySeed
}

// DefaultPlan maps every known role to its baseline permissions. SUPER_ADMIN
// gets none because it bypasses every check.
func DefaultPlan() SeedPlan {
	return SeedPlan{
		Roles:       ability.Roles(),
		Permissions: ability.Permissions(),
		Grants: map[ability.Role][]ability.Permission{
			ability.RoleDirector: {
				ability.PermProjectView, ability.PermUserView, ability.PermRoleView, ability.PermPermissionView,
			},
			ability.RoleITAdmin: {
				ability.PermUserView, ability.PermUserCreate, ability.PermUserUpdate, ability.PermUserDelete,
				ability.PermRoleView, ability.PermPermissionView, ability.PermProjectView,
			},
			ability.RoleProdManager: {
				ability.PermProjectView, ability.PermProjectCreate, ability.PermProjectUpdate, ability.PermUserView,
			},
			ability.RoleShopOperator: {ability.PermProjectView},
		},
		Companies: []CompanySeed{
			{Code: "COMPANY_A", Name: "Company A"},
			{Code: "COMPANY_B", Name: "Company B"},
		},
	}
}

// SeedResult carries the stored ids of everything the plan touched.
type SeedResult struct {
	Roles       map[ability.Role]int64
	Permissions map[ability.Permission]int64
	Companies   map[string]int64
}

func (r SeedResult) CompanyIDs() []int64 {
	ids := make([]int64, 0, len(r.Companies))
	for _, id := range r.Companies {
		ids = append(ids, id)
	}
	return ids
}
