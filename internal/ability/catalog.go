package ability

type Role string

const (
	RoleDirector     Role = "DIRECTOR"
	RoleProdManager  Role = "PROD_MANAGER"
	RoleShopOperator Role = "SHOP_OPERATOR"
	RoleITAdmin      Role = "IT_ADMIN"
	RoleSuperAdmin   Role = "SUPER_ADMIN"
)

var roleDescriptions = map[Role]string{
	RoleDirector:     "Leadership: dashboards, reports and schedules (read only)",
	RoleProdManager:  "Production manager: runs mould projects and plans",
	RoleShopOperator: "Shop floor operator: views plans and records actual hours",
	RoleITAdmin:      "Application admin: manages users, roles, permissions and master data",
	RoleSuperAdmin:   "System admin: full configuration and technical support access",
}

type Permission string

const (
	PermProjectView    Permission = "PRJ_VIEW"
	PermProjectCreate  Permission = "PRJ_CREATE"
	PermProjectUpdate  Permission = "PRJ_UPDATE"
	PermProjectDelete  Permission = "PRJ_DELETE"
	PermUserView       Permission = "USER_VIEW"
	PermUserCreate     Permission = "USER_CREATE"
	PermUserUpdate     Permission = "USER_UPDATE"
	PermUserDelete     Permission = "USER_DELETE"
	PermRoleView       Permission = "ROLE_VIEW"
	PermPermissionView Permission = "PERMISSION_VIEW"
)

var permissionDescriptions = map[Permission]string{
	PermProjectView:    "View projects",
	PermProjectCreate:  "Create projects",
	PermProjectUpdate:  "Update projects",
	PermProjectDelete:  "Delete projects",
	PermUserView:       "View users",
	PermUserCreate:     "Create users",
	PermUserUpdate:     "Update users",
	PermUserDelete:     "Delete users",
	PermRoleView:       "View roles",
	PermPermissionView: "View permissions",
}

// Roles returns every known role in a fixed order.
func Roles() []Role {
	return []Role{RoleDirector, RoleProdManager, RoleShopOperator, RoleITAdmin, RoleSuperAdmin}
}

// Permissions returns every known permission in a fixed order.
func Permissions() []Permission {
	return []Permission{
		PermProjectView, PermProjectCreate, PermProjectUpdate, PermProjectDelete,
		PermUserView, PermUserCreate, PermUserUpdate, PermUserDelete,
		PermRoleView, PermPermissionView,
	}
}

func (r Role) Known() bool {
	_, ok := roleDescriptions[r]
	return ok
}

func (r Role) Description() string {
	return roleDescriptions[r]
}

func (p Permission) Known() bool {
	_, ok := permissionDescriptions[p]
	return ok
}

func (p Permission) Description() string {
	return permissionDescriptions[p]
}
