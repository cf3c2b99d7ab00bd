package ability

// Requirement describes what an operation needs. Empty categories impose no
// constraint; RequireAll switches each category from any-of to all-of.
type Requirement struct {
	Roles       []Role
	Permissions []Permission
	Companies   []int64
	RequireAll  bool
}

// HasAccess decides whether set satisfies req. SUPER_ADMIN always passes.
func HasAccess(set Set, req Requirement) bool {
	if set.HasRole(RoleSuperAdmin) {
		return true
	}

	if len(req.Roles) > 0 && !match(req.Roles, set.HasRole, req.RequireAll) {
		return false
	}
	if len(req.Permissions) > 0 && !match(req.Permissions, set.HasPermission, req.RequireAll) {
		return false
	}
	if len(req.Companies) > 0 && !match(req.Companies, set.HasCompany, req.RequireAll) {
		return false
	}
	return true
}

func match[T comparable](required []T, has func(T) bool, all bool) bool {
	for _, v := range required {
		ok := has(v)
		if all && !ok {
			return false
		}
		if !all && ok {
			return true
		}
	}
	return all
}

func HasRole(set Set, roles ...Role) bool {
	return HasAccess(set, Requirement{Roles: roles})
}

func HasPermission(set Set, permissions ...Permission) bool {
	return HasAccess(set, Requirement{Permissions: permissions})
}

func BelongsToCompany(set Set, companyIDs ...int64) bool {
	return HasAccess(set, Requirement{Companies: companyIDs})
}
