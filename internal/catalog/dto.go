package catalog

type RoleResponse struct {
	ID          int64  `json:"id"`
	RoleName    string `json:"roleName"`
	Description string `json:"description"`
}

type RolesResponse struct {
	Roles []RoleResponse `json:"roles"`
}

type PermissionResponse struct {
	ID             int64  `json:"id"`
	PermissionName string `json:"permissionName"`
	Description    string `json:"description"`
}

type PermissionsResponse struct {
	Permissions []PermissionResponse `json:"permissions"`
}
