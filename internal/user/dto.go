package user

import (
	"time"

	"github.com/frahmantamala/access-control/internal/auth"
	"github.com/frahmantamala/access-control/internal/core/datamodel/access"
	"github.com/frahmantamala/access-control/internal/pagination"
)

type CreateUserDTO struct {
	UserName   string  `json:"userName" validate:"required,min=3,max=50"`
	FullName   string  `json:"fullName" validate:"max=100"`
	Email      string  `json:"email" validate:"required,email,max=255"`
	Password   string  `json:"password" validate:"required,min=6,max=72"`
	IsActive   *bool   `json:"isActive"`
	RoleIDs    []int64 `json:"roleIds" validate:"omitempty,dive,gt=0"`
	CompanyIDs []int64 `json:"companyIds" validate:"omitempty,dive,gt=0"`
}

type UpdateUserDTO struct {
	UserName *string `json:"userName" validate:"omitempty,min=3,max=50"`
	FullName *string `json:"fullName" validate:"omitempty,max=100"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	IsActive *bool   `json:"isActive"`
	Image    *string `json:"image" validate:"omitempty,max=500"`
}

type AssignRolesDTO struct {
	RoleIDs []int64 `json:"roleIds" validate:"required,min=1,dive,gt=0"`
}

type AssignCompaniesDTO struct {
	CompanyIDs []int64 `json:"companyIds" validate:"required,min=1,dive,gt=0"`
}

type ChangePasswordDTO struct {
	NewPassword string `json:"newPassword" validate:"required,min=6,max=72"`
}

type RoleSummary struct {
	ID          int64  `json:"id"`
	RoleName    string `json:"roleName"`
	Description string `json:"description,omitempty"`
}

type PermissionSummary struct {
	ID             int64  `json:"id"`
	PermissionName string `json:"permissionName"`
	Description    string `json:"description,omitempty"`
}

type CompanySummary struct {
	ID          int64  `json:"id"`
	CompanyCode string `json:"companyCode"`
	CompanyName string `json:"companyName"`
}

type UserListItem struct {
	ID        int64            `json:"id"`
	UserName  string           `json:"userName"`
	FullName  string           `json:"fullName"`
	Email     string           `json:"email"`
	IsActive  bool             `json:"isActive"`
	Image     *string          `json:"image"`
	CreatedAt time.Time        `json:"createdAt"`
	Roles     []RoleSummary    `json:"roles"`
	Companies []CompanySummary `json:"companies"`
}

type ListResponse = pagination.Page[UserListItem]

type UserDetail struct {
	auth.ProfileDTO
	Roles       []RoleSummary       `json:"roles"`
	Permissions []PermissionSummary `json:"permissions"`
	Companies   []CompanySummary    `json:"companies"`
}

// ToListItem projects only assignments whose junction row and entity are active.
func ToListItem(u access.User) UserListItem {
	item := UserListItem{
		ID:        u.ID,
		UserName:  u.UserName,
		FullName:  u.FullName,
		Email:     u.Email,
		IsActive:  u.IsActive,
		Image:     u.Image,
		CreatedAt: u.CreatedAt,
		Roles:     []RoleSummary{},
		Companies: []CompanySummary{},
	}
	for _, ur := range u.UserRoles {
		if !ur.IsActive || ur.Role == nil || !ur.Role.IsActive {
			continue
		}
		item.Roles = append(item.Roles, RoleSummary{ID: ur.Role.ID, RoleName: ur.Role.RoleName, Description: ur.Role.Description})
	}
	for _, uc := range u.UserCompanies {
		if !uc.IsActive || uc.Company == nil || !uc.Company.IsActive {
			continue
		}
		item.Companies = append(item.Companies, CompanySummary{ID: uc.Company.ID, CompanyCode: uc.Company.CompanyCode, CompanyName: uc.Company.CompanyName})
	}
	return item
}

func ToDetail(u *access.User, g *auth.Grants) UserDetail {
	d := UserDetail{
		ProfileDTO:  auth.NewProfileDTO(u),
		Roles:       make([]RoleSummary, 0, len(g.Roles)),
		Permissions: make([]PermissionSummary, 0, len(g.Permissions)),
		Companies:   make([]CompanySummary, 0, len(g.Companies)),
	}
	for _, r := range g.Roles {
		d.Roles = append(d.Roles, RoleSummary{ID: r.ID, RoleName: r.RoleName, Description: r.Description})
	}
	for _, p := range g.Permissions {
		d.Permissions = append(d.Permissions, PermissionSummary{ID: p.ID, PermissionName: p.PermissionName, Description: p.Description})
	}
	for _, c := range g.Companies {
		d.Companies = append(d.Companies, CompanySummary{ID: c.ID, CompanyCode: c.CompanyCode, CompanyName: c.CompanyName})
	}
	return d
}
