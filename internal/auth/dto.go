package auth

import (
	"time"

	"github.com/frahmantamala/access-control/internal/core/datamodel/access"
)

// LoginDTO accepts either a user name or an email as identifier.
type LoginDTO struct {
	Identifier string `json:"identifier" validate:"required,max=255"`
	Password   string `json:"password" validate:"required"`
}

type RoleDTO struct {
	ID       int64  `json:"id"`
	RoleName string `json:"roleName"`
}

type PermissionDTO struct {
	ID             int64  `json:"id"`
	PermissionName string `json:"permissionName"`
}

type CompanyDTO struct {
	ID          int64  `json:"id"`
	CompanyCode string `json:"companyCode"`
	CompanyName string `json:"companyName"`
}

type ProfileDTO struct {
	ID        int64     `json:"id"`
	UserName  string    `json:"userName"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"isActive"`
	Image     *string   `json:"image"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type LoginResponse struct {
	User        ProfileDTO      `json:"user"`
	Roles       []RoleDTO       `json:"roles"`
	Permissions []PermissionDTO `json:"permissions"`
	Companies   []CompanyDTO    `json:"companies"`
	Abilities   []string        `json:"abilities"`
	Token       string          `json:"token"`
	ExpiresAt   time.Time       `json:"expiresAt"`
}

type MeResponse struct {
	User      ProfileDTO `json:"user"`
	Abilities []string   `json:"abilities"`
}

func NewProfileDTO(u *access.User) ProfileDTO {
	return ProfileDTO{
		ID:        u.ID,
		UserName:  u.UserName,
		FullName:  u.FullName,
		Email:     u.Email,
		IsActive:  u.IsActive,
		Image:     u.Image,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func newGrantDTOs(g *Grants) ([]RoleDTO, []PermissionDTO, []CompanyDTO) {
	roles := make([]RoleDTO, 0, len(g.Roles))
	for _, r := range g.Roles {
		roles = append(roles, RoleDTO{ID: r.ID, RoleName: r.RoleName})
	}
	perms := make([]PermissionDTO, 0, len(g.Permissions))
	for _, p := range g.Permissions {
		perms = append(perms, PermissionDTO{ID: p.ID, PermissionName: p.PermissionName})
	}
	companies := make([]CompanyDTO, 0, len(g.Companies))
	for _, c := range g.Companies {
		companies = append(companies, CompanyDTO{ID: c.ID, CompanyCode: c.CompanyCode, CompanyName: c.CompanyName})
	}
	return roles, perms, companies
}
