package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/access-control/internal/core/datamodel/access"
	"gorm.io/gorm"
)

type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) ActiveRoles(ctx context.Context) ([]access.Role, error) {
	var roles []access.Role
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("role_name ASC").Find(&roles).Error
	return roles, err
}

func (r *CatalogRepository) ActivePermissions(ctx context.Context) ([]access.Permission, error) {
	var perms []access.Permission
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("permission_name ASC").Find(&perms).Error
	return perms, err
}

func (r *CatalogRepository) EnsureRole(ctx context.Context, name, description string) (*access.Role, error) {
	var role access.Role
	err := r.db.WithContext(ctx).Where("role_name = ?", name).Take(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		role = access.Role{RoleName: name, Description: description, IsActive: true}
		err = r.db.WithContext(ctx).Create(&role).Error
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *CatalogRepository) EnsurePermission(ctx context.Context, name, description string) (*access.Permission, error) {
	var perm access.Permission
	err := r.db.WithContext(ctx).Where("permission_name = ?", name).Take(&perm).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		perm = access.Permission{PermissionName: name, Description: description, IsActive: true}
		err = r.db.WithContext(ctx).Create(&perm).Error
	}
	if err != nil {
		return nil, err
	}
	return &perm, nil
}

func (r *CatalogRepository) EnsureRolePermission(ctx context.Context, roleID, permissionID int64) error {
	var n int64
	err := r.db.WithContext(ctx).Model(&access.RolePermission{}).
		Where("role_id = ? AND permission_id = ?", roleID, permissionID).
		Count(&n).Error
	if err != nil || n > 0 {
		return err
	}
	return r.db.WithContext(ctx).Create(&access.RolePermission{RoleID: roleID, PermissionID: permissionID, IsActive: true}).Error
}

func (r *CatalogRepository) EnsureCompany(ctx context.Context, code, name string) (*access.Company, error) {
	var company access.Company
	err := r.db.WithContext(ctx).Where("company_code = ?", code).Take(&company).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		company = access.Company{CompanyCode: code, CompanyName: name, IsActive: true}
		err = r.db.WithContext(ctx).Create(&company).Error
	}
	if err != nil {
		return nil, err
	}
	return &company, nil
}
