package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/frahmantamala/access-control/internal/auth"
	"github.com/frahmantamala/access-control/internal/core/datamodel/access"
	"gorm.io/gorm"
)

type Repository struct {
	db     *gorm.DB
	txOpts *sql.TxOptions
}

// NewRepository takes the isolation level used for verification reads.
// A nil txOpts uses the driver default.
func NewRepository(db *gorm.DB, txOpts *sql.TxOptions) *Repository {
	return &Repository{db: db, txOpts: txOpts}
}

func (r *Repository) readOnly() *sql.TxOptions {
	if r.txOpts == nil {
		return nil
	}
	opts := *r.txOpts
	opts.ReadOnly = true
	return &opts
}

func (r *Repository) FindIdentity(ctx context.Context, identifier string) (*access.User, error) {
	if identifier == "" {
		return nil, nil
	}

	var users []access.User
	err := r.db.WithContext(ctx).
		Where("(user_name = ? OR LOWER(email) = LOWER(?)) AND is_active = ?", identifier, identifier, true).
		Limit(2).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	if len(users) != 1 {
		return nil, nil
	}
	return &users[0], nil
}

func (r *Repository) FindActiveUser(ctx context.Context, userID int64) (*access.User, error) {
	var user access.User
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", userID, true).
		Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) LoadGrants(ctx context.Context, userID int64) (*auth.Grants, error) {
	return loadGrants(r.db.WithContext(ctx), userID)
}

func (r *Repository) CreateToken(ctx context.Context, token *access.AccessToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *Repository) VerifyToken(ctx context.Context, token string, now time.Time) (*access.User, *auth.Grants, error) {
	var (
		user   *access.User
		grants *auth.Grants
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var found access.User
		err := tx.Model(&access.User{}).
			Select("users.*").
			Joins("JOIN access_tokens ON access_tokens.user_id = users.id").
			Where("access_tokens.token = ?", token).
			Where("access_tokens.expires_at > ?", now).
			Where("users.is_active = ?", true).
			Take(&found).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		g, err := loadGrants(tx, found.ID)
		if err != nil {
			return err
		}
		user, grants = &found, g
		return nil
	}, r.readOnly())
	if err != nil {
		return nil, nil, err
	}
	return user, grants, nil
}

func (r *Repository) DeleteToken(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).
		Where("token = ?", token).
		Delete(&access.AccessToken{}).Error
}

func (r *Repository) DeleteUserTokens(ctx context.Context, userID int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&access.AccessToken{})
	return res.RowsAffected, res.Error
}

func (r *Repository) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&access.AccessToken{})
	return res.RowsAffected, res.Error
}

// loadGrants reads only live assignments: the junction row and both ends must be active.
func loadGrants(tx *gorm.DB, userID int64) (*auth.Grants, error) {
	var g auth.Grants

	err := tx.Model(&access.Role{}).
		Distinct("roles.id", "roles.role_name", "roles.description").
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ? AND user_roles.is_active = ? AND roles.is_active = ?", userID, true, true).
		Order("roles.id").
		Find(&g.Roles).Error
	if err != nil {
		return nil, err
	}

	err = tx.Model(&access.Permission{}).
		Distinct("permissions.id", "permissions.permission_name", "permissions.description").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN roles ON roles.id = role_permissions.role_id").
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ? AND user_roles.is_active = ?", userID, true).
		Where("roles.is_active = ? AND role_permissions.is_active = ? AND permissions.is_active = ?", true, true, true).
		Order("permissions.id").
		Find(&g.Permissions).Error
	if err != nil {
		return nil, err
	}

	err = tx.Model(&access.Company{}).
		Distinct("companies.id", "companies.company_code", "companies.company_name").
		Joins("JOIN user_companies ON user_companies.company_id = companies.id").
		Where("user_companies.user_id = ? AND user_companies.is_active = ? AND companies.is_active = ?", userID, true, true).
		Order("companies.id").
		Find(&g.Companies).Error
	if err != nil {
		return nil, err
	}

	return &g, nil
}
