package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/frahmantamala/access-control/internal"
	"github.com/frahmantamala/access-control/internal/core/datamodel/access"
	"github.com/frahmantamala/access-control/internal/pagination"
	"github.com/frahmantamala/access-control/internal/user"
	"gorm.io/gorm"
)

var (
	userRoles = pagination.Relation{
		Table:       "user_roles",
		OwnerColumn: "user_id",
		OwnerRef:    "users.id",
		KeyColumn:   "role_id",
		Target:      "roles",
	}
	userCompanies = pagination.Relation{
		Table:       "user_companies",
		OwnerColumn: "user_id",
		OwnerRef:    "users.id",
		KeyColumn:   "company_id",
		Target:      "companies",
	}
)

type Repository struct {
	db     *gorm.DB
	txOpts *sql.TxOptions
}

// NewRepository takes the isolation level for multi-step writes. A nil
// txOpts uses the driver default.
func NewRepository(db *gorm.DB, txOpts *sql.TxOptions) *Repository {
	return &Repository{db: db, txOpts: txOpts}
}

func (r *Repository) List(ctx context.Context, q user.ListQuery) (pagination.Page[access.User], error) {
	db := r.db.WithContext(ctx)

	filtered := pagination.Apply(db.Model(&access.User{}),
		pagination.Search(q.Search, "users.user_name", "users.full_name", "users.email"),
		pagination.Equals("users.is_active", q.IsActive),
		pagination.Exists(userRoles, q.RoleID),
		pagination.Exists(userCompanies, q.CompanyID),
	)

	keys, err := pagination.Keys(filtered, "users.id", q.Page)
	if err != nil {
		return pagination.Page[access.User]{}, err
	}

	page := pagination.Page[access.User]{Data: []access.User{}, Cursor: keys.Cursor}
	if len(keys.Data) == 0 {
		return page, nil
	}

	var users []access.User
	err = db.Preload("UserRoles", "is_active = ?", true).
		Preload("UserRoles.Role", "is_active = ?", true).
		Preload("UserCompanies", "is_active = ?", true).
		Preload("UserCompanies.Company", "is_active = ?", true).
		Where("users.id IN ?", keys.Data).
		Find(&users).Error
	if err != nil {
		return pagination.Page[access.User]{}, err
	}

	page.Data = pagination.Reorder(keys.Data, users, func(u access.User) int64 { return u.ID })
	return page, nil
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*access.User, error) {
	var u access.User
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repository) ExistsUserName(ctx context.Context, userName string, exceptID int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&access.User{}).
		Where("user_name = ? AND id <> ?", userName, exceptID).
		Count(&n).Error
	return n > 0, err
}

func (r *Repository) ExistsEmail(ctx context.Context, email string, exceptID int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&access.User{}).
		Where("LOWER(email) = LOWER(?) AND id <> ?", email, exceptID).
		Count(&n).Error
	return n > 0, err
}

func (r *Repository) Create(ctx context.Context, u *access.User, roleIDs, companyIDs []int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireActive(tx, &access.Role{}, roleIDs, internal.ErrRoleNotFound); err != nil {
			return err
		}
		if err := requireActive(tx, &access.Company{}, companyIDs, internal.ErrCompanyNotFound); err != nil {
			return err
		}

		if err := tx.Create(u).Error; err != nil {
			return err
		}
		if err := insertRoles(tx, u.ID, roleIDs); err != nil {
			return err
		}
		return insertCompanies(tx, u.ID, companyIDs)
	}, r.txOpts)
	return r.conflict(ctx, u, 0, err)
}

func (r *Repository) Save(ctx context.Context, u *access.User) error {
	err := r.db.WithContext(ctx).Model(u).
		Select("user_name", "full_name", "email", "is_active", "image", "updated_at").
		Updates(u).Error
	return r.conflict(ctx, u, u.ID, err)
}

func (r *Repository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	res := r.db.WithContext(ctx).Model(&access.User{}).
		Where("id = ?", id).
		Update("password", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrUserNotFound
	}
	return nil
}

func (r *Repository) ReplaceRoles(ctx context.Context, userID int64, roleIDs []int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireUser(tx, userID); err != nil {
			return err
		}
		if err := requireActive(tx, &access.Role{}, roleIDs, internal.ErrRoleNotFound); err != nil {
			return err
		}
		err := tx.Model(&access.UserRole{}).
			Where("user_id = ?", userID).
			Update("is_active", false).Error
		if err != nil {
			return err
		}
		return insertRoles(tx, userID, roleIDs)
	}, r.txOpts)
}

func (r *Repository) ReplaceCompanies(ctx context.Context, userID int64, companyIDs []int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireUser(tx, userID); err != nil {
			return err
		}
		if err := requireActive(tx, &access.Company{}, companyIDs, internal.ErrCompanyNotFound); err != nil {
			return err
		}
		err := tx.Model(&access.UserCompany{}).
			Where("user_id = ?", userID).
			Update("is_active", false).Error
		if err != nil {
			return err
		}
		return insertCompanies(tx, userID, companyIDs)
	}, r.txOpts)
}

func requireUser(tx *gorm.DB, userID int64) error {
	var n int64
	if err := tx.Model(&access.User{}).Where("id = ?", userID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return internal.ErrUserNotFound
	}
	return nil
}

// requireActive fails with notFound unless every id names an active row. ids
// must be distinct.
func requireActive(tx *gorm.DB, model interface{}, ids []int64, notFound error) error {
	if len(ids) == 0 {
		return nil
	}
	var n int64
	err := tx.Model(model).
		Where("id IN ? AND is_active = ?", ids, true).
		Count(&n).Error
	if err != nil {
		return err
	}
	if n != int64(len(ids)) {
		return notFound
	}
	return nil
}

func insertRoles(tx *gorm.DB, userID int64, roleIDs []int64) error {
	if len(roleIDs) == 0 {
		return nil
	}
	rows := make([]access.UserRole, 0, len(roleIDs))
	for _, id := range roleIDs {
		rows = append(rows, access.UserRole{UserID: userID, RoleID: id, IsActive: true})
	}
	return tx.Create(&rows).Error
}

func insertCompanies(tx *gorm.DB, userID int64, companyIDs []int64) error {
	if len(companyIDs) == 0 {
		return nil
	}
	rows := make([]access.UserCompany, 0, len(companyIDs))
	for _, id := range companyIDs {
		rows = append(rows, access.UserCompany{UserID: userID, CompanyID: id, IsActive: true})
	}
	return tx.Create(&rows).Error
}

// conflict maps a unique violation that slipped past the service checks to
// the column that collided. It runs after the failed statement's transaction
// has ended.
func (r *Repository) conflict(ctx context.Context, u *access.User, exceptID int64, err error) error {
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}
	if taken, lookupErr := r.ExistsUserName(ctx, u.UserName, exceptID); lookupErr == nil && taken {
		return internal.ErrUsernameTaken
	}
	if taken, lookupErr := r.ExistsEmail(ctx, u.Email, exceptID); lookupErr == nil && taken {
		return internal.ErrEmailTaken
	}
	return internal.NewConflictError("User name or email already taken", internal.ErrCodeUsernameTaken)
}
