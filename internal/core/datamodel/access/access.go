package access

import "time"

// Boolean columns carry no gorm default so that an explicit false is
// persisted on insert instead of being replaced by the column default.

type User struct {
	ID        int64     `gorm:"primaryKey"`
	UserName  string    `gorm:"column:user_name;size:50;uniqueIndex;not null"`
	FullName  string    `gorm:"column:full_name;size:255"`
	Email     string    `gorm:"column:email;size:255;uniqueIndex;not null"`
	Password  string    `gorm:"column:password;size:255;not null"`
	IsActive  bool      `gorm:"column:is_active;not null"`
	Image     *string   `gorm:"column:image;size:500"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`

	UserRoles     []UserRole    `gorm:"foreignKey:UserID"`
	UserCompanies []UserCompany `gorm:"foreignKey:UserID"`
}

func (User) TableName() string { return "users" }

type Role struct {
	ID          int64     `gorm:"primaryKey"`
	RoleName    string    `gorm:"column:role_name;size:50;uniqueIndex;not null"`
	Description string    `gorm:"column:description"`
	IsActive    bool      `gorm:"column:is_active;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`

	RolePermissions []RolePermission `gorm:"foreignKey:RoleID"`
}

func (Role) TableName() string { return "roles" }

type Permission struct {
	ID             int64     `gorm:"primaryKey"`
	PermissionName string    `gorm:"column:permission_name;size:100;uniqueIndex;not null"`
	Description    string    `gorm:"column:description"`
	IsActive       bool      `gorm:"column:is_active;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Permission) TableName() string { return "permissions" }

type Company struct {
	ID          int64     `gorm:"primaryKey"`
	CompanyCode string    `gorm:"column:company_code;size:50;uniqueIndex;not null"`
	CompanyName string    `gorm:"column:company_name;size:255;not null"`
	IsActive    bool      `gorm:"column:is_active;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Company) TableName() string { return "companies" }

// UserRole is live only while IsActive is set here and on both the user and the role.
type UserRole struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    int64     `gorm:"column:user_id;index;not null"`
	RoleID    int64     `gorm:"column:role_id;index;not null"`
	IsActive  bool      `gorm:"column:is_active;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`

	Role *Role `gorm:"foreignKey:RoleID"`
}

func (UserRole) TableName() string { return "user_roles" }

type UserCompany struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    int64     `gorm:"column:user_id;index;not null"`
	CompanyID int64     `gorm:"column:company_id;index;not null"`
	IsActive  bool      `gorm:"column:is_active;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`

	Company *Company `gorm:"foreignKey:CompanyID"`
}

func (UserCompany) TableName() string { return "user_companies" }

type RolePermission struct {
	ID           int64     `gorm:"primaryKey"`
	RoleID       int64     `gorm:"column:role_id;index;not null"`
	PermissionID int64     `gorm:"column:permission_id;index;not null"`
	IsActive     bool      `gorm:"column:is_active;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`

	Permission *Permission `gorm:"foreignKey:PermissionID"`
}

func (RolePermission) TableName() string { return "role_permissions" }

type AccessToken struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    int64     `gorm:"column:user_id;index;not null"`
	Token     string    `gorm:"column:token;size:255;uniqueIndex;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;index;not null"`
	IPAddress *string   `gorm:"column:ip_address;size:45"`
	UserAgent *string   `gorm:"column:user_agent"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (AccessToken) TableName() string { return "access_tokens" }

// Models lists every table in dependency order, for AutoMigrate in tests.
func Models() []interface{} {
	return []interface{}{
		&User{},
		&Role{},
		&Permission{},
		&Company{},
		&UserRole{},
		&UserCompany{},
		&RolePermission{},
		&AccessToken{},
	}
}
