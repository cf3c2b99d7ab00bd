package user

import (
	"context"

	"github.com/frahmantamala/access-control/internal/auth"
	"github.com/frahmantamala/access-control/internal/core/datamodel/access"
	"github.com/frahmantamala/access-control/internal/pagination"
)

// ListQuery combines a page request with the directory filters. Zero
// values disable a filter.
type ListQuery struct {
	Page      pagination.Query
	Search    string
	IsActive  *bool
	RoleID    int64
	CompanyID int64
}

type RepositoryAPI interface {
	// List returns users hydrated with their live roles and companies, in page order.
	List(ctx context.Context, q ListQuery) (pagination.Page[access.User], error)
	FindByID(ctx context.Context, id int64) (*access.User, error)
	ExistsUserName(ctx context.Context, userName string, exceptID int64) (bool, error)
	ExistsEmail(ctx context.Context, email string, exceptID int64) (bool, error)

	// Create inserts the user and its initial assignments atomically. Unknown
	// or inactive ids reject the whole operation.
	Create(ctx context.Context, u *access.User, roleIDs, companyIDs []int64) error
	Save(ctx context.Context, u *access.User) error
	UpdatePassword(ctx context.Context, id int64, hash string) error

	// ReplaceRoles deactivates every current assignment and inserts the new
	// set in one transaction.
	ReplaceRoles(ctx context.Context, userID int64, roleIDs []int64) error
	ReplaceCompanies(ctx context.Context, userID int64, companyIDs []int64) error
}

// GrantReader loads the live grants behind a user's abilities.
type GrantReader interface {
	LoadGrants(ctx context.Context, userID int64) (*auth.Grants, error)
}

// SessionRevoker ends every session of a user after a security-relevant change.
type SessionRevoker interface {
	RevokeAllUserTokens(ctx context.Context, userID int64, reason string) (int64, error)
}
