package auth

import (
	"context"
	"time"

	"github.com/frahmantamala/access-control/internal/ability"
	"github.com/frahmantamala/access-control/internal/core/datamodel/access"
)

// DefaultTokenTTL is how long an issued session stays valid.
const DefaultTokenTTL = 24 * time.Hour

// UserData is the outcome of a successful token verification.
type UserData struct {
	UserID    int64    `json:"userId"`
	UserName  string   `json:"userName"`
	FullName  string   `json:"fullName"`
	Email     string   `json:"email"`
	IsActive  bool     `json:"isActive"`
	Abilities []string `json:"abilities"`
}

type IssuedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Grants are the live roles, permissions and companies of one user.
type Grants struct {
	Roles       []access.Role
	Permissions []access.Permission
	Companies   []access.Company
}

func (g Grants) Abilities() []string {
	in := ability.Grants{
		Roles:       make([]string, 0, len(g.Roles)),
		Permissions: make([]string, 0, len(g.Permissions)),
		CompanyIDs:  make([]int64, 0, len(g.Companies)),
	}
	for _, r := range g.Roles {
		in.Roles = append(in.Roles, r.RoleName)
	}
	for _, p := range g.Permissions {
		in.Permissions = append(in.Permissions, p.PermissionName)
	}
	for _, c := range g.Companies {
		in.CompanyIDs = append(in.CompanyIDs, c.ID)
	}
	return ability.Build(in)
}

// RepositoryAPI is the datastore contract of the token store and session verifier.
type RepositoryAPI interface {
	// FindIdentity resolves identifier to exactly one active user by user name
	// or email. It returns nil when there is no match or more than one.
	FindIdentity(ctx context.Context, identifier string) (*access.User, error)
	FindActiveUser(ctx context.Context, userID int64) (*access.User, error)
	LoadGrants(ctx context.Context, userID int64) (*Grants, error)

	CreateToken(ctx context.Context, token *access.AccessToken) error
	// VerifyToken returns the owner and live grants of an unexpired token
	// whose owner is active, or nil when any of that does not hold.
	VerifyToken(ctx context.Context, token string, now time.Time) (*access.User, *Grants, error)
	DeleteToken(ctx context.Context, token string) error
	DeleteUserTokens(ctx context.Context, userID int64) (int64, error)
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

// PasswordHasher is a one-way salted hash with constant-time verification.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}
