package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/frahmantamala/access-control/internal"
	"github.com/frahmantamala/access-control/internal/auth"
	"github.com/frahmantamala/access-control/internal/core/common/validation"
	"github.com/frahmantamala/access-control/internal/core/datamodel/access"
	"github.com/frahmantamala/access-control/internal/core/events"
)

type Service struct {
	repo     RepositoryAPI
	grants   GrantReader
	hasher   auth.PasswordHasher
	sessions SessionRevoker
	logger   *slog.Logger
}

func NewService(repo RepositoryAPI, grants GrantReader, hasher auth.PasswordHasher, sessions SessionRevoker, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		grants:   grants,
		hasher:   hasher,
		sessions: sessions,
		logger:   logger,
	}
}

func (s *Service) List(ctx context.Context, q ListQuery) (*ListResponse, error) {
	page, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, wrap("list users", err)
	}

	items := make([]UserListItem, 0, len(page.Data))
	for _, u := range page.Data {
		items = append(items, ToListItem(u))
	}
	return &ListResponse{Data: items, Cursor: page.Cursor}, nil
}

func (s *Service) Detail(ctx context.Context, id int64) (*UserDetail, error) {
	u, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, u)
}

func (s *Service) Create(ctx context.Context, dto CreateUserDTO) (*UserDetail, error) {
	if verr := validation.Struct(dto); verr != nil {
		return nil, verr
	}
	if err := s.ensureUnique(ctx, dto.UserName, dto.Email, 0); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(dto.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &access.User{
		UserName: dto.UserName,
		FullName: dto.FullName,
		Email:    dto.Email,
		Password: hash,
		IsActive: dto.IsActive == nil || *dto.IsActive,
	}
	if err := s.repo.Create(ctx, u, unique(dto.RoleIDs), unique(dto.CompanyIDs)); err != nil {
		return nil, wrap("create user", err)
	}

	s.logger.InfoContext(ctx, "user created", "user_id", u.ID, "user_name", u.UserName)
	return s.detail(ctx, u)
}

func (s *Service) Update(ctx context.Context, id int64, dto UpdateUserDTO) (*UserDetail, error) {
	if verr := validation.Struct(dto); verr != nil {
		return nil, verr
	}

	u, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	var userName, email string
	if dto.UserName != nil && *dto.UserName != u.UserName {
		userName = *dto.UserName
	}
	if dto.Email != nil && !strings.EqualFold(*dto.Email, u.Email) {
		email = *dto.Email
	}
	if err := s.ensureUnique(ctx, userName, email, u.ID); err != nil {
		return nil, err
	}

	wasActive := u.IsActive
	if dto.UserName != nil {
		u.UserName = *dto.UserName
	}
	if dto.FullName != nil {
		u.FullName = *dto.FullName
	}
	if dto.Email != nil {
		u.Email = *dto.Email
	}
	if dto.IsActive != nil {
		u.IsActive = *dto.IsActive
	}
	if dto.Image != nil {
		u.Image = dto.Image
	}

	if err := s.repo.Save(ctx, u); err != nil {
		return nil, wrap("update user", err)
	}

	if wasActive && !u.IsActive {
		if err := s.revoke(ctx, u.ID, events.RevokeReasonDeactivated); err != nil {
			return nil, err
		}
	}
	return s.detail(ctx, u)
}

// Delete deactivates the user. Rows are never removed.
func (s *Service) Delete(ctx context.Context, id int64) error {
	u, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	u.IsActive = false
	if err := s.repo.Save(ctx, u); err != nil {
		return wrap("deactivate user", err)
	}
	return s.revoke(ctx, u.ID, events.RevokeReasonDeactivated)
}

func (s *Service) AssignRoles(ctx context.Context, id int64, dto AssignRolesDTO) error {
	if verr := validation.Struct(dto); verr != nil {
		return verr
	}
	if err := s.repo.ReplaceRoles(ctx, id, unique(dto.RoleIDs)); err != nil {
		return wrap("replace roles", err)
	}
	return s.revoke(ctx, id, events.RevokeReasonRolesReplaced)
}

func (s *Service) AssignCompanies(ctx context.Context, id int64, dto AssignCompaniesDTO) error {
	if verr := validation.Struct(dto); verr != nil {
		return verr
	}
	if err := s.repo.ReplaceCompanies(ctx, id, unique(dto.CompanyIDs)); err != nil {
		return wrap("replace companies", err)
	}
	return s.revoke(ctx, id, events.RevokeReasonCompaniesReplaced)
}

func (s *Service) ChangePassword(ctx context.Context, id int64, dto ChangePasswordDTO) error {
	if verr := validation.Struct(dto); verr != nil {
		return verr
	}
	if _, err := s.find(ctx, id); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(dto.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, id, hash); err != nil {
		return wrap("update password", err)
	}
	return s.revoke(ctx, id, events.RevokeReasonPasswordChanged)
}

func (s *Service) find(ctx context.Context, id int64) (*access.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if u == nil {
		return nil, internal.ErrUserNotFound
	}
	return u, nil
}

func (s *Service) detail(ctx context.Context, u *access.User) (*UserDetail, error) {
	g, err := s.grants.LoadGrants(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("load grants: %w", err)
	}
	d := ToDetail(u, g)
	return &d, nil
}

// ensureUnique checks the non-empty values against every user except exceptID.
func (s *Service) ensureUnique(ctx context.Context, userName, email string, exceptID int64) error {
	if userName != "" {
		taken, err := s.repo.ExistsUserName(ctx, userName, exceptID)
		if err != nil {
			return fmt.Errorf("check user name: %w", err)
		}
		if taken {
			return internal.ErrUsernameTaken
		}
	}
	if email != "" {
		taken, err := s.repo.ExistsEmail(ctx, email, exceptID)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if taken {
			return internal.ErrEmailTaken
		}
	}
	return nil
}

func (s *Service) revoke(ctx context.Context, userID int64, reason string) error {
	n, err := s.sessions.RevokeAllUserTokens(ctx, userID, reason)
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "user sessions revoked", "user_id", userID, "reason", reason, "count", n)
	return nil
}

// wrap keeps AppErrors intact for the handler and annotates everything else.
func wrap(op string, err error) error {
	if _, ok := internal.IsAppError(err); ok {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

func unique(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
