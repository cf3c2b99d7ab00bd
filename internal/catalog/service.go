package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/frahmantamala/access-control/internal/ability"
)

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) Roles(ctx context.Context) (*RolesResponse, error) {
	roles, err := s.repo.ActiveRoles(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to get roles from repository", "error", err)
		return nil, fmt.Errorf("list roles: %w", err)
	}

	resp := &RolesResponse{Roles: make([]RoleResponse, 0, len(roles))}
	for _, r := range roles {
		resp.Roles = append(resp.Roles, RoleResponse{ID: r.ID, RoleName: r.RoleName, Description: r.Description})
	}
	return resp, nil
}

func (s *Service) Permissions(ctx context.Context) (*PermissionsResponse, error) {
	perms, err := s.repo.ActivePermissions(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to get permissions from repository", "error", err)
		return nil, fmt.Errorf("list permissions: %w", err)
	}

	resp := &PermissionsResponse{Permissions: make([]PermissionResponse, 0, len(perms))}
	for _, p := range perms {
		resp.Permissions = append(resp.Permissions, PermissionResponse{ID: p.ID, PermissionName: p.PermissionName, Description: p.Description})
	}
	return resp, nil
}

// Seed applies plan idempotently and reports the stored ids.
func (s *Service) Seed(ctx context.Context, plan SeedPlan) (*SeedResult, error) {
	res := &SeedResult{
		Roles:       make(map[ability.Role]int64, len(plan.Roles)),
		Permissions: make(map[ability.Permission]int64, len(plan.Permissions)),
		Companies:   make(map[string]int64, len(plan.Companies)),
	}

	for _, r := range plan.Roles {
		row, err := s.repo.EnsureRole(ctx, string(r), r.Description())
		if err != nil {
			return nil, fmt.Errorf("seed role %s: %w", r, err)
		}
		res.Roles[r] = row.ID
	}

	for _, p := range plan.Permissions {
		row, err := s.repo.EnsurePermission(ctx, string(p), p.Description())
		if err != nil {
			return nil, fmt.Errorf("seed permission %s: %w", p, err)
		}
		res.Permissions[p] = row.ID
	}

	roles := make([]ability.Role, 0, len(plan.Grants))
	for r := range plan.Grants {
		roles = append(roles, r)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })

	for _, r := range roles {
		roleID, ok := res.Roles[r]
		if !ok {
			return nil, fmt.Errorf("seed grants: role %s is not part of the plan", r)
		}
		for _, p := range plan.Grants[r] {
			permID, ok := res.Permissions[p]
			if !ok {
				return nil, fmt.Errorf("seed grants: permission %s is not part of the plan", p)
			}
			if err := s.repo.EnsureRolePermission(ctx, roleID, permID); err != nil {
				return nil, fmt.Errorf("seed grant %s -> %s: %w", r, p, err)
			}
		}
		s.logger.InfoContext(ctx, "mapped permissions", "role", r, "count", len(plan.Grants[r]))
	}

	for _, c := range plan.Companies {
		row, err := s.repo.EnsureCompany(ctx, c.Code, c.Name)
		if err != nil {
			return nil, fmt.Errorf("seed company %s: %w", c.Code, err)
		}
		res.Companies[c.Code] = row.ID
	}

	return res, nil
}
