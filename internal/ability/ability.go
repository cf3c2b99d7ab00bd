package ability

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/frahmantamala/access-control/pkg/logger"
)

const (
	companyPrefix    = "company:"
	permissionPrefix = "permission:"
)

type Kind int

const (
	KindRole Kind = iota + 1
	KindPermission
	KindCompany
)

// Ability is one decoded grant. Exactly one of Role, Permission or CompanyID
// is meaningful, selected by Kind.
type Ability struct {
	Kind       Kind
	Role       Role
	Permission Permission
	CompanyID  int64
}

func RoleAbility(r Role) Ability             { return Ability{Kind: KindRole, Role: r} }
func PermissionAbility(p Permission) Ability { return Ability{Kind: KindPermission, Permission: p} }
func CompanyAbility(id int64) Ability        { return Ability{Kind: KindCompany, CompanyID: id} }

// String renders the wire form: a bare role name, "company:<id>" or "permission:<name>".
func (a Ability) String() string {
	switch a.Kind {
	case KindRole:
		return string(a.Role)
	case KindPermission:
		return permissionPrefix + string(a.Permission)
	case KindCompany:
		return companyPrefix + strconv.FormatInt(a.CompanyID, 10)
	default:
		return ""
	}
}

// Grants is the live role, permission and company graph of one user.
type Grants struct {
	Roles       []string
	Permissions []string
	CompanyIDs  []int64
}

// Build flattens grants into the sorted, duplicate-free wire list.
// Empty names and non-positive company ids are skipped.
func Build(g Grants) []string {
	seen := make(map[string]struct{}, len(g.Roles)+len(g.Permissions)+len(g.CompanyIDs))

	for _, r := range g.Roles {
		if r != "" {
			seen[RoleAbility(Role(r)).String()] = struct{}{}
		}
	}
	for _, id := range g.CompanyIDs {
		if id > 0 {
			seen[CompanyAbility(id).String()] = struct{}{}
		}
	}
	for _, p := range g.Permissions {
		if p != "" {
			seen[PermissionAbility(Permission(p)).String()] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Decode classifies a single wire entry. The second result reports why an
// entry was rejected; it is empty on success.
func Decode(raw string) (Ability, DropReason) {
	if raw == "" {
		return Ability{}, DropEmpty
	}

	if r := Role(raw); r.Known() {
		return RoleAbility(r), ""
	}

	if rest, ok := strings.CutPrefix(raw, companyPrefix); ok {
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil || id <= 0 {
			return Ability{}, DropMalformedCompany
		}
		return CompanyAbility(id), ""
	}

	if rest, ok := strings.CutPrefix(raw, permissionPrefix); ok {
		if p := Permission(rest); p.Known() {
			return PermissionAbility(p), ""
		}
		return Ability{}, DropUnknownPermission
	}

	return Ability{}, DropUnrecognized
}

// Set is the parsed form used for membership checks.
type Set struct {
	Roles       map[Role]struct{}
	Permissions map[Permission]struct{}
	Companies   map[int64]struct{}
}

func NewSet() Set {
	return Set{
		Roles:       make(map[Role]struct{}),
		Permissions: make(map[Permission]struct{}),
		Companies:   make(map[int64]struct{}),
	}
}

func (s Set) Add(a Ability) {
	switch a.Kind {
	case KindRole:
		s.Roles[a.Role] = struct{}{}
	case KindPermission:
		s.Permissions[a.Permission] = struct{}{}
	case KindCompany:
		s.Companies[a.CompanyID] = struct{}{}
	}
}

func (s Set) HasRole(r Role) bool {
	_, ok := s.Roles[r]
	return ok
}

func (s Set) HasPermission(p Permission) bool {
	_, ok := s.Permissions[p]
	return ok
}

func (s Set) HasCompany(id int64) bool {
	_, ok := s.Companies[id]
	return ok
}

// Abilities re-encodes the set into the wire list.
func (s Set) Abilities() []string {
	g := Grants{
		Roles:       make([]string, 0, len(s.Roles)),
		Permissions: make([]string, 0, len(s.Permissions)),
		CompanyIDs:  make([]int64, 0, len(s.Companies)),
	}
	for r := range s.Roles {
		g.Roles = append(g.Roles, string(r))
	}
	for p := range s.Permissions {
		g.Permissions = append(g.Permissions, string(p))
	}
	for id := range s.Companies {
		g.CompanyIDs = append(g.CompanyIDs, id)
	}
	return Build(g)
}

// Parse decodes a wire list into a Set. It never fails: malformed or unknown
// entries are dropped and counted.
func Parse(ctx context.Context, abilities []string) Set {
	set := NewSet()
	for _, raw := range abilities {
		a, reason := Decode(raw)
		if reason != "" {
			recordDrop(ctx, raw, reason)
			continue
		}
		set.Add(a)
	}
	return set
}

func recordDrop(ctx context.Context, raw string, reason DropReason) {
	droppedEntries.WithLabelValues(string(reason)).Inc()
	logger.From(ctx).Debug("ability entry dropped",
		"entry", raw,
		"reason", reason)
}
