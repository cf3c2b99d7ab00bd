package auth

import (
	"context"

	"github.com/frahmantamala/access-control/internal/ability"
)

type principalKey struct{}

// Principal is the verified caller of one request.
type Principal struct {
	User  UserData
	Token string
	Set   ability.Set
}

func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
