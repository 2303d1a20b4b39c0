package auth

import (
	"context"

	"github.com/dukerupert/choreadmin/internal/model"
)

type contextKey struct{}

// Principal is the session context of the current request. A zero Principal
// (no User) is an anonymous visitor.
type Principal struct {
	User      *model.User
	SessionID int64
}

func (p *Principal) IsAuthenticated() bool {
	return p != nil && p.User != nil
}

func (p *Principal) IsActive() bool {
	return p.IsAuthenticated() && p.User.IsActive()
}

func (p *Principal) HasRole(name string) bool {
	return p.IsAuthenticated() && p.User.HasRole(name)
}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext returns the request principal, or nil when none was loaded.
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(contextKey{}).(*Principal)
	return p
}

func UserID(ctx context.Context) int64 {
	p := FromContext(ctx)
	if !p.IsAuthenticated() {
		return 0
	}
	return p.User.ID
}
