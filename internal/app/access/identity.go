package access

import (
	"context"

	"leasehub/internal/domain/user"
)

// Identity is the authenticated caller as seen by the application layer.
type Identity struct {
	UserID        string
	Roles         []user.Role
	OwnerApproved bool
}

// IdentityOf builds the caller identity from a stored user.
func IdentityOf(u *user.User) Identity {
	if u == nil {
		return Identity{}
	}
	return Identity{
		UserID:        string(u.ID),
		Roles:         append([]user.Role(nil), u.Roles...),
		OwnerApproved: u.OwnerApproved,
	}
}

func (i Identity) Authenticated() bool {
	return i.UserID != ""
}

func (i Identity) Has(role user.Role) bool {
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (i Identity) IsAdmin() bool {
	return i.Has(user.RoleAdmin)
}

type ctxKey struct{}

func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok && id.Authenticated()
}
