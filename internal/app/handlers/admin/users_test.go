package admin_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leasehub/internal/app/access"
	"leasehub/internal/app/commands"
	"leasehub/internal/app/dto"
	"leasehub/internal/app/handlers/admin"
	"leasehub/internal/app/queries"
	"leasehub/internal/app/uow"
	"leasehub/internal/app/wiring"
	"leasehub/internal/domain/shared/errs"
	"leasehub/internal/domain/user"
	"leasehub/internal/infra/storage/memory"
)

var adminID = access.Identity{UserID: "root", Roles: []user.Role{user.RoleAdmin}}

func seed(t *testing.T, f memory.Factory, id string, roles ...user.Role) {
	t.Helper()
	seedAt(t, f, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), id, roles...)
}

func seedAt(t *testing.T, f memory.Factory, at time.Time, id string, roles ...user.Role) {
	t.Helper()
	u, err := user.NewUser(user.CreateParams{
		ID:           user.ID(id),
		Email:        id + "@example.com",
		Name:         id,
		PasswordHash: "hash",
		Roles:        roles,
		CreatedAt:    at,
	})
	require.NoError(t, err)
	ctx := context.Background()
	unit, err := f.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Users().Save(ctx, u))
	require.NoError(t, unit.Commit(ctx))
}

func approve(b wiring.Buses, by access.Identity, id string) (dto.UserProfile, error) {
	return commands.Dispatch[admin.ApproveOwnerCommand, dto.UserProfile](context.Background(), b.Commands, admin.ApproveOwnerCommand{Identity: by, UserID: id})
}

func TestApproveOwner(t *testing.T) {
	t.Parallel()
	f := memory.Factory{Store: memory.NewStore(), Outbox: memory.NewOutbox()}
	seed(t, f, "olga", user.RoleRenter, user.RoleOwner)
	seed(t, f, "rui", user.RoleRenter)
	b := wiring.Build(wiring.Deps{UoWFactory: f})

	profile, err := approve(b, adminID, "olga")
	require.NoError(t, err)
	assert.True(t, profile.OwnerApproved)

	again, err := approve(b, adminID, "olga")
	require.NoError(t, err)
	assert.True(t, again.OwnerApproved)

	_, err = approve(b, adminID, "rui")
	assert.ErrorIs(t, err, user.ErrNotOwner)

	_, err = approve(b, adminID, "ghost")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = approve(b, access.Identity{UserID: "olga", Roles: []user.Role{user.RoleOwner}, OwnerApproved: true}, "olga")
	assert.ErrorIs(t, err, errs.ErrForbidden)
}

func TestListUsersIsAdminOnly(t *testing.T) {
	t.Parallel()
	f := memory.Factory{Store: memory.NewStore()}
	seed(t, f, "a", user.RoleRenter)
	seed(t, f, "b", user.RoleOwner)
	b := wiring.Build(wiring.Deps{UoWFactory: f})

	users, err := queries.Ask[admin.ListUsersQuery, dto.UserCollection](context.Background(), b.Queries, admin.ListUsersQuery{Identity: adminID})
	require.NoError(t, err)
	assert.Len(t, users.Items, 2)

	_, err = queries.Ask[admin.ListUsersQuery, dto.UserCollection](context.Background(), b.Queries, admin.ListUsersQuery{Identity: access.Identity{UserID: "a", Roles: []user.Role{user.RoleRenter}}})
	assert.ErrorIs(t, err, errs.ErrForbidden)
}

func TestPendingOwnersNewestFirst(t *testing.T) {
	t.Parallel()
	f := memory.Factory{Store: memory.NewStore()}
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	seedAt(t, f, day, "early", user.RoleOwner)
	seedAt(t, f, day.AddDate(0, 0, 2), "late", user.RoleOwner)
	seedAt(t, f, day.AddDate(0, 0, 1), "approved", user.RoleOwner)
	seedAt(t, f, day.AddDate(0, 0, 3), "tenant", user.RoleRenter)
	b := wiring.Build(wiring.Deps{UoWFactory: f})

	_, err := approve(b, adminID, "approved")
	require.NoError(t, err)

	pending, err := queries.Ask[admin.ListPendingOwnersQuery, dto.UserCollection](context.Background(), b.Queries, admin.ListPendingOwnersQuery{Identity: adminID})
	require.NoError(t, err)
	ids := make([]string, 0, len(pending.Items))
	for _, p := range pending.Items {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"late", "early"}, ids)

	_, err = queries.Ask[admin.ListPendingOwnersQuery, dto.UserCollection](context.Background(), b.Queries, admin.ListPendingOwnersQuery{Identity: access.Identity{UserID: "early", Roles: []user.Role{user.RoleOwner}}})
	assert.ErrorIs(t, err, errs.ErrForbidden)
}
