package admin

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"leasehub/internal/app/access"
	"leasehub/internal/app/commands"
	"leasehub/internal/app/dto"
	"leasehub/internal/app/outbox"
	"leasehub/internal/app/queries"
	"leasehub/internal/app/uow"
	"leasehub/internal/clock"
	domainuser "leasehub/internal/domain/user"
)

const (
	approveOwnerKey      = "admin.approve_owner"
	listUsersKey         = "admin.list_users"
	listPendingOwnersKey = "admin.list_pending_owners"
)

// ApproveOwnerCommand grants the owner capability to a user who registered
// as an owner. Approving twice is a no-op.
type ApproveOwnerCommand struct {
	Identity access.Identity `json:"-"`
	UserID   string          `json:"user_id" validate:"required"`
}

func (c ApproveOwnerCommand) Key() string                 { return approveOwnerKey }
func (c ApproveOwnerCommand) Actor() access.Identity      { return c.Identity }
func (c ApproveOwnerCommand) Requires() access.Capability { return access.CapabilityAdmin }

type ApproveOwnerHandler struct {
	Clock   clock.Clock
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

func (h *ApproveOwnerHandler) Handle(ctx context.Context, cmd ApproveOwnerCommand) (dto.UserProfile, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return dto.UserProfile{}, uow.ErrUnitOfWorkMissing
	}
	target, err := unit.Users().ByID(ctx, domainuser.ID(strings.TrimSpace(cmd.UserID)))
	if err != nil {
		return dto.UserProfile{}, err
	}
	if target.OwnerApproved {
		return dto.MapUserProfile(target), nil
	}
	if err := target.ApproveOwner(domainuser.ID(cmd.Identity.UserID), clock.OrSystem(h.Clock).Now()); err != nil {
		return dto.UserProfile{}, err
	}
	if err := unit.Users().Save(ctx, target); err != nil {
		return dto.UserProfile{}, err
	}
	if err := outbox.Record(ctx, unit.Outbox(), h.Encoder, target); err != nil {
		return dto.UserProfile{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("owner approved", "user_id", target.ID, "approved_by", cmd.Identity.UserID)
	}
	return dto.MapUserProfile(target), nil
}

type ListUsersQuery struct {
	Identity access.Identity `json:"-"`
}

func (q ListUsersQuery) Key() string                 { return listUsersKey }
func (q ListUsersQuery) Actor() access.Identity      { return q.Identity }
func (q ListUsersQuery) Requires() access.Capability { return access.CapabilityAdmin }

type ListUsersHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListUsersHandler) Handle(ctx context.Context, _ ListUsersQuery) (dto.UserCollection, error) {
	unit, execCtx, release, err := uow.ReadOnly(ctx, h.UoWFactory)
	if err != nil {
		return dto.UserCollection{}, err
	}
	defer release()

	users, err := unit.Users().List(execCtx)
	if err != nil {
		return dto.UserCollection{}, err
	}
	items := make([]dto.UserProfile, 0, len(users))
	for _, u := range users {
		items = append(items, dto.MapUserProfile(u))
	}
	return dto.UserCollection{Items: items}, nil
}

// ListPendingOwnersQuery returns owner registrations still awaiting
// approval, newest first.
type ListPendingOwnersQuery struct {
	Identity access.Identity `json:"-"`
}

func (q ListPendingOwnersQuery) Key() string                 { return listPendingOwnersKey }
func (q ListPendingOwnersQuery) Actor() access.Identity      { return q.Identity }
func (q ListPendingOwnersQuery) Requires() access.Capability { return access.CapabilityAdmin }

type ListPendingOwnersHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListPendingOwnersHandler) Handle(ctx context.Context, _ ListPendingOwnersQuery) (dto.UserCollection, error) {
	unit, execCtx, release, err := uow.ReadOnly(ctx, h.UoWFactory)
	if err != nil {
		return dto.UserCollection{}, err
	}
	defer release()

	users, err := unit.Users().List(execCtx)
	if err != nil {
		return dto.UserCollection{}, err
	}
	pending := make([]*domainuser.User, 0)
	for _, u := range users {
		if u.HasRole(domainuser.RoleOwner) && !u.OwnerApproved {
			pending = append(pending, u)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool { return pending[i].CreatedAt.After(pending[j].CreatedAt) })

	items := make([]dto.UserProfile, 0, len(pending))
	for _, u := range pending {
		items = append(items, dto.MapUserProfile(u))
	}
	return dto.UserCollection{Items: items}, nil
}

var (
	_ commands.Handler[ApproveOwnerCommand, dto.UserProfile]      = (*ApproveOwnerHandler)(nil)
	_ queries.Handler[ListUsersQuery, dto.UserCollection]         = (*ListUsersHandler)(nil)
	_ queries.Handler[ListPendingOwnersQuery, dto.UserCollection] = (*ListPendingOwnersHandler)(nil)
	_ access.Restricted                                           = ApproveOwnerCommand{}
	_ access.Restricted                                           = ListUsersQuery{}
	_ access.Restricted                                           = ListPendingOwnersQuery{}
)
