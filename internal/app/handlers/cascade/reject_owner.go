package cascade

import (
	"context"
	"strings"

	"leasehub/internal/app/access"
	"leasehub/internal/app/commands"
	"leasehub/internal/app/dto"
	"leasehub/internal/app/uow"
	domainuser "leasehub/internal/domain/user"
)

const rejectOwnerKey = "cascade.reject_owner"

// RejectOwnerCommand turns down an owner registration by deleting the
// account together with everything it holds.
type RejectOwnerCommand struct {
	Identity access.Identity `json:"-"`
	UserID   string          `json:"user_id" validate:"required"`
}

func (c RejectOwnerCommand) Key() string                 { return rejectOwnerKey }
func (c RejectOwnerCommand) Actor() access.Identity      { return c.Identity }
func (c RejectOwnerCommand) Requires() access.Capability { return access.CapabilityAdmin }
func (c RejectOwnerCommand) RevokedUser() string         { return strings.TrimSpace(c.UserID) }

type RejectOwnerHandler struct {
	Delete *DeleteUserHandler
}

func (h *RejectOwnerHandler) Handle(ctx context.Context, cmd RejectOwnerCommand) (dto.DeleteUserResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return dto.DeleteUserResult{}, uow.ErrUnitOfWorkMissing
	}
	target, err := unit.Users().ByID(ctx, domainuser.ID(strings.TrimSpace(cmd.UserID)))
	if err != nil {
		return dto.DeleteUserResult{}, err
	}
	if !target.HasRole(domainuser.RoleOwner) {
		return dto.DeleteUserResult{}, domainuser.ErrNotOwner
	}
	return h.Delete.Handle(ctx, DeleteUserCommand{Identity: cmd.Identity, UserID: cmd.UserID})
}

var (
	_ commands.Handler[RejectOwnerCommand, dto.DeleteUserResult] = (*RejectOwnerHandler)(nil)
	_ access.Restricted                                          = RejectOwnerCommand{}
)
