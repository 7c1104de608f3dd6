package uow

import (
	"context"
	"errors"
	"fmt"

	"leasehub/internal/domain/shared/errs"
	"leasehub/internal/domain/user"
)

var ErrActorGone = fmt.Errorf("uow: %w: acting user no longer exists", errs.ErrForbidden)

// ClaimActor loads the acting user inside unit and writes it back unchanged.
// The version bump makes the unit conflict at commit with a concurrent
// deletion of that user, so nothing created here can outlive its author.
func ClaimActor(ctx context.Context, unit UnitOfWork, id string) (*user.User, error) {
	actor, err := unit.Users().ByID(ctx, user.ID(id))
	if errors.Is(err, errs.ErrNotFound) {
		return nil, ErrActorGone
	}
	if err != nil {
		return nil, err
	}
	if err := unit.Users().Save(ctx, actor); err != nil {
		return nil, err
	}
	return actor, nil
}
