package access

import "context"

type Capability int

const (
	CapabilityAuthenticated Capability = iota + 1
	CapabilityRenter
	CapabilityOwner
	CapabilityAdmin
)

// Restricted is implemented by commands and queries that act on behalf of a caller.
type Restricted interface {
	Actor() Identity
	Requires() Capability
}

// Authorizer is the coarse capability check run by the middleware pipeline.
// Messages that are not Restricted are public.
type Authorizer struct {
	Guard Guard
}

func (a Authorizer) Authorize(_ context.Context, message any) error {
	restricted, ok := message.(Restricted)
	if !ok {
		return nil
	}
	id := restricted.Actor()
	switch restricted.Requires() {
	case CapabilityRenter:
		return a.Guard.CanActAsRenter(id)
	case CapabilityOwner:
		return a.Guard.CanActAsOwner(id)
	case CapabilityAdmin:
		return a.Guard.CanAdminister(id)
	default:
		if !id.Authenticated() {
			return ErrUnauthenticated
		}
		return nil
	}
}
