package middleware

import "context"

// Authorizer performs the coarse capability check before a handler runs.
// Entity-level checks stay in the handlers.
type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return guardCommand(a.Authorize)
}

func QueryAuthorization(a Authorizer) QueryMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return guardQuery(a.Authorize)
}
