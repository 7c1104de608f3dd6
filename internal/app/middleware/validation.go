package middleware

import "context"

type Validator interface {
	Validate(ctx context.Context, message any) error
}

func Validation(v Validator) CommandMiddleware {
	if v == nil {
		panic("middleware: validator required")
	}
	return guardCommand(v.Validate)
}

func QueryValidation(v Validator) QueryMiddleware {
	if v == nil {
		panic("middleware: validator required")
	}
	return guardQuery(v.Validate)
}
