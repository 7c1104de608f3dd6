// Package validation checks command and query structs against their
// `validate` tags before they reach a handler.
package validation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"leasehub/internal/domain/shared/errs"
)

// SelfValidating messages add rules that tags cannot express.
type SelfValidating interface {
	Validate() error
}

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return &Validator{validate: v}
}

func (v *Validator) Validate(ctx context.Context, message any) error {
	if message == nil {
		return errs.Validation("empty message")
	}
	if isStruct(message) {
		if err := v.validate.StructCtx(ctx, message); err != nil {
			return translate(err)
		}
	}
	if sv, ok := message.(SelfValidating); ok {
		if err := sv.Validate(); err != nil {
			if errs.Classified(err) {
				return err
			}
			return errs.Validation(err.Error())
		}
	}
	return nil
}

func translate(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errs.Validation(err.Error())
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return errs.Validation(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
	}
}

func isStruct(message any) bool {
	t := reflect.TypeOf(message)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}
