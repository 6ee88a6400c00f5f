package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/campusqa/campus-qa-api/pkg/errors"
)

// validationError translates a validator failure into a typed error carrying
// per-field messages, so 400 responses report which inputs were rejected.
func validationError(err error, message string) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	}

	fields := make([]appErrors.FieldError, 0, len(verrs))
	for _, verr := range verrs {
		fields = append(fields, appErrors.FieldError{
			Field:   jsonFieldName(verr.Field()),
			Message: fieldMessage(verr),
		})
	}
	return appErrors.WithFields(message, fields)
}

func jsonFieldName(name string) string {
	if name == "" {
		return name
	}
	return strings.ToLower(name[:1]) + name[1:]
}

func fieldMessage(verr validator.FieldError) string {
	switch verr.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", verr.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", verr.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", verr.Param())
	case "uuid4":
		return "must be a valid id"
	case "url":
		return "must be a valid URL"
	default:
		return fmt.Sprintf("failed the %s rule", verr.Tag())
	}
}
