package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	ierr "github.com/lessonpay/lessonpay/internal/errors"
)

var validate *validator.Validate

func NewValidator() *validator.Validate {
	validate = validator.New()
	// Report fields by their JSON names so errors match what clients sent
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return validate
}

func GetValidator() *validator.Validate {
	return validate
}

// ValidateRequest validates req against its struct tags. A missing required
// field is reported on its own, and only the first one in field order.
func ValidateRequest(req interface{}) error {
	if validate == nil {
		return ierr.NewError("validator not initialized").
			WithHint("Validator must be initialized before using it").
			Mark(ierr.ErrSystem)
	}

	if err := validate.Struct(req); err != nil {
		var validateErrs validator.ValidationErrors
		if !ierr.As(err, &validateErrs) {
			return ierr.WithError(err).
				WithHint("Request validation failed").
				Mark(ierr.ErrValidation)
		}

		for _, fe := range validateErrs {
			if fe.Tag() == "required" {
				return ierr.MissingField(fe.Field())
			}
		}

		details := make(map[string]any)
		for _, fe := range validateErrs {
			details[fe.Field()] = fe.Error()
		}
		return ierr.WithError(err).
			WithHintf("Invalid value for field: %s", validateErrs[0].Field()).
			WithReportableDetails(details).
			Mark(ierr.ErrValidation)
	}
	return nil
}
