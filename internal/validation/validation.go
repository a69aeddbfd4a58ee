// Package validation checks request payloads with the same struct tags gin's
// binding uses and turns failures into field-level API errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"poetica/internal/apperr"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func engine() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.SetTagName("binding")
		validate.RegisterTagNameFunc(jsonName)
	})
	return validate
}

// RegisterWithGin makes gin's own binding report JSON field names, so
// ShouldBindJSON failures and Struct failures read the same.
func RegisterWithGin() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonName)
	}
}

func jsonName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

// Struct validates v and returns an *apperr.Error listing every bad field.
func Struct(v any) error {
	if err := engine().Struct(v); err != nil {
		return FromError(err)
	}
	return nil
}

// FromError converts a binding or validation failure into an *apperr.Error.
func FromError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]apperr.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, apperr.FieldError{
				Field:   fieldPath(fe),
				Message: message(fe),
			})
		}
		return apperr.Validation(details...)
	}
	return apperr.BadRequest("Invalid request body")
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "uuid", "uuid4":
		return "must be a valid id"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "min":
		if isString(fe) {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s items", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if isString(fe) {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at most %s items", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "nefield":
		return "must differ from the current value"
	}
	return fmt.Sprintf("failed %q validation", fe.Tag())
}

func isString(fe validator.FieldError) bool {
	return fe.Kind() == reflect.String
}
