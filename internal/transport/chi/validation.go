package chi

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kailas-cloud/vince/internal/domain"
)

// validate is the shared validator; it reports fields by their JSON names.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidationError carries per-field messages. It unwraps to domain.ErrInvalidRequest.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

func (e *ValidationError) Unwrap() error { return domain.ErrInvalidRequest }

// validateStruct runs struct tags and converts failures into a ValidationError.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fieldPath(fe)
		switch fe.Tag() {
		case "required":
			fields[field] = field + " is required"
		case "min":
			fields[field] = fmt.Sprintf("%s must be at least %s", field, fe.Param())
		case "max":
			fields[field] = fmt.Sprintf("%s must be at most %s", field, fe.Param())
		default:
			fields[field] = fmt.Sprintf("%s failed on '%s'", field, fe.Tag())
		}
	}
	return &ValidationError{Fields: fields}
}

// fieldPath strips the struct name from the namespace: "QueryRequest.keywords[0].key" -> "keywords[0].key".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}
