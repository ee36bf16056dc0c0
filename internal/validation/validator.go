// Package validation validates rule documents using the validator/v10 library.
package validation

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"

	domainerrors "github.com/florilegium/florilegium-server/internal/errors"
)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator configured for our domain.
func New() *Validator {
	v := validator.New()

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "" {
			return fld.Name
		}
		// Remove options like omitempty, -
		for i := range len(name) {
			if name[i] == ',' {
				return name[:i]
			}
		}
		return name
	})

	return &Validator{v: v}
}

// Validate validates a struct and returns a domain error.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

// ValidateSlice validates every element and reports the failures with
// their index, so a bad rule in a hand-edited file is easy to find.
func (v *Validator) ValidateSlice(items any) error {
	rv := reflect.ValueOf(items)
	if rv.Kind() != reflect.Slice {
		return domainerrors.Validationf("expected a slice, got %T", items)
	}
	fieldErrors := make(map[string]string)
	for i := 0; i < rv.Len(); i++ {
		if err := v.Validate(rv.Index(i).Interface()); err != nil {
			var derr *domainerrors.Error
			if errors.As(err, &derr) {
				if details, ok := derr.Details.(map[string]string); ok {
					for field, msg := range details {
						fieldErrors[fmt.Sprintf("[%d].%s", i, field)] = msg
					}
					continue
				}
			}
			fieldErrors[fmt.Sprintf("[%d]", i)] = err.Error()
		}
	}
	if len(fieldErrors) > 0 {
		return domainerrors.ValidationWithDetails("rule validation failed", fieldErrors)
	}
	return nil
}

// formatError converts validator errors to domain errors.
func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fieldErrors := make(map[string]string)
	for _, e := range validationErrs {
		fieldErrors[e.Field()] = v.friendlyMessage(e)
	}
	return domainerrors.ValidationWithDetails("validation failed", fieldErrors)
}

func (v *Validator) friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must have at least %s entries", e.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s", e.Param())
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "numeric":
		return "must be numeric"
	default:
		return "is invalid"
	}
}
