package force

import (
	"errors"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is a singleton validator instance with the finite rule registered.
var validate = NewValidator()

// NewValidator returns a validator that reports JSON field names and knows
// the "finite" rule, which rejects NaN and ±Inf floats.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		switch fl.Field().Kind() {
		case reflect.Float32, reflect.Float64:
			f := fl.Field().Float()
			return !math.IsNaN(f) && !math.IsInf(f, 0)
		default:
			return true
		}
	})
	return v
}

// invalidFields returns the JSON names of the fields of s failing validation.
// Values that cannot be validated at all yield nil.
func invalidFields(s any) []string {
	var verrs validator.ValidationErrors
	if !errors.As(validate.Struct(s), &verrs) {
		return nil
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return fields
}

func validParams(p any) bool {
	if reflect.Indirect(reflect.ValueOf(p)).Kind() != reflect.Struct {
		return true
	}
	return len(invalidFields(p)) == 0
}
