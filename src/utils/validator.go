package utils

import (
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("academicyear", func(fl validator.FieldLevel) bool {
		return IsAcademicYear(fl.Field().String())
	})
}

// IsAcademicYear accepts "2024-2025" style keys where the second year follows the first.
func IsAcademicYear(v string) bool {
	parts := strings.Split(v, "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 4 {
		return false
	}
	start, err := strconv.Atoi(parts[0])
	if err != nil {
		return false
	}
	end, err := strconv.Atoi(parts[1])
	if err != nil {
		return false
	}
	return end == start+1
}

// ValidateStruct returns a ValidationError describing every failed field.
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return ValidationError("%s", FormatValidationErrors(err))
	}
	return nil
}

func FormatValidationErrors(err error) string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		switch e.Tag() {
		case "required":
			msgs = append(msgs, e.Field()+" is required")
		case "min":
			msgs = append(msgs, e.Field()+" must be at least "+e.Param())
		case "max":
			msgs = append(msgs, e.Field()+" must be at most "+e.Param())
		case "oneof":
			msgs = append(msgs, e.Field()+" must be one of: "+e.Param())
		case "gte":
			msgs = append(msgs, e.Field()+" must be >= "+e.Param())
		case "academicyear":
			msgs = append(msgs, e.Field()+" must look like 2024-2025")
		default:
			msgs = append(msgs, e.Field()+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}
