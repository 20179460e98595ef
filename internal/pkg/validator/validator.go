package validator

import (
	"fmt"
	"sort"
	"strings"

	"smarttrack/internal/pkg/apperr"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate returns field -> failed tag, or nil when v is valid.
func Validate(v interface{}) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	errors := make(map[string]string)
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errors["_"] = err.Error()
		return errors
	}
	for _, fe := range verrs {
		errors[fe.Field()] = fe.Tag()
	}
	return errors
}

// Struct validates v and folds failures into a single validation error.
func Struct(v interface{}) error {
	fields := Validate(v)
	if fields == nil {
		return nil
	}
	parts := make([]string, 0, len(fields))
	for field, tag := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, tag))
	}
	sort.Strings(parts)
	return apperr.Validation("invalid input (" + strings.Join(parts, ", ") + ")")
}
