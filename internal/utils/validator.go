// internal/utils/validator.go
package utils

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var (
	slugExpr    = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	addressExpr = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
)

func init() {
	validate = validator.New()
	validate.RegisterValidation("slug", validateSlug)
	validate.RegisterValidation("eth_address", validateEthAddress)
	validate.RegisterValidation("decimal_amount", validateDecimalAmount)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// IsSlug reports whether s is safe to use as a URL path segment.
func IsSlug(s string) bool {
	return len(s) <= 100 && slugExpr.MatchString(s)
}

func IsEthAddress(s string) bool {
	return addressExpr.MatchString(s)
}

func validateSlug(fl validator.FieldLevel) bool {
	return IsSlug(fl.Field().String())
}

func validateEthAddress(fl validator.FieldLevel) bool {
	return IsEthAddress(fl.Field().String())
}

func validateDecimalAmount(fl validator.FieldLevel) bool {
	_, err := ParseAmount(fl.Field().String())
	return err == nil
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "slug":
		return e.Field() + " must contain only lowercase letters, numbers and single hyphens"
	case "eth_address":
		return e.Field() + " must be a 0x-prefixed 20-byte hex address"
	case "decimal_amount":
		return e.Field() + " must be a non-negative decimal number"
	default:
		return e.Field() + " is invalid"
	}
}
