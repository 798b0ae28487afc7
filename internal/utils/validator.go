// internal/utils/validator.go
package utils

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("plan_interval", validatePlanInterval)
	validate.RegisterValidation("provider", validateProvider)
	validate.RegisterValidation("backend_stack", validateBackendStack)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validatePlanInterval(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "month", "year", "once":
		return true
	}
	return false
}

func validateProvider(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "stripe", "lemonsqueezy":
		return true
	}
	return false
}

func validateBackendStack(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "nextjs-api", "express":
		return true
	}
	return false
}

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
	case "email":
		return "Invalid email format"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "plan_interval":
		return "Interval must be one of: month, year, once"
	case "provider":
		return "Provider must be one of: stripe, lemonsqueezy"
	case "backend_stack":
		return "Backend stack must be one of: nextjs-api, express"
	default:
		return e.Field() + " is invalid"
	}
}
