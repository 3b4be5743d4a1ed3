package validator

import (
	"log"
	"regexp"

	"eva_harper_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// registerCustomRules регистрирует кастомные правила в переданном валидаторе.
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	mustRegister("is-user-role", validateUserRole)
	mustRegister("is-subscription-plan", validateSubscriptionPlan)
	mustRegister("is-image-type", validateImageType)
	mustRegister("is-credit-package", validateCreditPackage)
	mustRegister("is-username", validateUsername)
}

func validateUserRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // пустые значения проверяет 'required'
	}
	return models.UserRole(value).Valid()
}

func validateSubscriptionPlan(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.SubscriptionPlan(value).Valid()
}

func validateImageType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.ImageType(value).Valid()
}

func validateCreditPackage(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, ok := models.LookupCreditPackage(value)
	return ok
}

func validateUsername(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return usernamePattern.MatchString(value)
}
