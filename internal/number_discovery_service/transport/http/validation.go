package http

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var countryIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// NewValidator returns a validator with the "country_id" tag registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("country_id", func(fl validator.FieldLevel) bool {
		return countryIDPattern.MatchString(fl.Field().String())
	})
	return v
}
