package models

import (
	"github.com/go-playground/validator/v10"
)

var requestValidate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct-tag constraints on a request value.
func Validate(req any) error {
	return requestValidate.Struct(req)
}
