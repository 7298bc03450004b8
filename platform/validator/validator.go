// Package validator wraps go-playground's struct validation behind a
// small injectable type. Platform layer, no business logic.
package validator

import "github.com/go-playground/validator/v10"

// Validator validates request DTOs against their validate tags.
// Handlers receive one instance through their module constructor; there
// is no package-level global.
type Validator struct {
	v *validator.Validate
}

// New builds a Validator. Custom tags, if a module needs any, are
// registered through RegisterValidation before the router starts.
func New() *Validator {
	return &Validator{v: validator.New()}
}

// Struct validates s against its field tags.
func (val *Validator) Struct(s any) error {
	return val.v.Struct(s)
}

// Var validates a single value against tag.
func (val *Validator) Var(field any, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation adds a custom validation function under tag.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}
