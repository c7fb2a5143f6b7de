package budget

import "errors"

var (
	ErrValidation      = errors.New("validation failed")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrNotFound        = errors.New("not found")
)
