// Package validation provides common configuration validators for treescope.
package validation

import (
	tserrors "github.com/vparekh/treescope/pkg/common/errors"
)

// Positive validates that an integer value is greater than zero.
func Positive(module, field string, value int) error {
	if value <= 0 {
		return tserrors.NewValidationError(module, field, value, "must be positive").
			WithHint("value must be greater than 0")
	}
	return nil
}

// NonNegative validates that an integer value is zero or greater.
func NonNegative(module, field string, value int) error {
	if value < 0 {
		return tserrors.NewValidationError(module, field, value, "cannot be negative").
			WithHint("use 0 or a positive value")
	}
	return nil
}

// NotNil validates that an interface value is not nil.
func NotNil(module, field string, value interface{}) error {
	if value == nil {
		return tserrors.NewValidationError(module, field, nil, "cannot be nil").
			WithHint("provide a valid " + field)
	}
	return nil
}

// NotEmpty validates that a string value is not empty.
func NotEmpty(module, field string, value string) error {
	if value == "" {
		return tserrors.NewValidationError(module, field, value, "cannot be empty").
			WithHint("provide a non-empty " + field)
	}
	return nil
}
