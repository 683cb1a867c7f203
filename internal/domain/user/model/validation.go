package model

import "fmt"

// ValidationError reports a missing required user attribute.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

func errMissing(field string) error {
	return &ValidationError{Field: field}
}
