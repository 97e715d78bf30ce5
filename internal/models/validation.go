package models

import "fmt"

// ValidationError reports a single invalid input field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid builds a ValidationError
func Invalid(field, message string) error {
	return ValidationError{Field: field, Message: message}
}
