package models

import (
	"errors"
	"fmt"
)

// ValidationError reports market data that cannot be preprocessed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// ErrClassification marks a single text that could not be classified.
var ErrClassification = errors.New("classification failed")

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
