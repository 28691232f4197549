package recipe

import (
	"errors"
	"fmt"
)

// ErrNoIngredientsDetected is returned when image analysis yields no usable ingredient names.
var ErrNoIngredientsDetected = errors.New("no ingredients detected in the image")

// ErrSizeLimitExceeded is returned when an upload is larger than the configured limit.
var ErrSizeLimitExceeded = errors.New("image size exceeds the upload limit")

// ErrMalformedRecipe is returned when generated text is missing a required section.
var ErrMalformedRecipe = errors.New("generated recipe is missing a required section")

// ValidationError reports a required request field that was left empty.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("please fill in all fields: %s is required", e.Field)
}

// ExternalServiceError wraps a failure of a text or image generation collaborator.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err is, or wraps, a ValidationError.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsExternalServiceError reports whether err is, or wraps, an ExternalServiceError.
func IsExternalServiceError(err error) bool {
	var e *ExternalServiceError
	return errors.As(err, &e)
}
