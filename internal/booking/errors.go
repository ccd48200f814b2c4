package booking

import "errors"

// Errors returned by Service. Handlers map them to HTTP status codes; any
// other error is an upstream (database or gateway) failure.
var (
	ErrValidation        = errors.New("validation failed")
	ErrTourUnavailable   = errors.New("tour not found")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrSignatureMismatch = errors.New("payment verification failed")
	ErrInvalidTransition = errors.New("invalid status transition")
)
