package generation

import "errors"

// Common errors returned by inference implementations
var (
	// ErrInferenceFailed is returned when an inference call fails for any general reason
	ErrInferenceFailed = errors.New("inference call failed")

	// ErrInvalidResponse is returned when the service response cannot be parsed or is malformed
	ErrInvalidResponse = errors.New("invalid response from inference service")

	// ErrContentBlocked is returned when the service blocks the content due to safety filters
	ErrContentBlocked = errors.New("content blocked by inference service safety filters")

	// ErrTransientFailure is returned for temporary errors that might resolve on retry
	ErrTransientFailure = errors.New("transient error during inference")

	// ErrInvalidConfig is returned when the inference client configuration is invalid
	ErrInvalidConfig = errors.New("invalid inference configuration")
)
