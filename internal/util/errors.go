package util

import "errors"

// Sentinel errors for common failure modes
var (
	// ErrNotFound indicates a required resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnavailable indicates a remote service or device capability could not be reached
	ErrUnavailable = errors.New("service unavailable")

	// ErrModelMissing indicates an on-device model is not installed
	ErrModelMissing = errors.New("model not downloaded")

	// ErrPermission indicates a permission error (microphone, location, ...)
	ErrPermission = errors.New("permission denied")
)
