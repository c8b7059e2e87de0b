package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// ErrServerRejected marks a mutation the draft backend refused after our
	// local pre-flight had passed. The cached snapshot is stale at that point
	// and must be re-fetched before the next decision.
	ErrServerRejected = errors.New("backend rejected mutation")
)
