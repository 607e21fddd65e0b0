package app

import "errors"

// Service errors.
var (
	// ErrMissingUpstream is returned by Start when no gateway client was
	// injected.
	ErrMissingUpstream = errors.New("app: no upstream client configured")

	// ErrEventNotFound is returned when an event id matches no known event.
	ErrEventNotFound = errors.New("app: event not found")

	// ErrDuplicateSubmission is returned when a mutation carries an
	// idempotency key that was already processed.
	ErrDuplicateSubmission = errors.New("app: duplicate submission")

	// ErrUnexpectedType signals a cache entry whose value does not match the
	// type its key implies. It indicates a key collision bug.
	ErrUnexpectedType = errors.New("app: unexpected cached value type")
)
