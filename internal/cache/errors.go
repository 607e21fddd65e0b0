package cache

import "errors"

// Sentinel kinds for cache errors.
var (
	// ErrClosed marks operations on a closed poller.
	ErrClosed = errors.New("poller closed")
)
