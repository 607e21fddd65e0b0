package gateway

import "errors"

// Sentinel kinds for gateway errors.
var (
	// ErrUpstream marks a non-2xx upstream response.
	ErrUpstream = errors.New("upstream request failed")

	// ErrAuth marks a 401 that survived the single refresh retry.
	ErrAuth = errors.New("upstream authentication failed")

	// ErrDecode marks an unreadable upstream response body.
	ErrDecode = errors.New("decode upstream response failed")
)
