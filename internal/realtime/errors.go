package realtime

import (
	"errors"
	"fmt"
)

// ErrSubscriberClosed is returned by Subscribe after Close has been called.
var ErrSubscriberClosed = errors.New("realtime: subscriber closed")

// ErrDial reports a failed websocket dial or control write.
type ErrDial struct {
	URL string
	Err error
}

func (e ErrDial) Error() string {
	return fmt.Sprintf("realtime: dial %s: %v", e.URL, e.Err)
}

func (e ErrDial) Unwrap() error { return e.Err }
