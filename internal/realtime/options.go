package realtime

import "github.com/jdarling/eventdash/pkg/logger"

// Option configures a WebsocketSubscriber.
type Option func(*WebsocketSubscriber)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *WebsocketSubscriber) {
		s.logger = l
	}
}
