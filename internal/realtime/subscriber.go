// Package realtime delivers push-driven cache invalidation events.
//
// The push service (a Pusher-style broker behind the proxy) emits an event
// naming a channel/topic and an event type; the app layer maps those onto a
// cache key and discards it. Delivery is fire-and-forget: there is no
// acknowledgment, and a push may race a poll-driven refresh of the same key.
package realtime

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jdarling/eventdash/pkg/logger"
	"github.com/jdarling/eventdash/pkg/metrics"
)

// Connection tuning constants.
const (
	handshakeTimeout  = 10 * time.Second
	heartbeatInterval = 30 * time.Second
	subscriberBuffer  = 16
)

// InvalidationEvent names a keyed cache entry to discard.
type InvalidationEvent struct {
	Topic   string         `json:"topic"`
	Event   string         `json:"event"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Subscriber is the push subscription contract consumed by the app layer.
// The release function must be called on teardown to avoid leaks.
type Subscriber interface {
	Subscribe(topic string) (<-chan InvalidationEvent, func(), error)
	Close() error
}

// controlMessage is sent to the broker to join or leave a topic.
type controlMessage struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
}

// WebsocketSubscriber implements Subscriber over a single websocket
// connection, fanning incoming events out to per-topic channels.
type WebsocketSubscriber struct {
	mu     sync.RWMutex
	url    string
	conn   *websocket.Conn
	subs   map[string][]chan InvalidationEvent
	done   chan struct{}
	closed bool
	logger logger.Logger
}

// NewWebsocketSubscriber creates a subscriber for the given ws:// or wss://
// endpoint. http(s) URLs are converted.
func NewWebsocketSubscriber(url string, opts ...Option) *WebsocketSubscriber {
	switch {
	case strings.HasPrefix(url, "https"):
		url = "wss" + url[len("https"):]
	case strings.HasPrefix(url, "http"):
		url = "ws" + url[len("http"):]
	}
	s := &WebsocketSubscriber{
		url:    url,
		subs:   make(map[string][]chan InvalidationEvent),
		done:   make(chan struct{}),
		logger: logger.Get().Named("realtime"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect establishes the websocket connection and starts the read loop.
func (s *WebsocketSubscriber) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return nil // already connected
	}

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return ErrDial{URL: s.url, Err: err}
	}
	s.conn = conn

	go s.readLoop(conn)
	go s.heartbeat(conn)
	return nil
}

// Subscribe registers interest in a topic. The returned channel receives
// every event on that topic until release is called.
func (s *WebsocketSubscriber) Subscribe(topic string) (<-chan InvalidationEvent, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, nil, ErrSubscriberClosed
	}

	ch := make(chan InvalidationEvent, subscriberBuffer)
	first := len(s.subs[topic]) == 0
	s.subs[topic] = append(s.subs[topic], ch)

	if first && s.conn != nil {
		if err := s.conn.WriteJSON(controlMessage{Type: "subscribe", Topic: topic}); err != nil {
			s.subs[topic] = s.subs[topic][:len(s.subs[topic])-1]
			return nil, nil, ErrDial{URL: s.url, Err: err}
		}
	}

	var once sync.Once
	release := func() {
		once.Do(func() { s.unsubscribe(topic, ch) })
	}
	return ch, release, nil
}

func (s *WebsocketSubscriber) unsubscribe(topic string, ch chan InvalidationEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	channels := s.subs[topic]
	for i, c := range channels {
		if c == ch {
			s.subs[topic] = append(channels[:i], channels[i+1:]...)
			close(c)
			break
		}
	}
	if len(s.subs[topic]) == 0 {
		delete(s.subs, topic)
		if s.conn != nil && !s.closed {
			_ = s.conn.WriteJSON(controlMessage{Type: "unsubscribe", Topic: topic})
		}
	}
}

// readLoop dispatches incoming events to topic subscribers. A slow consumer
// drops events rather than stalling the socket.
func (s *WebsocketSubscriber) readLoop(conn *websocket.Conn) {
	for {
		var event InvalidationEvent
		if err := conn.ReadJSON(&event); err != nil {
			select {
			case <-s.done:
			default:
				metrics.RecordRealtimeDisconnect()
				s.logger.Warn(context.Background(), "realtime connection dropped", logger.Error(err))
			}
			return
		}
		metrics.RecordRealtimeEvent(event.Topic)

		s.mu.RLock()
		channels := s.subs[event.Topic]
		for _, ch := range channels {
			select {
			case ch <- event:
			default:
			}
		}
		s.mu.RUnlock()
	}
}

func (s *WebsocketSubscriber) heartbeat(conn *websocket.Conn) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(handshakeTimeout))
		}
	}
}

// Close tears the connection down and closes all subscriber channels.
func (s *WebsocketSubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)

	for topic, channels := range s.subs {
		for _, ch := range channels {
			close(ch)
		}
		delete(s.subs, topic)
	}

	if s.conn == nil {
		return nil
	}
	_ = s.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
	err := s.conn.Close()
	s.conn = nil
	return err
}
