// Package uistate models global dashboard UI state as an explicit container
// with pure reducer-style transitions. Nothing here is a singleton; callers
// inject a Container wherever the state is needed.
package uistate

import "sync"

// NotificationSeverity classifies a banner notification.
type NotificationSeverity string

// Notification severities.
const (
	SeverityInfo    NotificationSeverity = "info"
	SeveritySuccess NotificationSeverity = "success"
	SeverityWarning NotificationSeverity = "warning"
	SeverityError   NotificationSeverity = "error"
)

// Notification is the global banner state.
type Notification struct {
	Message  string               `json:"message"`
	Severity NotificationSeverity `json:"severity"`
	IsOpen   bool                 `json:"is_open"`
}

// State is the full UI state value. It is treated as immutable: Reduce
// returns a new value and never mutates its input.
type State struct {
	SidebarOpen  bool         `json:"sidebar_open"`
	Notification Notification `json:"notification"`
}

// Initial returns the initial UI state.
func Initial() State {
	return State{Notification: Notification{Severity: SeverityInfo}}
}

// Action is a state transition request.
type Action interface{ isAction() }

// ToggleSidebar flips the sidebar open/closed.
type ToggleSidebar struct{}

// ShowNotification opens the banner with a message. An empty Severity
// defaults to success, matching the original dashboard behavior.
type ShowNotification struct {
	Message  string
	Severity NotificationSeverity
}

// HideNotification closes the banner, keeping its last message.
type HideNotification struct{}

func (ToggleSidebar) isAction()    {}
func (ShowNotification) isAction() {}
func (HideNotification) isAction() {}

// Reduce applies an action to a state and returns the next state. Unknown
// actions leave the state unchanged.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case ToggleSidebar:
		s.SidebarOpen = !s.SidebarOpen
	case ShowNotification:
		severity := a.Severity
		if severity == "" {
			severity = SeveritySuccess
		}
		s.Notification = Notification{Message: a.Message, Severity: severity, IsOpen: true}
	case HideNotification:
		s.Notification.IsOpen = false
	}
	return s
}

// Container holds a State behind a mutex so concurrent views can dispatch
// actions safely. All transitions go through Reduce.
type Container struct {
	mu    sync.RWMutex
	state State
}

// NewContainer creates a container holding the initial state.
func NewContainer() *Container {
	return &Container{state: Initial()}
}

// Dispatch applies an action and returns the resulting state.
func (c *Container) Dispatch(a Action) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Reduce(c.state, a)
	return c.state
}

// State returns the current state value.
func (c *Container) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}
