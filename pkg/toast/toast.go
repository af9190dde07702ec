package toast

import "github.com/vango-dev/chrono/pkg/uistore"

// EventName is the event name dispatched for toasts.
// Client-side code should listen for this event.
const EventName = "chrono:toast"

// Type represents the toast notification type.
type Type string

const (
	TypeSuccess Type = "success"
	TypeWarning Type = "warning"
	TypeInfo    Type = "info"
)

// Emitter sends a named custom event to one client.
type Emitter interface {
	Emit(name string, data any)
}

// Event is the payload of a toast.
type Event struct {
	Level          Type   `json:"level"`
	Title          string `json:"title,omitempty"`
	Message        string `json:"message,omitempty"`
	NotificationID string `json:"notificationId,omitempty"`
	ShowClose      bool   `json:"showClose,omitempty"`
	ActionLabel    string `json:"actionLabel,omitempty"`
	ActionID       string `json:"actionId,omitempty"`
}

// LevelFor maps a notification type to a toast level.
func LevelFor(t uistore.NotificationType) Type {
	switch t {
	case uistore.NotificationCart:
		return TypeSuccess
	case uistore.NotificationAlert:
		return TypeWarning
	default:
		return TypeInfo
	}
}

// FromNotification builds the toast for n. The action id is the action kind,
// which the client posts back to /api/notifications/{id}/action.
func FromNotification(n uistore.Notification) Event {
	ev := Event{
		Level:          LevelFor(n.Type),
		Title:          n.Title,
		NotificationID: n.ID,
		ShowClose:      n.ShowClose,
	}
	if n.Action != nil {
		ev.ActionLabel = n.Action.Label
		ev.ActionID = string(n.Action.Kind)
	}
	return ev
}

// Emit sends ev to e.
func Emit(e Emitter, ev Event) {
	e.Emit(EventName, ev)
}

// Show displays a toast with a message.
func Show(e Emitter, level Type, message string) {
	Emit(e, Event{Level: level, Message: message})
}

// Success shows a success toast.
//
//	toast.Success(conn, "Order placed")
func Success(e Emitter, message string) {
	Show(e, TypeSuccess, message)
}

// Warning shows a warning toast.
func Warning(e Emitter, message string) {
	Show(e, TypeWarning, message)
}
