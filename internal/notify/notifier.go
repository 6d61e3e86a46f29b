package notify

import (
	"time"

	"github.com/rs/zerolog"
)

// Notifier surfaces transient workflow feedback to the user. It is purely
// cosmetic; callers must never rely on it for control flow.
type Notifier interface {
	Loading(message string)
	Success(message string)
	Error(message string)
	Dismiss()
}

// EventType tags a notification event on the wire.
type EventType string

const (
	EventLoading EventType = "loading"
	EventSuccess EventType = "success"
	EventError   EventType = "error"
	EventDismiss EventType = "dismiss"
)

// Event is the payload broadcast to connected UI clients.
type Event struct {
	Type    EventType `json:"type"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}

// LogNotifier writes notifications to the service log. It is the fallback
// sink when no UI client is connected.
type LogNotifier struct {
	Logger zerolog.Logger
}

func (n LogNotifier) Loading(message string) {
	n.Logger.Info().Str("notice", "loading").Msg(message)
}

func (n LogNotifier) Success(message string) {
	n.Logger.Info().Str("notice", "success").Msg(message)
}

func (n LogNotifier) Error(message string) {
	n.Logger.Warn().Str("notice", "error").Msg(message)
}

func (n LogNotifier) Dismiss() {}

// Noop discards all notifications.
type Noop struct{}

func (Noop) Loading(string) {}
func (Noop) Success(string) {}
func (Noop) Error(string)   {}
func (Noop) Dismiss()       {}
