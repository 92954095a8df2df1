// Package push delivers authentication challenges to enrolled devices
// through platform push services. The engine core does not depend on this
// package; callers wire a Dispatcher next to the engine when they want
// server-initiated authentication.
package push

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownType is returned when a notification names a platform no
	// sender is registered for.
	ErrUnknownType = errors.New("unknown notification type")
	// ErrSendFailed is returned when the platform push service rejects or
	// fails a delivery.
	ErrSendFailed = errors.New("push delivery failed")
)

// NotificationType identifies the platform push service for a device.
type NotificationType int

const (
	// TypeAPNS is an exported constant or variable used by push delivery.
	TypeAPNS NotificationType = iota + 1
	// TypeFCM is an exported constant or variable used by push delivery.
	TypeFCM
)

// String describes the string operation and its observable behavior.
func (t NotificationType) String() string {
	switch t {
	case TypeAPNS:
		return "APNS"
	case TypeFCM:
		return "FCM"
	default:
		return "UNKNOWN"
	}
}

// ParseNotificationType maps a stored platform tag to its type. Matching is
// exact per tag; an unrecognized tag is an error, never a fallback platform.
func ParseNotificationType(s string) (NotificationType, error) {
	switch strings.ToUpper(s) {
	case "APNS":
		return TypeAPNS, nil
	case "FCM", "GCM":
		return TypeFCM, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
}

// Notification is one challenge delivery to one device.
type Notification struct {
	// Type selects the platform sender.
	Type NotificationType
	// Address is the platform device token.
	Address string
	// SessionKey and Challenge let the app answer without scanning.
	SessionKey string
	Challenge  string
	// Text is the human-visible alert body.
	Text string
}

// Sender delivers notifications for one platform.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// Dispatcher routes notifications to per-platform senders by exact type
// match.
//
// Dispatcher instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Dispatcher struct {
	senders map[NotificationType]Sender
}

// NewDispatcher describes the newdispatcher operation and its observable behavior.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		senders: map[NotificationType]Sender{},
	}
}

// Register describes the register operation and its observable behavior.
func (d *Dispatcher) Register(t NotificationType, s Sender) {
	if s == nil {
		return
	}
	d.senders[t] = s
}

// Send describes the send operation and its observable behavior.
//
// Send may return an error when input validation, dependency calls, or security checks fail.
// Send does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (d *Dispatcher) Send(ctx context.Context, n Notification) error {
	s, ok := d.senders[n.Type]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownType, n.Type)
	}
	if n.Address == "" {
		return fmt.Errorf("%w: empty device address", ErrSendFailed)
	}
	return s.Send(ctx, n)
}
