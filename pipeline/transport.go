package pipeline

import (
	"errors"
	"fmt"

	"flock-camera-sensor/flockapi"
)

// ErrInboundClosed is returned by Inbound.Next once Stop has been called.
var ErrInboundClosed = errors.New("pipeline: inbound transport closed")

// Error codes that reach the controller or the logs.
const (
	DecodeFailure  = "decode_failure"
	PublishFailure = "publish_failure"
)

type EventKind uint8

const (
	EventMessage EventKind = iota + 1
	EventConnected
	EventDisconnected
	EventDecodeFailure
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventMessage:
		return "message"
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventDecodeFailure:
		return "decode_failure"
	case EventError:
		return "error"
	}
	return fmt.Sprintf("EventKind(%d)", uint8(k))
}

// Event is one thing the inbound transport has to report. Message is set for
// EventMessage, Err for EventDecodeFailure and EventError.
type Event struct {
	Kind    EventKind
	Message flockapi.Message
	Err     error
}

// Decode turns a raw transport payload into a message or decode-failure event.
func Decode(data []byte) Event {
	msg, err := flockapi.Decode(data)
	if err != nil {
		return Event{Kind: EventDecodeFailure, Err: err}
	}
	return Event{Kind: EventMessage, Message: msg}
}

// Inbound delivers events to the intake goroutine. Next blocks until an event
// is available. A non-nil error ends intake; after Stop it must be
// ErrInboundClosed. Stop only ends receiving: a transport that is also the
// Outbound keeps publishing until its owner closes it.
type Inbound interface {
	Next() (Event, error)
	Stop() error
}

// Outbound publishes one encoded message to msg.Destination.
type Outbound interface {
	Publish(msg flockapi.Message) error
}
