package realtime

import (
	"errors"
	"fmt"
)

// Sentinel errors for the deterministic parts of the error surface.
var (
	// ErrInvalidURL is returned by New when project_url's scheme is not one
	// of http, https, ws, or wss.
	ErrInvalidURL = errors.New("realtime: url must be a valid websocket or http(s) url")

	// ErrConnectionClosed is returned by Client.Send when the client holds
	// no live Connection. Channel.Push does not return it for a client that
	// is already disconnected when Push is called: that push is dropped.
	ErrConnectionClosed = errors.New("realtime: connection closed")

	// ErrChannelSend is returned by Connection.Send when the outbound queue
	// has already been torn down.
	ErrChannelSend = errors.New("realtime: outbound queue closed")

	// ErrMultipleSubscription is returned by Channel.Subscribe when it is
	// called more than once on the same Channel instance.
	ErrMultipleSubscription = errors.New("realtime: tried to subscribe multiple times; subscribe may only be called once per channel")
)

// ConnectionError wraps a WebSocket dial failure.
type ConnectionError struct {
	Cause error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("realtime: failed to connect to websocket: %v", e.Cause)
}

func (e *ConnectionError) Unwrap() error { return e.Cause }

// SerializationError wraps a JSON encode/decode failure.
type SerializationError struct {
	Cause error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("realtime: failed to serialize message: %v", e.Cause)
}

func (e *SerializationError) Unwrap() error { return e.Cause }

// PushWhileUnsubscribedError is returned by Channel.Push (and its
// SendBroadcast alias) when called before the channel has ever subscribed.
type PushWhileUnsubscribedError struct {
	Event string
	Topic string
}

func (e *PushWhileUnsubscribedError) Error() string {
	return fmt.Sprintf("realtime: tried to push %q to %q before joining; call Channel.Subscribe first", e.Event, e.Topic)
}

// SubscribeError is delivered to a subscribe callback when the server
// rejects a join request.
type SubscribeError struct {
	Payload string
}

func (e *SubscribeError) Error() string {
	return fmt.Sprintf("realtime: subscribe error: %s", e.Payload)
}

// MultipleTaskErrors aggregates the errors returned by Connection's
// cooperating loops when Connection.Close joins them.
type MultipleTaskErrors struct {
	Errors []error
}

func (e *MultipleTaskErrors) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("realtime: task failed: %v", e.Errors[0])
	}
	msg := fmt.Sprintf("realtime: %d tasks failed: ", len(e.Errors))
	for i, err := range e.Errors {
		if i > 0 {
			msg += "; "
		}
		msg += err.Error()
	}
	return msg
}

func (e *MultipleTaskErrors) Unwrap() []error { return e.Errors }
