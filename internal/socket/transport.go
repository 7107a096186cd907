// Package socket maintains the persistent push connection to the
// notification server: token auth, registration handshake, bounded
// reconnects and dispatch of "newNotification" events.
package socket

import (
	"context"
	"encoding/json"
	"errors"
)

// Event names exchanged with the notification server.
const (
	EventRegister        = "register"
	EventNewNotification = "newNotification"
)

// ErrUnauthorized is returned by a Dialer when the server rejects the
// token during the handshake. It is not retried.
var ErrUnauthorized = errors.New("socket: handshake unauthorized")

// Envelope is a single frame on the wire.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// RegisterPayload is the body of the register message.
type RegisterPayload struct {
	UserID string `json:"userId"`
}

// NewEnvelope marshals data into an envelope for event.
func NewEnvelope(event string, data interface{}) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: event, Data: raw}, nil
}

// Conn is an established duplex connection.
type Conn interface {
	// ReadEnvelope blocks until the next frame arrives or the
	// connection fails. It must return promptly after Close.
	ReadEnvelope() (Envelope, error)
	WriteEnvelope(env Envelope) error
	Close() error
}

// Dialer opens authenticated connections.
type Dialer interface {
	Dial(ctx context.Context, url, token string) (Conn, error)
}
