// Package transport is the message contract the server and client loops
// consume: connection events, per-connection sends with a delivery class, and
// a synchronous Poll that hands inbound events to the caller's goroutine.
package transport

import (
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/ksuid"
)

// ConnID identifies one connection for its whole lifetime.
type ConnID string

func NewConnID() ConnID {
	return ConnID(ksuid.New().String())
}

type DeliveryMethod uint8

const (
	// ReliableOrdered carries join/accept/leave notifications.
	ReliableOrdered DeliveryMethod = iota
	// ReliableUnordered carries shoot events.
	ReliableUnordered
	// Unreliable carries per-tick input and world snapshots.
	Unreliable
)

func (d DeliveryMethod) String() string {
	switch d {
	case ReliableOrdered:
		return "reliable_ordered"
	case ReliableUnordered:
		return "reliable_unordered"
	case Unreliable:
		return "unreliable"
	}
	return fmt.Sprintf("delivery(%d)", uint8(d))
}

type EventKind uint8

const (
	EventConnected EventKind = iota + 1
	EventDisconnected
	EventReceived
)

type Event struct {
	Kind    EventKind
	Conn    ConnID
	Payload []byte
	// Err is set on EventDisconnected and is always a *DisconnectError.
	Err error
}

var (
	ErrUnknownConn = errors.New("unknown connection")
	ErrClosed      = errors.New("transport closed")
)

// DisconnectError is the reason attached to a disconnect event.
type DisconnectError struct {
	Conn   ConnID
	Reason string
	Err    error
}

func (e *DisconnectError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("connection %s closed: %s: %v", e.Conn, e.Reason, e.Err)
	}
	return fmt.Sprintf("connection %s closed: %s", e.Conn, e.Reason)
}

func (e *DisconnectError) Unwrap() error {
	return e.Err
}

// Endpoint is one side of the transport. Send never blocks and never retains
// payload. Poll drains every pending event and calls handler inline.
type Endpoint interface {
	Send(conn ConnID, payload []byte, method DeliveryMethod) error
	Poll(handler func(Event)) int
	Disconnect(conn ConnID, reason string)
	Close() error
}

// Config holds queue sizes and timeouts shared by the websocket endpoints.
type Config struct {
	SendQueueSize  int
	RecvQueueSize  int
	WriteTimeout   time.Duration
	ReadLimit      int64
	OriginPatterns []string
}

func DefaultConfig() Config {
	return Config{
		SendQueueSize: 256,
		RecvQueueSize: 1024,
		WriteTimeout:  5 * time.Second,
		ReadLimit:     64 * 1024,
		OriginPatterns: []string{
			"localhost:*",
			"127.0.0.1:*",
		},
	}
}
