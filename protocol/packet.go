// Package protocol encodes the packets exchanged between the authoritative
// server and its clients. Every packet starts with a one-byte PacketType tag.
// Per-tick records use fixed little-endian layouts; control messages carry a
// protobuf wire-format body.
package protocol

import (
	"errors"
	"fmt"
)

type PacketType uint8

const (
	PacketInput PacketType = iota + 1
	PacketServerState
	PacketShoot
	PacketJoin
	PacketJoinAccept
	PacketPlayerJoined
	PacketPlayerLeft
	PacketPlayerDamaged
)

func (t PacketType) String() string {
	switch t {
	case PacketInput:
		return "input"
	case PacketServerState:
		return "server_state"
	case PacketShoot:
		return "shoot"
	case PacketJoin:
		return "join"
	case PacketJoinAccept:
		return "join_accept"
	case PacketPlayerJoined:
		return "player_joined"
	case PacketPlayerLeft:
		return "player_left"
	case PacketPlayerDamaged:
		return "player_damaged"
	}
	return fmt.Sprintf("packet(%d)", uint8(t))
}

const (
	TagSize               = 1
	InputCommandSize      = 9  // u16 id, u8 keys, f32 rotation, u16 server tick
	PlayerStateSize       = 15 // u8 id, f32 x, f32 y, f32 rotation, u16 tick
	ServerStateHeaderSize = 4  // u16 tick, u16 last processed command
	ShootEventSize        = 13 // u8 shooter, u16 command, f32 x, f32 y, u16 server tick
)

var (
	ErrEmptyPacket   = errors.New("empty packet")
	ErrUnknownPacket = errors.New("unknown packet type")
	ErrMalformed     = errors.New("malformed payload")
)

// ProtocolError describes a single packet that could not be decoded. The
// receiver drops the packet and carries on.
type ProtocolError struct {
	Type PacketType
	Err  error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %v", e.Type, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

func malformed(t PacketType, format string, args ...interface{}) error {
	return &ProtocolError{
		Type: t,
		Err:  fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...)),
	}
}

// Split separates the tag from the body.
func Split(payload []byte) (PacketType, []byte, error) {
	if len(payload) < TagSize {
		return 0, nil, &ProtocolError{Err: ErrEmptyPacket}
	}
	t := PacketType(payload[0])
	if t < PacketInput || t > PacketPlayerDamaged {
		return t, nil, &ProtocolError{Type: t, Err: ErrUnknownPacket}
	}
	return t, payload[TagSize:], nil
}
