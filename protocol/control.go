package protocol

import (
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"arenanet/world"
)

// ControlMessage is a reliable, named message. Its identity is the explicit
// PacketType tag, never its registration order.
type ControlMessage interface {
	PacketType() PacketType
	appendFields(b []byte) []byte
	unmarshalFields(b []byte) error
}

type Join struct {
	UserName string
}

type JoinAccept struct {
	ID         uint8
	ServerTick world.Tick
	Position   world.Vector
}

type PlayerJoined struct {
	UserName  string
	ID        uint8
	NewPlayer bool
	Position  world.Vector
	Rotation  float32
	Health    uint8
}

type PlayerLeft struct {
	ID     uint8
	Reason string
}

type PlayerDamaged struct {
	ID         uint8
	AttackerID uint8
	Health     uint8
}

func (*Join) PacketType() PacketType          { return PacketJoin }
func (*JoinAccept) PacketType() PacketType    { return PacketJoinAccept }
func (*PlayerJoined) PacketType() PacketType  { return PacketPlayerJoined }
func (*PlayerLeft) PacketType() PacketType    { return PacketPlayerLeft }
func (*PlayerDamaged) PacketType() PacketType { return PacketPlayerDamaged }

// EncodeControl returns tag + protobuf wire body.
func EncodeControl(m ControlMessage) []byte {
	return m.appendFields([]byte{byte(m.PacketType())})
}

// DecodeControl decodes body according to its tag.
func DecodeControl(t PacketType, body []byte) (ControlMessage, error) {
	var m ControlMessage
	switch t {
	case PacketJoin:
		m = &Join{}
	case PacketJoinAccept:
		m = &JoinAccept{}
	case PacketPlayerJoined:
		m = &PlayerJoined{}
	case PacketPlayerLeft:
		m = &PlayerLeft{}
	case PacketPlayerDamaged:
		m = &PlayerDamaged{}
	default:
		return nil, &ProtocolError{Type: t, Err: ErrUnknownPacket}
	}
	if err := m.unmarshalFields(body); err != nil {
		return nil, malformed(t, "%v", err)
	}
	return m, nil
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendFloat(b []byte, num protowire.Number, v float32) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed32Type)
	return protowire.AppendFixed32(b, math.Float32bits(v))
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

// errWrongType is reported through protowire.ParseError as a generic parse
// failure.
const errWrongType = -100

// fieldFunc consumes one field value and returns the bytes read, or a
// negative protowire error code.
type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) int

// consumeFields walks b, handing each field to fn. Fields fn does not know
// are skipped with ConsumeFieldValue.
func consumeFields(b []byte, fn fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		m := fn(num, typ, b)
		if m < 0 {
			return protowire.ParseError(m)
		}
		b = b[m:]
	}
	return nil
}

func consumeUint8(typ protowire.Type, b []byte, dst *uint8) int {
	if typ != protowire.VarintType {
		return errWrongType
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return n
	}
	if v > math.MaxUint8 {
		return errWrongType
	}
	*dst = uint8(v)
	return n
}

func consumeFloat(typ protowire.Type, b []byte, dst *float32) int {
	if typ != protowire.Fixed32Type {
		return errWrongType
	}
	v, n := protowire.ConsumeFixed32(b)
	if n < 0 {
		return n
	}
	*dst = math.Float32frombits(v)
	return n
}

func consumeString(typ protowire.Type, b []byte, dst *string) int {
	if typ != protowire.BytesType {
		return errWrongType
	}
	v, n := protowire.ConsumeString(b)
	if n < 0 {
		return n
	}
	*dst = v
	return n
}

func (m *Join) appendFields(b []byte) []byte {
	return appendString(b, 1, m.UserName)
}

func (m *Join) unmarshalFields(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		if num == 1 {
			return consumeString(typ, b, &m.UserName)
		}
		return protowire.ConsumeFieldValue(num, typ, b)
	})
}

func (m *JoinAccept) appendFields(b []byte) []byte {
	b = appendVarint(b, 1, uint64(m.ID))
	b = appendVarint(b, 2, uint64(m.ServerTick))
	b = appendFloat(b, 3, m.Position.X)
	return appendFloat(b, 4, m.Position.Y)
}

func (m *JoinAccept) unmarshalFields(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			return consumeUint8(typ, b, &m.ID)
		case 2:
			if typ != protowire.VarintType {
				return errWrongType
			}
			v, n := protowire.ConsumeVarint(b)
			m.ServerTick = world.Tick(v % world.MaxSequence)
			return n
		case 3:
			return consumeFloat(typ, b, &m.Position.X)
		case 4:
			return consumeFloat(typ, b, &m.Position.Y)
		}
		return protowire.ConsumeFieldValue(num, typ, b)
	})
}

func (m *PlayerJoined) appendFields(b []byte) []byte {
	b = appendString(b, 1, m.UserName)
	b = appendVarint(b, 2, uint64(m.ID))
	b = appendVarint(b, 3, protowire.EncodeBool(m.NewPlayer))
	b = appendFloat(b, 4, m.Position.X)
	b = appendFloat(b, 5, m.Position.Y)
	b = appendFloat(b, 6, m.Rotation)
	return appendVarint(b, 7, uint64(m.Health))
}

func (m *PlayerJoined) unmarshalFields(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			return consumeString(typ, b, &m.UserName)
		case 2:
			return consumeUint8(typ, b, &m.ID)
		case 3:
			if typ != protowire.VarintType {
				return errWrongType
			}
			v, n := protowire.ConsumeVarint(b)
			m.NewPlayer = protowire.DecodeBool(v)
			return n
		case 4:
			return consumeFloat(typ, b, &m.Position.X)
		case 5:
			return consumeFloat(typ, b, &m.Position.Y)
		case 6:
			return consumeFloat(typ, b, &m.Rotation)
		case 7:
			return consumeUint8(typ, b, &m.Health)
		}
		return protowire.ConsumeFieldValue(num, typ, b)
	})
}

func (m *PlayerLeft) appendFields(b []byte) []byte {
	b = appendVarint(b, 1, uint64(m.ID))
	return appendString(b, 2, m.Reason)
}

func (m *PlayerLeft) unmarshalFields(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			return consumeUint8(typ, b, &m.ID)
		case 2:
			return consumeString(typ, b, &m.Reason)
		}
		return protowire.ConsumeFieldValue(num, typ, b)
	})
}

func (m *PlayerDamaged) appendFields(b []byte) []byte {
	b = appendVarint(b, 1, uint64(m.ID))
	b = appendVarint(b, 2, uint64(m.AttackerID))
	return appendVarint(b, 3, uint64(m.Health))
}

func (m *PlayerDamaged) unmarshalFields(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			return consumeUint8(typ, b, &m.ID)
		case 2:
			return consumeUint8(typ, b, &m.AttackerID)
		case 3:
			return consumeUint8(typ, b, &m.Health)
		}
		return protowire.ConsumeFieldValue(num, typ, b)
	})
}
