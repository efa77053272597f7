package protocol

import "arenanet/world"

// SnapshotBuilder writes ServerState packets into a caller-owned buffer. The
// buffer length is the largest message the transport accepts; records are
// placed by slot, so a fragment is Begin, Put for slots [0, n), Bytes(n).
type SnapshotBuilder struct {
	buf []byte
}

func NewSnapshotBuilder(buf []byte) *SnapshotBuilder {
	return &SnapshotBuilder{buf: buf}
}

// Capacity is floor(available payload / PlayerStateSize).
func (b *SnapshotBuilder) Capacity() int {
	n := (len(b.buf) - TagSize - ServerStateHeaderSize) / PlayerStateSize
	if n < 0 {
		return 0
	}
	return n
}

func (b *SnapshotBuilder) Begin(tick, lastProcessed world.Tick) {
	b.buf[0] = byte(PacketServerState)
	le.PutUint16(b.buf[1:3], uint16(tick))
	le.PutUint16(b.buf[3:5], uint16(lastProcessed))
}

// Put writes state into slot. Slots outside Capacity are ignored.
func (b *SnapshotBuilder) Put(slot int, state world.PlayerState) bool {
	if slot < 0 || slot >= b.Capacity() {
		return false
	}
	off := TagSize + ServerStateHeaderSize + slot*PlayerStateSize
	putPlayerState(b.buf[off:off+PlayerStateSize], state)
	return true
}

// Bytes returns the packet holding the first count slots. It aliases the
// builder's buffer and is only valid until the next Begin.
func (b *SnapshotBuilder) Bytes(count int) []byte {
	if count > b.Capacity() {
		count = b.Capacity()
	}
	return b.buf[:TagSize+ServerStateHeaderSize+count*PlayerStateSize]
}

// DecodeServerState reads a ServerState body. The number of records is
// derived from the remaining length.
func DecodeServerState(body []byte) (world.ServerState, error) {
	if len(body) < ServerStateHeaderSize {
		return world.ServerState{}, malformed(PacketServerState, "short header: %d bytes", len(body))
	}
	records := body[ServerStateHeaderSize:]
	if len(records)%PlayerStateSize != 0 {
		return world.ServerState{}, malformed(PacketServerState, "trailing %d bytes", len(records)%PlayerStateSize)
	}
	state := world.ServerState{
		Tick:                 getTick(body[0:2]),
		LastProcessedCommand: getTick(body[2:4]),
		PlayerStates:         make([]world.PlayerState, len(records)/PlayerStateSize),
	}
	for i := range state.PlayerStates {
		off := i * PlayerStateSize
		state.PlayerStates[i] = getPlayerState(records[off : off+PlayerStateSize])
	}
	return state, nil
}
