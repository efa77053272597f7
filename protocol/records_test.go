package protocol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arenanet/world"
)

func TestInputPacketLayout(t *testing.T) {
	cmd := world.InputCommand{ID: 0x0102, Keys: world.KeyLeft | world.KeyFire, Rotation: 1.5, ServerTick: 0x0304}
	b := EncodeInput([]world.InputCommand{cmd})
	require.Len(t, b, TagSize+InputCommandSize)
	assert.Equal(t, byte(PacketInput), b[0])
	// Little-endian id then keys.
	assert.Equal(t, []byte{0x02, 0x01, byte(world.KeyLeft | world.KeyFire)}, b[1:4])
	assert.Equal(t, []byte{0x04, 0x03}, b[8:10])

	typ, body, err := Split(b)
	require.NoError(t, err)
	assert.Equal(t, PacketInput, typ)
	cmds, err := DecodeInput(body)
	require.NoError(t, err)
	assert.Equal(t, []world.InputCommand{cmd}, cmds)
}

func TestDecodeInputRejectsPartialRecords(t *testing.T) {
	b := EncodeInput([]world.InputCommand{{ID: 1}, {ID: 2}})
	_, err := DecodeInput(b[TagSize : len(b)-1])
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))

	var perr *ProtocolError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, PacketInput, perr.Type)

	_, err = DecodeInput(nil)
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestShootPacket(t *testing.T) {
	e := world.ShootEvent{ShooterID: 3, CommandID: 700, Hit: world.Vector{X: -2.5, Y: 4}, ServerTick: 1023}
	b := EncodeShoot(e)
	require.Len(t, b, TagSize+ShootEventSize)
	typ, body, err := Split(b)
	require.NoError(t, err)
	assert.Equal(t, PacketShoot, typ)
	got, err := DecodeShoot(body)
	require.NoError(t, err)
	assert.Equal(t, e, got)

	_, err = DecodeShoot(body[:5])
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestSplitRejectsUnknownTags(t *testing.T) {
	_, _, err := Split(nil)
	assert.True(t, errors.Is(err, ErrEmptyPacket))

	_, _, err = Split([]byte{0})
	assert.True(t, errors.Is(err, ErrUnknownPacket))

	_, _, err = Split([]byte{200, 1, 2})
	assert.True(t, errors.Is(err, ErrUnknownPacket))
}

func TestTicksFoldIntoSequenceDomain(t *testing.T) {
	b := EncodeInput([]world.InputCommand{{ID: 5}})
	b[1], b[2] = 0xff, 0xff
	cmds, err := DecodeInput(b[TagSize:])
	require.NoError(t, err)
	assert.Equal(t, world.Tick(0xffff%world.MaxSequence), cmds[0].ID)
}
