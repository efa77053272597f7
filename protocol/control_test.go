package protocol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"arenanet/world"
)

func TestControlMessages(t *testing.T) {
	messages := []ControlMessage{
		&Join{UserName: "host 4242"},
		&JoinAccept{ID: 3, ServerTick: 1000, Position: world.Vector{X: -1.5, Y: 2}},
		&PlayerJoined{UserName: "b", ID: 4, NewPlayer: true, Position: world.Vector{X: 1}, Rotation: 2, Health: 100},
		&PlayerLeft{ID: 4, Reason: "timeout"},
		&PlayerDamaged{ID: 4, AttackerID: 3, Health: 90},
	}
	for _, m := range messages {
		t.Run(m.PacketType().String(), func(t *testing.T) {
			b := EncodeControl(m)
			typ, body, err := Split(b)
			require.NoError(t, err)
			assert.Equal(t, m.PacketType(), typ)
			got, err := DecodeControl(typ, body)
			require.NoError(t, err)
			assert.Equal(t, m, got)
		})
	}
}

func TestControlSkipsUnknownFields(t *testing.T) {
	body := EncodeControl(&PlayerLeft{ID: 2, Reason: "bye"})[TagSize:]
	body = protowire.AppendTag(body, 99, protowire.BytesType)
	body = protowire.AppendString(body, "from a newer peer")

	got, err := DecodeControl(PacketPlayerLeft, body)
	require.NoError(t, err)
	assert.Equal(t, &PlayerLeft{ID: 2, Reason: "bye"}, got)
}

func TestControlRejectsGarbage(t *testing.T) {
	_, err := DecodeControl(PacketJoinAccept, []byte{0x08})
	assert.True(t, errors.Is(err, ErrMalformed))

	// Field 1 of JoinAccept encoded with the wrong wire type.
	wrong := protowire.AppendTag(nil, 1, protowire.Fixed32Type)
	wrong = protowire.AppendFixed32(wrong, 7)
	_, err = DecodeControl(PacketJoinAccept, wrong)
	assert.True(t, errors.Is(err, ErrMalformed))

	_, err = DecodeControl(PacketInput, nil)
	assert.True(t, errors.Is(err, ErrUnknownPacket))
}
