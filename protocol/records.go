package protocol

import (
	"encoding/binary"
	"math"

	"arenanet/world"
)

var le = binary.LittleEndian

func putFloat32(b []byte, v float32) {
	le.PutUint32(b, math.Float32bits(v))
}

func getFloat32(b []byte) float32 {
	return math.Float32frombits(le.Uint32(b))
}

// getTick folds out-of-range wire values into the sequence domain.
func getTick(b []byte) world.Tick {
	return world.Tick(le.Uint16(b) % world.MaxSequence)
}

func putInputCommand(b []byte, cmd world.InputCommand) {
	le.PutUint16(b[0:2], uint16(cmd.ID))
	b[2] = byte(cmd.Keys)
	putFloat32(b[3:7], cmd.Rotation)
	le.PutUint16(b[7:9], uint16(cmd.ServerTick))
}

func getInputCommand(b []byte) world.InputCommand {
	return world.InputCommand{
		ID:         getTick(b[0:2]),
		Keys:       world.Keys(b[2]),
		Rotation:   getFloat32(b[3:7]),
		ServerTick: getTick(b[7:9]),
	}
}

func putPlayerState(b []byte, s world.PlayerState) {
	b[0] = s.ID
	putFloat32(b[1:5], s.Position.X)
	putFloat32(b[5:9], s.Position.Y)
	putFloat32(b[9:13], s.Rotation)
	le.PutUint16(b[13:15], uint16(s.Tick))
}

func getPlayerState(b []byte) world.PlayerState {
	return world.PlayerState{
		ID: b[0],
		Position: world.Vector{
			X: getFloat32(b[1:5]),
			Y: getFloat32(b[5:9]),
		},
		Rotation: getFloat32(b[9:13]),
		Tick:     getTick(b[13:15]),
	}
}

// EncodeInput writes an input packet carrying cmds oldest first. The count is
// implied by the length.
func EncodeInput(cmds []world.InputCommand) []byte {
	b := make([]byte, TagSize+len(cmds)*InputCommandSize)
	b[0] = byte(PacketInput)
	for i, cmd := range cmds {
		off := TagSize + i*InputCommandSize
		putInputCommand(b[off:off+InputCommandSize], cmd)
	}
	return b
}

// MaxInputCommands is how many commands fit in one packet of maxPacketSize.
func MaxInputCommands(maxPacketSize int) int {
	return (maxPacketSize - TagSize) / InputCommandSize
}

func DecodeInput(body []byte) ([]world.InputCommand, error) {
	if len(body) == 0 || len(body)%InputCommandSize != 0 {
		return nil, malformed(PacketInput, "length %d is not a multiple of %d", len(body), InputCommandSize)
	}
	cmds := make([]world.InputCommand, len(body)/InputCommandSize)
	for i := range cmds {
		off := i * InputCommandSize
		cmds[i] = getInputCommand(body[off : off+InputCommandSize])
	}
	return cmds, nil
}

func EncodeShoot(e world.ShootEvent) []byte {
	b := make([]byte, TagSize+ShootEventSize)
	b[0] = byte(PacketShoot)
	body := b[TagSize:]
	body[0] = e.ShooterID
	le.PutUint16(body[1:3], uint16(e.CommandID))
	putFloat32(body[3:7], e.Hit.X)
	putFloat32(body[7:11], e.Hit.Y)
	le.PutUint16(body[11:13], uint16(e.ServerTick))
	return b
}

func DecodeShoot(body []byte) (world.ShootEvent, error) {
	if len(body) != ShootEventSize {
		return world.ShootEvent{}, malformed(PacketShoot, "length %d, want %d", len(body), ShootEventSize)
	}
	return world.ShootEvent{
		ShooterID: body[0],
		CommandID: getTick(body[1:3]),
		Hit: world.Vector{
			X: getFloat32(body[3:7]),
			Y: getFloat32(body[7:11]),
		},
		ServerTick: getTick(body[11:13]),
	}, nil
}
