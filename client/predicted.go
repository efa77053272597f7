package client

import (
	"fmt"

	"arenanet/world"
)

type PredictionState uint8

const (
	AwaitingFirstAck PredictionState = iota
	Synced
)

// DesyncError reports an acknowledgement that cannot be matched against the
// buffered commands. The player is resynced; the session carries on.
type DesyncError struct {
	LastProcessed world.Tick
	First         world.Tick
	Count         int
	Diff          int
}

func (e *DesyncError) Error() string {
	return fmt.Sprintf("desync: server processed %d, buffer starts at %d (count=%d diff=%d)",
		e.LastProcessed, e.First, e.Count, e.Diff)
}

// PredictedPlayer is the locally controlled entity. Input is applied as soon
// as it is sampled and kept until the server acknowledges it; every accepted
// ServerState snaps the pose to the authoritative one and replays the rest.
type PredictedPlayer struct {
	*world.Player
	commands      *world.RingBuffer[world.InputCommand]
	lastCommandID world.Tick
	fixedDelta    float32
	state         PredictionState

	lastServerTick world.Tick
	lastProcessed  world.Tick
	hasServerState bool
	onShoot        func(origin, dir world.Vector)
}

func NewPredictedPlayer(id uint8, name string, bufferSize int, fixedDelta float32) *PredictedPlayer {
	return &PredictedPlayer{
		Player:     world.NewPlayer(id, name),
		commands:   world.NewRingBuffer[world.InputCommand](bufferSize),
		fixedDelta: fixedDelta,
	}
}

// OnShoot sets the hit-scan request callback fired when input passes the
// cooldown gate.
func (p *PredictedPlayer) OnShoot(callback func(origin, dir world.Vector)) {
	p.onShoot = callback
}

func (p *PredictedPlayer) Status() PredictionState {
	return p.state
}

// NextCommandID is the id the next generated command will carry.
func (p *PredictedPlayer) NextCommandID() world.Tick {
	return p.lastCommandID.Next()
}

func (p *PredictedPlayer) Pending() int {
	return p.commands.Count()
}

// PendingCommands returns the unacknowledged window, oldest first.
func (p *PredictedPlayer) PendingCommands() []world.InputCommand {
	return p.commands.Slice()
}

// NextCommand allocates the next command id. A full buffer means the server
// has not acknowledged a whole window, so the prediction is resynced first.
func (p *PredictedPlayer) NextCommand(keys world.Keys, rotation float32, serverTick world.Tick) world.InputCommand {
	if p.commands.IsFull() {
		p.resync()
	}
	p.lastCommandID = p.lastCommandID.Next()
	return world.InputCommand{
		ID:         p.lastCommandID,
		Keys:       keys,
		Rotation:   rotation,
		ServerTick: serverTick,
	}
}

// ApplyInput predicts cmd and buffers it for replay. Dead players still
// buffer their commands so buffered ids stay contiguous.
func (p *PredictedPlayer) ApplyInput(cmd world.InputCommand, ctx world.SimContext) {
	if p.Alive() {
		p.Move(cmd, ctx.FixedDelta)
		if p.TryShoot(cmd) && p.onShoot != nil {
			origin, dir := p.ShotRay()
			p.onShoot(origin, dir)
		}
	}
	p.commands.Add(cmd)
}

// ReceiveServerState reconciles against the authoritative record self taken
// from state. world.ErrStale is returned, with nothing changed, for a
// duplicate or older state; *DesyncError after an impossible ordering.
func (p *PredictedPlayer) ReceiveServerState(state world.ServerState, self world.PlayerState) error {
	if p.hasServerState {
		if state.Tick == p.lastServerTick && state.LastProcessedCommand == p.lastProcessed {
			return world.ErrStale
		}
		if world.SeqDiff(state.Tick, p.lastServerTick) < 0 {
			return world.ErrStale
		}
	}
	p.hasServerState = true
	p.lastServerTick = state.Tick
	p.lastProcessed = state.LastProcessedCommand
	p.state = Synced

	p.SetPose(self.Position, self.Rotation)
	first, ok := p.commands.First()
	if !ok {
		return nil
	}

	count := p.commands.Count()
	diff := world.SeqDiff(state.LastProcessedCommand, first.ID)
	switch {
	case diff >= -1 && diff < count:
		// diff == -1: the server stopped right before our window, so
		// nothing is dropped and everything is replayed.
		p.commands.RemoveFromStart(diff + 1)
		p.replay()
	case diff >= count:
		// The whole window was processed (lag or loss); start over.
		p.resync()
	default:
		p.resync()
		return &DesyncError{
			LastProcessed: state.LastProcessedCommand,
			First:         first.ID,
			Count:         count,
			Diff:          diff,
		}
	}
	return nil
}

// replay re-applies the buffered movement on top of the authoritative pose.
// Shots and cooldowns are not replayed.
func (p *PredictedPlayer) replay() {
	if !p.Alive() {
		return
	}
	p.commands.ForEach(func(_ int, cmd world.InputCommand) {
		p.Move(cmd, p.fixedDelta)
	})
}

func (p *PredictedPlayer) resync() {
	p.commands.Clear()
	p.lastCommandID = p.lastProcessed
}

var _ world.Entity = (*PredictedPlayer)(nil)
