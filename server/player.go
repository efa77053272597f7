package server

import "arenanet/world"

// ServerPlayer is the authoritative copy of a connected player. Commands are
// queued as they arrive and applied in id order on the next tick.
type ServerPlayer struct {
	*world.Player
	pending       *world.RingBuffer[world.InputCommand]
	lastReceived  world.Tick
	lastProcessed world.Tick
}

func NewServerPlayer(id uint8, name string, queueSize int) *ServerPlayer {
	return &ServerPlayer{
		Player:  world.NewPlayer(id, name),
		pending: world.NewRingBuffer[world.InputCommand](queueSize),
	}
}

// LastProcessed is the id of the newest command applied to this player.
func (p *ServerPlayer) LastProcessed() world.Tick {
	return p.lastProcessed
}

func (p *ServerPlayer) Pending() int {
	return p.pending.Count()
}

// Enqueue queues the commands newer than anything received so far and
// returns how many were taken. Input packets repeat the unacknowledged
// window, so most of a packet is usually a duplicate.
func (p *ServerPlayer) Enqueue(cmds []world.InputCommand) int {
	n := 0
	for _, cmd := range cmds {
		if world.SeqDiff(cmd.ID, p.lastReceived) <= 0 {
			continue
		}
		if !p.pending.Add(cmd) {
			break
		}
		p.lastReceived = cmd.ID
		n++
	}
	return n
}

// drain hands the queued commands to fn in order and empties the queue.
func (p *ServerPlayer) drain(fn func(world.InputCommand)) {
	p.pending.ForEach(func(_ int, cmd world.InputCommand) {
		fn(cmd)
	})
	p.pending.Clear()
}

// ApplyInput moves the player if alive and marks the command processed
// either way, so the client's window keeps draining while dead.
func (p *ServerPlayer) ApplyInput(cmd world.InputCommand, ctx world.SimContext) {
	if p.Alive() {
		p.Move(cmd, ctx.FixedDelta)
	}
	p.lastProcessed = cmd.ID
}

var _ world.Entity = (*ServerPlayer)(nil)
