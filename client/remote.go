package client

import "arenanet/world"

type InterpolationState uint8

const (
	Filling InterpolationState = iota
	Interpolating
)

// RemotePlayer renders a non-local entity from buffered authoritative
// samples. Output starts once more than targetLatency seconds of samples have
// arrived and always blends the two oldest samples.
type RemotePlayer struct {
	*world.Player
	samples       *world.RingBuffer[world.PlayerState]
	fixedDelta    float32
	targetLatency float32
	receivedTime  float32
	timer         float32
	state         InterpolationState
}

func NewRemotePlayer(id uint8, name string, bufferSize int, fixedDelta, targetLatency float32) *RemotePlayer {
	return &RemotePlayer{
		Player:        world.NewPlayer(id, name),
		samples:       world.NewRingBuffer[world.PlayerState](bufferSize),
		fixedDelta:    fixedDelta,
		targetLatency: targetLatency,
	}
}

func (p *RemotePlayer) Status() InterpolationState {
	return p.state
}

func (p *RemotePlayer) Buffered() int {
	return p.samples.Count()
}

// ReceivedTime is the span of buffered samples not yet consumed, in seconds.
func (p *RemotePlayer) ReceivedTime() float32 {
	return p.receivedTime
}

// OnPlayerState buffers s. Samples not newer than the last buffered one are
// stale. Overflow means we fell too far behind and the buffer starts over.
func (p *RemotePlayer) OnPlayerState(s world.PlayerState) error {
	if last, ok := p.samples.Last(); ok {
		diff := world.SeqDiff(s.Tick, last.Tick)
		if diff <= 0 {
			return world.ErrStale
		}
		if p.samples.IsFull() {
			p.reset()
		} else {
			p.receivedTime += float32(diff) * p.fixedDelta
		}
	}
	p.samples.Add(s)
	return nil
}

func (p *RemotePlayer) reset() {
	p.samples.Clear()
	p.receivedTime = 0
	p.timer = 0
	p.state = Filling
}

// UpdatePosition advances the render timer by the frame delta and blends
// the two oldest samples. It reports whether a new pose was produced.
func (p *RemotePlayer) UpdatePosition(delta float32) bool {
	if p.state == Filling {
		if p.samples.Count() < 2 || p.receivedTime <= p.targetLatency {
			return false
		}
		p.state = Interpolating
	}
	a, okA := p.samples.At(0)
	b, okB := p.samples.At(1)
	if !okA || !okB {
		return false
	}

	interval := float32(world.SeqDiff(b.Tick, a.Tick)) * p.fixedDelta
	p.timer += delta
	t := p.timer / interval
	if t > 1 {
		t = 1
	}
	p.SetPose(a.Position.Lerp(b.Position, t), world.LerpAngle(a.Rotation, b.Rotation, t))

	if p.timer > interval {
		p.samples.RemoveFromStart(1)
		p.receivedTime -= interval
		p.timer -= interval
	}
	return true
}

// ApplyInput is a no-op: remote entities only move by snapshots.
func (p *RemotePlayer) ApplyInput(world.InputCommand, world.SimContext) {}

var _ world.Entity = (*RemotePlayer)(nil)
