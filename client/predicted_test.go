package client

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arenanet/world"
)

const testDelta = float32(1) / 60

func newTestPredicted(t *testing.T, bufferSize int, lastID world.Tick) *PredictedPlayer {
	t.Helper()
	p := NewPredictedPlayer(1, "local", bufferSize, testDelta)
	p.Spawn(world.Vector{})
	p.lastCommandID = lastID
	p.lastProcessed = lastID
	return p
}

func pushCommands(p *PredictedPlayer, n int, keys world.Keys) {
	ctx := world.SimContext{FixedDelta: testDelta}
	for i := 0; i < n; i++ {
		cmd := p.NextCommand(keys, 0, 0)
		p.ApplyInput(cmd, ctx)
		p.Update(ctx)
	}
}

func pendingIDs(p *PredictedPlayer) []world.Tick {
	var ids []world.Tick
	for _, cmd := range p.PendingCommands() {
		ids = append(ids, cmd.ID)
	}
	return ids
}

func TestPredictedCommandIDsAreContiguous(t *testing.T) {
	p := newTestPredicted(t, 60, 0)
	pushCommands(p, 3, world.KeyRight)

	assert.Equal(t, []world.Tick{1, 2, 3}, pendingIDs(p))
	assert.Equal(t, world.Tick(4), p.NextCommandID())
	assert.InDelta(t, 3*world.PlayerSpeed*testDelta, p.Position().X, 1e-5)
	assert.Equal(t, AwaitingFirstAck, p.Status())
}

func TestPredictedReconcileReplaysUnacknowledged(t *testing.T) {
	p := newTestPredicted(t, 60, 40)
	pushCommands(p, 5, world.KeyRight)
	require.Equal(t, []world.Tick{41, 42, 43, 44, 45}, pendingIDs(p))

	auth := world.Vector{X: 5}
	state := world.ServerState{Tick: 10, LastProcessedCommand: 43}
	require.NoError(t, p.ReceiveServerState(state, world.PlayerState{ID: 1, Position: auth, Tick: 10}))

	assert.Equal(t, []world.Tick{44, 45}, pendingIDs(p))
	assert.InDelta(t, 5+2*world.PlayerSpeed*testDelta, p.Position().X, 1e-5)
	assert.InDelta(t, 0, p.Position().Y, 1e-6)
	assert.Equal(t, Synced, p.Status())
	assert.Equal(t, world.Tick(46), p.NextCommandID())
}

func TestPredictedReconcileNothingAcknowledgedYet(t *testing.T) {
	p := newTestPredicted(t, 60, 40)
	pushCommands(p, 5, world.KeyDown)

	state := world.ServerState{Tick: 3, LastProcessedCommand: 40}
	require.NoError(t, p.ReceiveServerState(state, world.PlayerState{ID: 1, Tick: 3}))

	assert.Equal(t, 5, p.Pending())
	assert.InDelta(t, 5*world.PlayerSpeed*testDelta, p.Position().Y, 1e-5)
}

func TestPredictedReconcileWholeWindowProcessed(t *testing.T) {
	p := newTestPredicted(t, 60, 40)
	pushCommands(p, 5, world.KeyRight)

	state := world.ServerState{Tick: 12, LastProcessedCommand: 50}
	require.NoError(t, p.ReceiveServerState(state, world.PlayerState{ID: 1, Position: world.Vector{X: 1}, Tick: 12}))

	assert.Zero(t, p.Pending())
	assert.Equal(t, world.Tick(51), p.NextCommandID())
	assert.Equal(t, world.Vector{X: 1}, p.Position())
}

func TestPredictedDesyncResyncs(t *testing.T) {
	p := newTestPredicted(t, 60, 9)
	pushCommands(p, 60, world.KeyRight)
	first, _ := p.commands.First()
	require.Equal(t, world.Tick(10), first.ID)
	require.True(t, p.commands.IsFull())

	state := world.ServerState{Tick: 20, LastProcessedCommand: 5}
	err := p.ReceiveServerState(state, world.PlayerState{ID: 1, Tick: 20})

	var desync *DesyncError
	require.True(t, errors.As(err, &desync))
	assert.Equal(t, -5, desync.Diff)
	assert.Equal(t, 60, desync.Count)
	assert.Zero(t, p.Pending())
	assert.Equal(t, world.Tick(6), p.NextCommandID())
}

func TestPredictedStaleStateIgnored(t *testing.T) {
	p := newTestPredicted(t, 60, 40)
	pushCommands(p, 5, world.KeyRight)

	state := world.ServerState{Tick: 10, LastProcessedCommand: 43}
	require.NoError(t, p.ReceiveServerState(state, world.PlayerState{ID: 1, Tick: 10}))
	pos := p.Position()

	err := p.ReceiveServerState(state, world.PlayerState{ID: 1, Position: world.Vector{X: 99}, Tick: 10})
	assert.True(t, errors.Is(err, world.ErrStale))

	older := world.ServerState{Tick: 9, LastProcessedCommand: 44}
	err = p.ReceiveServerState(older, world.PlayerState{ID: 1, Position: world.Vector{X: 99}, Tick: 9})
	assert.True(t, errors.Is(err, world.ErrStale))

	assert.Equal(t, pos, p.Position())
	assert.Equal(t, []world.Tick{44, 45}, pendingIDs(p))
}

func TestPredictedStateAcrossWraparound(t *testing.T) {
	p := newTestPredicted(t, 60, world.MaxSequence-4)
	pushCommands(p, 5, world.KeyRight)
	require.Equal(t, []world.Tick{1021, 1022, 1023, 0, 1}, pendingIDs(p))

	state := world.ServerState{Tick: 1023, LastProcessedCommand: 1022}
	require.NoError(t, p.ReceiveServerState(state, world.PlayerState{ID: 1, Tick: 1023}))
	assert.Equal(t, []world.Tick{1023, 0, 1}, pendingIDs(p))

	state = world.ServerState{Tick: 2, LastProcessedCommand: 0}
	require.NoError(t, p.ReceiveServerState(state, world.PlayerState{ID: 1, Tick: 2}))
	assert.Equal(t, []world.Tick{1}, pendingIDs(p))
}

func TestPredictedFullBufferResyncs(t *testing.T) {
	p := newTestPredicted(t, 3, 0)
	pushCommands(p, 3, 0)
	require.True(t, p.commands.IsFull())

	cmd := p.NextCommand(0, 0, 0)
	assert.Equal(t, world.Tick(1), cmd.ID)
	assert.Zero(t, p.Pending())
}

func TestPredictedDeadPlayerBuffersWithoutMoving(t *testing.T) {
	p := newTestPredicted(t, 60, 0)
	p.SetHealth(0)
	pushCommands(p, 2, world.KeyRight)

	assert.Equal(t, []world.Tick{1, 2}, pendingIDs(p))
	assert.Equal(t, world.Vector{}, p.Position())
}

func TestPredictedShootRespectsCooldown(t *testing.T) {
	p := newTestPredicted(t, 60, 0)
	shots := 0
	p.OnShoot(func(origin, dir world.Vector) {
		shots++
		assert.InDelta(t, 1, dir.Length(), 1e-5)
	})

	// 0.2s cooldown at 60Hz: the second shot comes 12 or 13 ticks later.
	pushCommands(p, 15, world.KeyFire)
	assert.Equal(t, 2, shots)

	// Replay never re-fires.
	state := world.ServerState{Tick: 1, LastProcessedCommand: 1}
	require.NoError(t, p.ReceiveServerState(state, world.PlayerState{ID: 1, Tick: 1}))
	assert.Equal(t, 2, shots)
}
