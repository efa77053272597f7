package client

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arenanet/world"
)

func sample(tick world.Tick, x, rotation float32) world.PlayerState {
	return world.PlayerState{ID: 2, Position: world.Vector{X: x}, Rotation: rotation, Tick: tick}
}

func TestRemoteInterpolatesBetweenOldestSamples(t *testing.T) {
	p := NewRemotePlayer(2, "remote", 30, testDelta, 0)
	require.NoError(t, p.OnPlayerState(sample(100, 0, 0)))
	assert.False(t, p.UpdatePosition(testDelta), "one sample is not enough")

	require.NoError(t, p.OnPlayerState(sample(102, 2, 0)))
	require.True(t, p.UpdatePosition(testDelta))

	assert.Equal(t, Interpolating, p.Status())
	assert.InDelta(t, 1, p.Position().X, 1e-5)
	assert.InDelta(t, 0, p.Position().Y, 1e-6)
}

func TestRemoteWaitsForTargetLatency(t *testing.T) {
	p := NewRemotePlayer(2, "remote", 30, testDelta, 0.105)
	for tick := world.Tick(0); tick <= 6; tick++ {
		require.NoError(t, p.OnPlayerState(sample(tick, float32(tick), 0)))
	}
	// six ticks buffered is 0.1s, still under the target
	assert.False(t, p.UpdatePosition(testDelta))
	assert.Equal(t, Filling, p.Status())

	require.NoError(t, p.OnPlayerState(sample(7, 7, 0)))
	assert.True(t, p.UpdatePosition(testDelta))
	assert.Equal(t, Interpolating, p.Status())
}

func TestRemoteConsumesSamples(t *testing.T) {
	p := NewRemotePlayer(2, "remote", 30, testDelta, 0)
	for tick := world.Tick(0); tick < 4; tick++ {
		require.NoError(t, p.OnPlayerState(sample(tick, float32(tick), 0)))
	}
	require.Equal(t, 4, p.Buffered())

	for i := 0; i < 3; i++ {
		p.UpdatePosition(testDelta * 1.5)
	}
	assert.Less(t, p.Buffered(), 4)
	assert.GreaterOrEqual(t, p.Position().X, float32(1))
	assert.LessOrEqual(t, p.Position().X, float32(3))
}

func TestRemoteClampsPastNewestSample(t *testing.T) {
	p := NewRemotePlayer(2, "remote", 30, testDelta, 0)
	require.NoError(t, p.OnPlayerState(sample(10, 0, 0)))
	require.NoError(t, p.OnPlayerState(sample(11, 1, 0)))

	p.UpdatePosition(1)
	assert.InDelta(t, 1, p.Position().X, 1e-5)
}

func TestRemoteRejectsStaleSamples(t *testing.T) {
	p := NewRemotePlayer(2, "remote", 30, testDelta, 0)
	require.NoError(t, p.OnPlayerState(sample(50, 0, 0)))

	assert.True(t, errors.Is(p.OnPlayerState(sample(50, 1, 0)), world.ErrStale))
	assert.True(t, errors.Is(p.OnPlayerState(sample(49, 1, 0)), world.ErrStale))
	assert.Equal(t, 1, p.Buffered())

	// 1023 -> 0 is forward
	q := NewRemotePlayer(3, "wrap", 30, testDelta, 0)
	require.NoError(t, q.OnPlayerState(sample(1023, 0, 0)))
	require.NoError(t, q.OnPlayerState(sample(0, 1, 0)))
	assert.InDelta(t, testDelta, q.ReceivedTime(), 1e-6)
}

func TestRemoteOverflowStartsOver(t *testing.T) {
	p := NewRemotePlayer(2, "remote", 3, testDelta, 0)
	for tick := world.Tick(1); tick <= 3; tick++ {
		require.NoError(t, p.OnPlayerState(sample(tick, 0, 0)))
	}
	require.True(t, p.UpdatePosition(testDelta))

	require.NoError(t, p.OnPlayerState(sample(4, 4, 0)))
	assert.Equal(t, 1, p.Buffered())
	assert.Equal(t, Filling, p.Status())
	assert.Zero(t, p.ReceivedTime())
}

func TestRemoteRotationTakesShortestArc(t *testing.T) {
	p := NewRemotePlayer(2, "remote", 30, testDelta, 0)
	require.NoError(t, p.OnPlayerState(sample(0, 0, 3.0)))
	require.NoError(t, p.OnPlayerState(sample(2, 0, -3.0)))
	p.UpdatePosition(testDelta)

	// halfway between 3 and -3 the short way round is near ±pi, not 0
	assert.Greater(t, abs32(p.Rotation()), float32(3))
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
