package client

import (
	"math"
	"math/rand"

	"arenanet/world"
)

// Intent is one presentation-layer sample of what the local player wants to
// do. The game turns the latest sample into a command on every fixed tick.
type Intent struct {
	Keys     world.Keys
	Rotation float32
}

// Bot stands in for a human at the keyboard: it walks a random direction
// for a while, sweeps its aim and fires in bursts.
type Bot struct {
	rng       *rand.Rand
	keys      world.Keys
	rotation  float32
	frames    int
	fireEvery int
}

func NewBot(seed int64) *Bot {
	return &Bot{
		rng:       rand.New(rand.NewSource(seed)),
		fireEvery: 20,
	}
}

var directions = []world.Keys{
	0,
	world.KeyLeft,
	world.KeyRight,
	world.KeyUp,
	world.KeyDown,
	world.KeyLeft | world.KeyUp,
	world.KeyRight | world.KeyDown,
}

// Sample returns the intent for the next frame.
func (b *Bot) Sample(delta float32) Intent {
	if b.frames%60 == 0 {
		b.keys = directions[b.rng.Intn(len(directions))]
	}
	b.frames++
	b.rotation = float32(math.Mod(float64(b.rotation+delta), 2*math.Pi))

	keys := b.keys
	if b.frames%b.fireEvery < 3 {
		keys |= world.KeyFire
	}
	return Intent{Keys: keys, Rotation: b.rotation}
}
