package world

// SimContext is passed into every update instead of a global clock.
type SimContext struct {
	Tick       Tick
	FixedDelta float32
}
