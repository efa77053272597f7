package world

import "errors"

// Tick is a wraparound counter used for both server ticks and command ids.
type Tick uint16

const (
	MaxSequence     = 1024
	HalfMaxSequence = MaxSequence / 2
)

// ErrStale marks data that is older than (or identical to) what has already
// been accepted. It is never surfaced past the component that detects it.
var ErrStale = errors.New("stale data")

// SeqDiff returns the signed circular distance from b to a in
// [-HalfMaxSequence, HalfMaxSequence).
func SeqDiff(a, b Tick) int {
	return (int(a)-int(b)+3*HalfMaxSequence)%MaxSequence - HalfMaxSequence
}

// Next returns the tick following t.
func (t Tick) Next() Tick {
	return (t + 1) % MaxSequence
}

// Add moves t by n steps (n may be negative).
func (t Tick) Add(n int) Tick {
	v := (int(t) + n) % MaxSequence
	if v < 0 {
		v += MaxSequence
	}
	return Tick(v)
}

// Newer reports whether a is strictly after b.
func Newer(a, b Tick) bool {
	return SeqDiff(a, b) > 0
}
